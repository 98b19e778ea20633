package jwt

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"fmt"
	"math/big"
)

// JWK is a JSON Web Key in mapping form (RFC 7517). Only the fields the codec
// materializes are interpreted; everything else rides along untouched.
type JWK map[string]any

func (k JWK) str(name string) string {
	v, _ := k[name].(string)
	return v
}

// KeyID returns the key's "kid" field.
func (k JWK) KeyID() string { return k.str("kid") }

// KeySet is an ordered, append-only collection of JWKs, typically assembled
// from one or more published JWKS documents.
type KeySet struct {
	keys []JWK
}

// NewKeySet builds a key set from zero or more JWKs.
func NewKeySet(keys ...JWK) *KeySet {
	s := &KeySet{}
	s.Append(keys...)
	return s
}

// Append registers additional keys at the end of the set.
func (s *KeySet) Append(keys ...JWK) {
	for _, k := range keys {
		if k != nil {
			s.keys = append(s.keys, k)
		}
	}
}

// Merge appends every key of other, preserving registration order.
func (s *KeySet) Merge(other *KeySet) {
	if other == nil {
		return
	}
	s.Append(other.keys...)
}

// Len returns the number of registered keys.
func (s *KeySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Lookup returns the first key whose "kid" matches. Duplicate kids are
// allowed; the earliest-registered entry wins.
func (s *KeySet) Lookup(kid string) (JWK, bool) {
	if s == nil {
		return nil, false
	}
	for _, k := range s.keys {
		if k.KeyID() == kid {
			return k, true
		}
	}
	return nil, false
}

// materialize derives usable key material from the JWK for the given
// algorithm family: a raw symmetric secret from "k" for HMAC, a public key
// from "n"/"e" for RSA, or from "crv"/"x"/"y" for ECDSA.
func (k JWK) materialize(family Family) (Key, error) {
	switch family {
	case FamilyHMAC:
		raw, err := DecodeBase64URL(k.str("k"))
		if err != nil || len(raw) == 0 {
			return Key{}, fmt.Errorf(`%w: jwk "k" field`, ErrInvalidKey)
		}
		return RawKey(raw), nil
	case FamilyRSA:
		n, err := jwkBigInt(k, "n")
		if err != nil {
			return Key{}, err
		}
		e, err := jwkBigInt(k, "e")
		if err != nil {
			return Key{}, err
		}
		return KeyHandle(&rsa.PublicKey{N: n, E: int(e.Int64())}), nil
	case FamilyECDSA:
		var curve elliptic.Curve
		switch k.str("crv") {
		case "P-256":
			curve = elliptic.P256()
		case "P-384":
			curve = elliptic.P384()
		case "P-521":
			curve = elliptic.P521()
		default:
			return Key{}, fmt.Errorf(`%w: jwk "crv" %q`, ErrInvalidKey, k.str("crv"))
		}
		x, err := jwkBigInt(k, "x")
		if err != nil {
			return Key{}, err
		}
		y, err := jwkBigInt(k, "y")
		if err != nil {
			return Key{}, err
		}
		return KeyHandle(&ecdsa.PublicKey{Curve: curve, X: x, Y: y}), nil
	}
	return Key{}, fmt.Errorf("%w: no key derivation for %q tokens", ErrInvalidKey, AlgNone)
}

func jwkBigInt(k JWK, field string) (*big.Int, error) {
	raw, err := DecodeBase64URL(k.str(field))
	if err != nil || len(raw) == 0 {
		return nil, fmt.Errorf("%w: jwk %q field", ErrInvalidKey, field)
	}
	return new(big.Int).SetBytes(raw), nil
}

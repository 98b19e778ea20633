package jwt

import (
	"errors"
)

// ErrMalformedToken indicates that the token does not have the expected
// three-segment structure, or that a segment failed base64url or JSON decoding.
var ErrMalformedToken = errors.New("jwt: token is malformed")

// ErrMissingAlgorithm is returned when the token header carries no "alg" value.
var ErrMissingAlgorithm = errors.New("jwt: token header carries no algorithm")

// ErrUnsupportedAlgorithm is returned for algorithm names outside the
// supported none/HS/RS/ES families and digest sizes.
var ErrUnsupportedAlgorithm = errors.New("jwt: unsupported algorithm")

// ErrNoneNotAllowed is returned when a token advertises the "none" algorithm
// and the codec was not explicitly configured to accept unsecured tokens.
var ErrNoneNotAllowed = errors.New(`jwt: "none" algorithm requires explicit opt-in`)

// ErrMissingSecret occurred when an HMAC operation has no symmetric secret to work with.
var ErrMissingSecret = errors.New("jwt: secret not specified")

// ErrMissingPrivateKey occurred when signing requires a private key that was never supplied.
var ErrMissingPrivateKey = errors.New("jwt: private key not specified")

// ErrMissingPublicKey occurred when verification requires a public key that was
// never supplied, whether because no key set was configured or because no
// key-set entry matched.
var ErrMissingPublicKey = errors.New("jwt: public key not specified")

// ErrHMACVerification indicates that the recomputed HMAC does not match the
// signature carried by the token.
var ErrHMACVerification = errors.New("jwt: HMAC signature mismatch")

// ErrInvalidSignature is returned when an RSA or ECDSA signature does not
// verify against the public key.
var ErrInvalidSignature = errors.New("jwt: invalid token signature")

// ErrTokenExpired is returned when the current time is past the "exp" claim.
var ErrTokenExpired = errors.New("jwt: token has expired")

// ErrTokenNotYetValid is returned when the current time is before the "nbf" claim.
var ErrTokenNotYetValid = errors.New("jwt: token not valid yet")

// ErrInvalidClaims is returned when the payload's top-level JSON value is not an object.
var ErrInvalidClaims = errors.New("jwt: claims must be a JSON object")

// ErrInvalidKey is returned when key material cannot be parsed or has the
// wrong type for the selected algorithm.
var ErrInvalidKey = errors.New("jwt: invalid key material")

// Key abstracts key material for extra safety: raw bytes (a symmetric secret),
// PEM text, or an already parsed crypto key handle. The concrete form is
// resolved once, at the primitive boundary, by the algorithm family that
// consumes it.
type Key struct {
	raw    []byte
	pem    []byte
	handle any
}

// RawKey wraps a symmetric secret or raw key bytes.
func RawKey(material []byte) Key {
	return Key{raw: append([]byte(nil), material...)}
}

// PEMKey wraps PEM-encoded key text. The key is parsed lazily when an
// operation needs it.
func PEMKey(text string) Key {
	return Key{pem: []byte(text)}
}

// KeyHandle wraps an already parsed crypto key, such as an *rsa.PrivateKey or
// *ecdsa.PublicKey.
func KeyHandle(key any) Key {
	return Key{handle: key}
}

// IsZero reports whether no key material has been supplied.
func (k Key) IsZero() bool {
	return len(k.raw) == 0 && len(k.pem) == 0 && k.handle == nil
}

package jwt

import (
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"math/big"
)

// SigningMethod produces and checks signatures over a token's signing input
// (the base64url header and claims segments joined by a dot). Implementations
// receive key material already resolved to the concrete type their family
// needs.
type SigningMethod interface {
	Alg() string
	Sign(signingInput string, key any) ([]byte, error)
	Verify(signingInput string, sig []byte, key any) error
}

// methodFor selects the strategy for a parsed algorithm. ParseAlgorithm is
// the gate for unknown families and sizes, so this is total over its output.
func methodFor(alg Algorithm) SigningMethod {
	switch alg.Family {
	case FamilyHMAC:
		return &signingMethodHMAC{alg}
	case FamilyRSA:
		return &signingMethodRSA{alg}
	case FamilyECDSA:
		return &signingMethodECDSA{alg}
	}
	return &signingMethodNone{}
}

// signingMethodNone implements the unsecured "none" algorithm: the signature
// is empty and verification is trivial. The codec gates this path behind an
// explicit opt-in before it is ever reached.
type signingMethodNone struct{}

func (m *signingMethodNone) Alg() string { return AlgNone }
func (m *signingMethodNone) Sign(string, any) ([]byte, error) {
	return nil, nil
}
func (m *signingMethodNone) Verify(string, []byte, any) error {
	return nil
}

// signingMethodHMAC implements HS256/HS384/HS512.
type signingMethodHMAC struct {
	alg Algorithm
}

func (m *signingMethodHMAC) Alg() string { return m.alg.Name() }

func (m *signingMethodHMAC) Sign(signingInput string, key any) ([]byte, error) {
	k, ok := key.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: %s key must be bytes", ErrInvalidKey, m.Alg())
	}
	if len(k) == 0 {
		return nil, ErrMissingSecret
	}
	h := hmac.New(m.alg.hash().New, k)
	h.Write([]byte(signingInput))
	return h.Sum(nil), nil
}

func (m *signingMethodHMAC) Verify(signingInput string, sig []byte, key any) error {
	expected, err := m.Sign(signingInput, key)
	if err != nil {
		return err
	}
	// hmac.Equal is constant time
	if !hmac.Equal(expected, sig) {
		return ErrHMACVerification
	}
	return nil
}

// signingMethodRSA implements RS256/RS384/RS512 (RSASSA-PKCS1-v1_5).
type signingMethodRSA struct {
	alg Algorithm
}

func (m *signingMethodRSA) Alg() string { return m.alg.Name() }

func (m *signingMethodRSA) Sign(signingInput string, key any) ([]byte, error) {
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s requires *rsa.PrivateKey", ErrInvalidKey, m.Alg())
	}
	return rsa.SignPKCS1v15(rand.Reader, priv, m.alg.hash(), digest(m.alg, signingInput))
}

func (m *signingMethodRSA) Verify(signingInput string, sig []byte, key any) error {
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("%w: %s requires *rsa.PublicKey", ErrInvalidKey, m.Alg())
	}
	if err := rsa.VerifyPKCS1v15(pub, m.alg.hash(), digest(m.alg, signingInput), sig); err != nil {
		return ErrInvalidSignature
	}
	return nil
}

// signingMethodECDSA implements ES256/ES384/ES512 with JWS raw r||s
// signatures, each half zero-padded to the curve's byte size.
type signingMethodECDSA struct {
	alg Algorithm
}

func (m *signingMethodECDSA) Alg() string { return m.alg.Name() }

// curveSize returns the fixed byte width of each signature half. ES512 uses
// the P-521 curve, hence 66 rather than 64.
func (m *signingMethodECDSA) curveSize() int {
	switch m.alg.Bits {
	case 256:
		return 32
	case 384:
		return 48
	}
	return 66
}

func (m *signingMethodECDSA) Sign(signingInput string, key any) ([]byte, error) {
	priv, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s requires *ecdsa.PrivateKey", ErrInvalidKey, m.Alg())
	}
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest(m.alg, signingInput))
	if err != nil {
		return nil, err
	}
	size := m.curveSize()
	sig := make([]byte, 2*size)
	r.FillBytes(sig[:size])
	s.FillBytes(sig[size:])
	return sig, nil
}

func (m *signingMethodECDSA) Verify(signingInput string, sig []byte, key any) error {
	pub, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return fmt.Errorf("%w: %s requires *ecdsa.PublicKey", ErrInvalidKey, m.Alg())
	}
	size := m.curveSize()
	if len(sig) != 2*size {
		return ErrInvalidSignature
	}
	r := new(big.Int).SetBytes(sig[:size])
	s := new(big.Int).SetBytes(sig[size:])
	if !ecdsa.Verify(pub, digest(m.alg, signingInput), r, s) {
		return ErrInvalidSignature
	}
	return nil
}

func digest(alg Algorithm, signingInput string) []byte {
	h := alg.hash().New()
	h.Write([]byte(signingInput))
	return h.Sum(nil)
}

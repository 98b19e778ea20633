package jwt

import (
	"crypto"
	_ "crypto/sha256" // register digests used by the HS/RS/ES families
	_ "crypto/sha512"
	"fmt"
	"strconv"
)

// Family identifies an algorithm family from the JWS "alg" header.
type Family uint8

const (
	FamilyNone Family = iota
	FamilyHMAC
	FamilyRSA
	FamilyECDSA
)

func (f Family) String() string {
	switch f {
	case FamilyNone:
		return "none"
	case FamilyHMAC:
		return "HS"
	case FamilyRSA:
		return "RS"
	case FamilyECDSA:
		return "ES"
	}
	return "unknown"
}

// AlgNone is the "alg" header value of an unsecured token.
const AlgNone = "none"

// Algorithm is the parsed form of an "alg" header value: a family tag plus
// the digest bit size. The size is structural, not free-form; only 256, 384
// and 512 exist, so unsupported sizes are rejected at parse time rather than
// deep inside a crypto primitive.
type Algorithm struct {
	Family Family
	Bits   int
}

// ParseAlgorithm maps an "alg" header string onto its Algorithm form.
// Matching is case-sensitive, per RFC 7518.
func ParseAlgorithm(name string) (Algorithm, error) {
	if name == AlgNone {
		return Algorithm{Family: FamilyNone}, nil
	}
	if len(name) < 3 {
		return Algorithm{}, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
	var family Family
	switch name[:2] {
	case "HS":
		family = FamilyHMAC
	case "RS":
		family = FamilyRSA
	case "ES":
		family = FamilyECDSA
	default:
		return Algorithm{}, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
	bits, err := strconv.Atoi(name[2:])
	if err != nil {
		return Algorithm{}, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
	switch bits {
	case 256, 384, 512:
	default:
		return Algorithm{}, fmt.Errorf("%w: %s%d", ErrUnsupportedAlgorithm, name[:2], bits)
	}
	return Algorithm{Family: family, Bits: bits}, nil
}

// Name returns the "alg" header value for the algorithm.
func (a Algorithm) Name() string {
	if a.Family == FamilyNone {
		return AlgNone
	}
	return a.Family.String() + strconv.Itoa(a.Bits)
}

func (a Algorithm) hash() crypto.Hash {
	switch a.Bits {
	case 256:
		return crypto.SHA256
	case 384:
		return crypto.SHA384
	case 512:
		return crypto.SHA512
	}
	return 0
}

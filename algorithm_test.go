package jwt

import (
	"errors"
	"testing"
)

func TestParseAlgorithm(t *testing.T) {
	valid := map[string]Algorithm{
		"none":  {Family: FamilyNone},
		"HS256": {Family: FamilyHMAC, Bits: 256},
		"HS384": {Family: FamilyHMAC, Bits: 384},
		"HS512": {Family: FamilyHMAC, Bits: 512},
		"RS256": {Family: FamilyRSA, Bits: 256},
		"RS384": {Family: FamilyRSA, Bits: 384},
		"RS512": {Family: FamilyRSA, Bits: 512},
		"ES256": {Family: FamilyECDSA, Bits: 256},
		"ES384": {Family: FamilyECDSA, Bits: 384},
		"ES512": {Family: FamilyECDSA, Bits: 512},
	}
	for name, want := range valid {
		got, err := ParseAlgorithm(name)
		if err != nil {
			t.Errorf("ParseAlgorithm(%q) failed: %v", name, err)
			continue
		}
		if got != want {
			t.Errorf("ParseAlgorithm(%q) = %+v, want %+v", name, got, want)
		}
		if got.Name() != name {
			t.Errorf("Name() = %q, want %q", got.Name(), name)
		}
	}

	invalid := []string{
		"", "HS", "HS0", "HS128", "HS1024", "PS256", "EdDSA",
		"hs256", "None", "NONE", "RSnot", "ES256 ",
	}
	for _, name := range invalid {
		if _, err := ParseAlgorithm(name); !errors.Is(err, ErrUnsupportedAlgorithm) {
			t.Errorf("ParseAlgorithm(%q): expected unsupported algorithm, got %v", name, err)
		}
	}
}

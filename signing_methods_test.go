package jwt

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"testing"
)

func TestMethodForCoversAllFamilies(t *testing.T) {
	for _, name := range []string{"none", "HS256", "HS384", "HS512", "RS256", "ES512"} {
		alg, err := ParseAlgorithm(name)
		if err != nil {
			t.Fatalf("ParseAlgorithm(%q): %v", name, err)
		}
		m := methodFor(alg)
		if m.Alg() != name {
			t.Errorf("methodFor(%q).Alg() = %q", name, m.Alg())
		}
	}
}

func TestHMACRejectsEmptyKey(t *testing.T) {
	alg, _ := ParseAlgorithm("HS256")
	m := methodFor(alg)
	if _, err := m.Sign("a.b", []byte{}); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected missing secret, got %v", err)
	}
	if err := m.Verify("a.b", []byte("sig"), []byte{}); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected missing secret, got %v", err)
	}
}

func TestHMACKeyTypeMismatch(t *testing.T) {
	alg, _ := ParseAlgorithm("HS256")
	if _, err := methodFor(alg).Sign("a.b", "string key"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected invalid key, got %v", err)
	}
}

func TestECDSASignatureShape(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	alg, _ := ParseAlgorithm("ES256")
	m := methodFor(alg)

	sig, err := m.Sign("a.b", priv)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if len(sig) != 64 {
		t.Fatalf("ES256 signature is %d bytes, want 64", len(sig))
	}
	if err := m.Verify("a.b", sig, &priv.PublicKey); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	// anything but exactly 2*curveSize bytes is rejected before math
	if err := m.Verify("a.b", sig[:63], &priv.PublicKey); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature for truncated sig, got %v", err)
	}
	if err := m.Verify("other.input", sig, &priv.PublicKey); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature for wrong input, got %v", err)
	}
}

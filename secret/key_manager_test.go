package secret_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/oarkflow/jwt"
	"github.com/oarkflow/jwt/secret"
)

func TestKeyManagerRotation(t *testing.T) {
	km, err := secret.NewKeyManager(256, 0, 3, 5, 3)
	if err != nil {
		t.Fatalf("NewKeyManager failed: %v", err)
	}

	firstID, firstKey := km.CurrentKey()
	if firstID == "" || len(firstKey) != 32 {
		t.Fatalf("initial key missing: id=%q len=%d", firstID, len(firstKey))
	}

	secondID, err := km.Rotate()
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if secondID == firstID {
		t.Fatalf("rotation reused key ID %q", firstID)
	}

	currentID, currentKey := km.CurrentKey()
	if currentID != secondID {
		t.Fatalf("CurrentKey = %q, want newest %q", currentID, secondID)
	}
	if bytes.Equal(currentKey, firstKey) {
		t.Fatalf("rotation reused secret material")
	}

	// the previous key stays resolvable until it expires
	if got, ok := km.LookupKey(firstID); !ok || !bytes.Equal(got, firstKey) {
		t.Fatalf("previous key lost after rotation")
	}
	if _, ok := km.LookupKey("no-such-id"); ok {
		t.Fatalf("unknown key ID resolved")
	}
}

func TestKeyManagerPruning(t *testing.T) {
	km, err := secret.NewKeyManager(256, 0, 2, 3, 2)
	if err != nil {
		t.Fatalf("NewKeyManager failed: %v", err)
	}
	firstID, _ := km.CurrentKey()
	if _, err := km.Rotate(); err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if _, err := km.Rotate(); err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if _, ok := km.LookupKey(firstID); ok {
		t.Fatalf("oldest key should be pruned past the cache limit")
	}
	if km.KeySet().Len() != 2 {
		t.Fatalf("KeySet().Len() = %d, want cache limit 2", km.KeySet().Len())
	}
}

func TestKeyManagerTokensVerifyThroughKeySet(t *testing.T) {
	km, err := secret.NewKeyManager(256, 0, 4, 5, 3)
	if err != nil {
		t.Fatalf("NewKeyManager failed: %v", err)
	}
	kid, key := km.CurrentKey()

	token, err := jwt.New("HS256",
		jwt.WithSecret(jwt.RawKey(key)),
		jwt.WithKeyID(kid),
		jwt.WithClaims(map[string]any{"sub": "42"}),
		jwt.WithExpiresAt(time.Now().Add(time.Minute)),
	).Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// rotate after issuing; the old key must keep verifying
	if _, err := km.Rotate(); err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}

	claims, err := jwt.New("", jwt.WithKeySet(km.KeySet())).Decode(token)
	if err != nil {
		t.Fatalf("Decode via exported key set failed: %v", err)
	}
	if claims["sub"] != "42" {
		t.Fatalf("claims mismatch: %v", claims)
	}
}

func TestSharesRoundTrip(t *testing.T) {
	km, err := secret.NewKeyManager(512, 0, 2, 5, 3)
	if err != nil {
		t.Fatalf("NewKeyManager failed: %v", err)
	}
	kid, key := km.CurrentKey()

	shares := km.SharesForKey(kid)
	if len(shares) != 5 {
		t.Fatalf("share count = %d, want 5", len(shares))
	}

	// any threshold-sized subset reconstructs the secret
	if err := km.ImportFromShares("restored", shares[1:4], time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("ImportFromShares failed: %v", err)
	}
	restored, ok := km.LookupKey("restored")
	if !ok {
		t.Fatalf("restored key not resolvable")
	}
	if !bytes.Equal(restored, key) {
		t.Fatalf("reconstructed secret differs from original")
	}
}

func TestSealShareRoundTrip(t *testing.T) {
	wrap, err := secret.GenerateHMACKey(256)
	if err != nil {
		t.Fatalf("generate wrap key: %v", err)
	}
	share := []byte("share material to protect at rest")

	sealed, err := secret.SealShare(wrap, share)
	if err != nil {
		t.Fatalf("SealShare failed: %v", err)
	}
	if bytes.Contains(sealed, share) {
		t.Fatalf("sealed share leaks plaintext")
	}

	opened, err := secret.OpenShare(wrap, sealed)
	if err != nil {
		t.Fatalf("OpenShare failed: %v", err)
	}
	if !bytes.Equal(opened, share) {
		t.Fatalf("opened share differs: %q", opened)
	}

	// tampering must be detected
	sealed[len(sealed)-1] ^= 0x01
	if _, err := secret.OpenShare(wrap, sealed); err == nil {
		t.Fatalf("tampered share opened")
	}

	if _, err := secret.SealShare([]byte("short"), share); err == nil {
		t.Fatalf("undersized wrap key accepted")
	}
	if _, err := secret.OpenShare(wrap, []byte("tiny")); err == nil {
		t.Fatalf("truncated ciphertext accepted")
	}
}

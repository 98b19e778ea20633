package secret

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

var errSealedShare = errors.New("secret: sealed share invalid")

// ValidateSealKey ensures the wrapping key is 32 bytes for XChaCha20-Poly1305.
func ValidateSealKey(key []byte) error {
	if len(key) != chacha20poly1305.KeySize {
		return errors.New("secret: invalid seal key length")
	}
	return nil
}

// SealShare encrypts a Shamir share (or any signing secret) for at-rest
// storage with XChaCha20-Poly1305. The random nonce is prepended to the
// ciphertext.
func SealShare(key, share []byte) ([]byte, error) {
	if err := ValidateSealKey(key); err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, chacha20poly1305.NonceSizeX, chacha20poly1305.NonceSizeX+len(share)+aead.Overhead())
	if _, err := rand.Read(out); err != nil {
		return nil, err
	}
	return aead.Seal(out, out, share, nil), nil
}

// OpenShare decrypts a share produced by SealShare.
func OpenShare(key, sealed []byte) ([]byte, error) {
	if err := ValidateSealKey(key); err != nil {
		return nil, errSealedShare
	}
	if len(sealed) < chacha20poly1305.NonceSizeX {
		return nil, errSealedShare
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, errSealedShare
	}
	nonce := sealed[:chacha20poly1305.NonceSizeX]
	share, err := aead.Open(nil, nonce, sealed[chacha20poly1305.NonceSizeX:], nil)
	if err != nil {
		return nil, errSealedShare
	}
	return share, nil
}

package jwt

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// symmetric resolves the key into raw secret bytes for the HMAC family.
func (k Key) symmetric() ([]byte, error) {
	switch {
	case len(k.raw) > 0:
		return k.raw, nil
	case len(k.pem) > 0:
		return k.pem, nil
	case k.handle != nil:
		if b, ok := k.handle.([]byte); ok && len(b) > 0 {
			return b, nil
		}
		return nil, fmt.Errorf("%w: symmetric secret must be bytes", ErrInvalidKey)
	}
	return nil, ErrMissingSecret
}

func (k Key) rsaPrivate() (*rsa.PrivateKey, error) {
	if k.handle != nil {
		if priv, ok := k.handle.(*rsa.PrivateKey); ok {
			return priv, nil
		}
		return nil, fmt.Errorf("%w: expected *rsa.PrivateKey", ErrInvalidKey)
	}
	parsed, err := parsePrivateKeyPEM(k.pemOrRaw())
	if err != nil {
		return nil, err
	}
	priv, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: PEM block is not an RSA private key", ErrInvalidKey)
	}
	return priv, nil
}

func (k Key) rsaPublic() (*rsa.PublicKey, error) {
	if k.handle != nil {
		switch key := k.handle.(type) {
		case *rsa.PublicKey:
			return key, nil
		case *rsa.PrivateKey:
			return &key.PublicKey, nil
		}
		return nil, fmt.Errorf("%w: expected *rsa.PublicKey", ErrInvalidKey)
	}
	parsed, err := parsePublicKeyPEM(k.pemOrRaw())
	if err != nil {
		return nil, err
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: PEM block is not an RSA public key", ErrInvalidKey)
	}
	return pub, nil
}

func (k Key) ecdsaPrivate() (*ecdsa.PrivateKey, error) {
	if k.handle != nil {
		if priv, ok := k.handle.(*ecdsa.PrivateKey); ok {
			return priv, nil
		}
		return nil, fmt.Errorf("%w: expected *ecdsa.PrivateKey", ErrInvalidKey)
	}
	parsed, err := parsePrivateKeyPEM(k.pemOrRaw())
	if err != nil {
		return nil, err
	}
	priv, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: PEM block is not an EC private key", ErrInvalidKey)
	}
	return priv, nil
}

func (k Key) ecdsaPublic() (*ecdsa.PublicKey, error) {
	if k.handle != nil {
		switch key := k.handle.(type) {
		case *ecdsa.PublicKey:
			return key, nil
		case *ecdsa.PrivateKey:
			return &key.PublicKey, nil
		}
		return nil, fmt.Errorf("%w: expected *ecdsa.PublicKey", ErrInvalidKey)
	}
	parsed, err := parsePublicKeyPEM(k.pemOrRaw())
	if err != nil {
		return nil, err
	}
	pub, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: PEM block is not an EC public key", ErrInvalidKey)
	}
	return pub, nil
}

// pemOrRaw allows PEM text supplied through RawKey to still parse.
func (k Key) pemOrRaw() []byte {
	if len(k.pem) > 0 {
		return k.pem
	}
	return k.raw
}

func parsePrivateKeyPEM(data []byte) (any, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidKey)
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	return nil, fmt.Errorf("%w: unrecognized private key encoding", ErrInvalidKey)
}

func parsePublicKeyPEM(data []byte) (any, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidKey)
	}
	if key, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		return key, nil
	}
	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}
	if cert, err := x509.ParseCertificate(block.Bytes); err == nil {
		return cert.PublicKey, nil
	}
	return nil, fmt.Errorf("%w: unrecognized public key encoding", ErrInvalidKey)
}

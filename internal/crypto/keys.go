package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"parley/internal/domain"
)

const rsaKeyBits = 2048

// KeyPair is a process-lifetime RSA key pair. The private half never leaves
// the owning process; the public half travels as PEM inside the handshake.
type KeyPair struct {
	Private *rsa.PrivateKey
}

// GenerateKeyPair returns a fresh RSA-2048 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate key pair: %w", err)
	}
	return &KeyPair{Private: priv}, nil
}

// Public returns the public half of the pair.
func (kp *KeyPair) Public() *rsa.PublicKey { return &kp.Private.PublicKey }

// PublicPEM returns the public half in portable PEM form.
func (kp *KeyPair) PublicPEM() (string, error) {
	return ExportPublicKey(kp.Public())
}

// ExportPublicKey encodes pub as a PKIX PEM block.
func ExportPublicKey(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("export public key: %w", err)
	}
	block := pem.Block{Type: "PUBLIC KEY", Bytes: der}
	return string(pem.EncodeToMemory(&block)), nil
}

// ImportPublicKey decodes a PKIX PEM block into an RSA public key.
// Any parse failure reports domain.ErrMalformedKey.
func ImportPublicKey(s string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(s))
	if block == nil {
		return nil, fmt.Errorf("no PEM block: %w", domain.ErrMalformedKey)
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", domain.ErrMalformedKey)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA key: %w", domain.ErrMalformedKey)
	}
	return pub, nil
}

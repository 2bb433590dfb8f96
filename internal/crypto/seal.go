package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"parley/internal/domain"
	"parley/internal/util/memzero"
)

// Seal encrypts plaintext for recipient. A one-time session key encrypts the
// body with ChaCha20-Poly1305 (nonce prepended to the ciphertext); the
// session key itself travels RSA-OAEP-wrapped under the recipient key and is
// wiped before returning.
func Seal(plaintext []byte, recipient *rsa.PublicKey) (domain.SealedPayload, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return domain.SealedPayload{}, err
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return domain.SealedPayload{}, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return domain.SealedPayload{}, err
	}
	cipher := aead.Seal(nonce, nonce, plaintext, nil)

	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, recipient, key, nil)
	if err != nil {
		return domain.SealedPayload{}, fmt.Errorf("wrap session key: %w", err)
	}
	return domain.SealedPayload{Cipher: cipher, WrappedKey: wrapped}, nil
}

// Open unwraps the session key with own and decrypts the body. Either step
// failing (wrong key, corrupted ciphertext, tampered payload) reports
// domain.ErrDecrypt.
func Open(p domain.SealedPayload, own *rsa.PrivateKey) ([]byte, error) {
	key, err := rsa.DecryptOAEP(sha256.New(), nil, own, p.WrappedKey, nil)
	if err != nil {
		return nil, fmt.Errorf("unwrap session key: %w", domain.ErrDecrypt)
	}
	defer memzero.Zero(key)
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("session key size %d: %w", len(key), domain.ErrDecrypt)
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	if len(p.Cipher) < aead.NonceSize() {
		return nil, fmt.Errorf("short ciphertext: %w", domain.ErrDecrypt)
	}
	nonce, body := p.Cipher[:aead.NonceSize()], p.Cipher[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, fmt.Errorf("open ciphertext: %w", domain.ErrDecrypt)
	}
	return plaintext, nil
}

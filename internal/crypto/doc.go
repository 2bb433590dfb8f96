// Package crypto implements the hybrid secure-channel codec.
//
// Contents
//
//   - RSA-2048 key pair generation and PEM (PKIX) public-key encoding
//     (GenerateKeyPair, ExportPublicKey, ImportPublicKey)
//   - Per-message hybrid sealing: a fresh one-time session key encrypts the
//     payload with ChaCha20-Poly1305, then RSA-OAEP wraps the session key
//     under the recipient's public key (Seal, Open)
//
// # Notes
//
// A session key is generated for every Seal call and wiped before Seal
// returns; it is never reused across two messages, even to the same
// recipient. Open authenticates the ciphertext: a tampered payload fails
// with domain.ErrDecrypt rather than decrypting to garbage.
package crypto

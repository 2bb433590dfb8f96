package domain

import "github.com/google/uuid"

// Handle identifies one live connection for the lifetime of that connection.
// It is value-comparable, so room membership checks never depend on pointer
// identity.
type Handle uuid.UUID

// NewHandle returns a fresh random handle.
func NewHandle() Handle { return Handle(uuid.New()) }

// String returns the canonical UUID form of the handle.
func (h Handle) String() string { return uuid.UUID(h).String() }

// SealedPayload is the two-part hybrid ciphertext produced by Seal: the
// message body encrypted under a one-time session key, and that session key
// wrapped under the recipient's public key.
type SealedPayload struct {
	Cipher     []byte `json:"cipher"`
	WrappedKey []byte `json:"wrapped_key"`
}

// Envelope is one framed wire record.
//
// Three uses share the shape:
//   - server hello: Cipher holds the server's public key PEM, WrappedKey is
//     absent (the one message on the wire sent before encryption is possible)
//   - first client message: sealed payload plus PublicKey carrying the
//     client's PEM in cleartext
//   - everything after: sealed payload only
type Envelope struct {
	Cipher     []byte `json:"cipher"`
	WrappedKey []byte `json:"wrapped_key,omitempty"`
	PublicKey  string `json:"public_key,omitempty"`
}

// Sealed reports whether the envelope carries a hybrid-encrypted payload, as
// opposed to the plaintext server hello.
func (e Envelope) Sealed() bool { return len(e.WrappedKey) > 0 }

// Payload returns the envelope's sealed payload.
func (e Envelope) Payload() SealedPayload {
	return SealedPayload{Cipher: e.Cipher, WrappedKey: e.WrappedKey}
}

// Wrap builds an envelope from a sealed payload.
func Wrap(p SealedPayload) Envelope {
	return Envelope{Cipher: p.Cipher, WrappedKey: p.WrappedKey}
}

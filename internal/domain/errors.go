package domain

import "errors"

var (
	// ErrMalformedKey indicates a public key that could not be parsed.
	ErrMalformedKey = errors.New("malformed public key")

	// ErrDecrypt indicates a payload that could not be unwrapped or whose
	// ciphertext failed authentication.
	ErrDecrypt = errors.New("decryption failed")

	// ErrNotReady indicates a send attempted before the peer's public key
	// is known.
	ErrNotReady = errors.New("peer public key not yet known")

	// ErrClosed indicates an operation on a closed session.
	ErrClosed = errors.New("session closed")
)

package wire

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"parley/internal/domain"
)

const (
	headerSize = 4

	// DefaultMaxFrame bounds a single record. Chat lines are small; anything
	// near this size is a protocol violation, not a long message.
	DefaultMaxFrame = 64 * 1024
)

// ErrFrameTooLarge reports a record exceeding the configured maximum.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// WriteEnvelope serialises env and writes it as one length-prefixed record.
func WriteEnvelope(w io.Writer, env domain.Envelope, maxFrame uint32) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if uint32(len(body)) > maxFrame {
		return fmt.Errorf("%d bytes: %w", len(body), ErrFrameTooLarge)
	}
	buf := make([]byte, headerSize+len(body))
	binary.BigEndian.PutUint32(buf, uint32(len(body)))
	copy(buf[headerSize:], body)
	_, err = w.Write(buf)
	return err
}

// ReadEnvelope reads one length-prefixed record from r.
func ReadEnvelope(r io.Reader, maxFrame uint32) (domain.Envelope, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		// EOF on the boundary is a clean close; inside the header it is not.
		return domain.Envelope{}, err
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > maxFrame {
		return domain.Envelope{}, fmt.Errorf("%d bytes: %w", size, ErrFrameTooLarge)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return domain.Envelope{}, err
	}
	var env domain.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

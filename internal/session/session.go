package session

import (
	"crypto/rsa"
	"fmt"
	"net"
	"sync"

	"parley/internal/crypto"
	"parley/internal/domain"
	"parley/internal/wire"
)

// Session is one live connection.
type Session struct {
	conn     net.Conn
	handle   domain.Handle
	addr     string
	own      *rsa.PrivateKey
	peer     *rsa.PublicKey
	maxFrame uint32

	closeOnce sync.Once
	closeErr  error
}

// New wraps conn. own is the local private key used to open inbound
// envelopes.
func New(conn net.Conn, own *rsa.PrivateKey, maxFrame uint32) *Session {
	return &Session{
		conn:     conn,
		handle:   domain.NewHandle(),
		addr:     conn.RemoteAddr().String(),
		own:      own,
		maxFrame: maxFrame,
	}
}

// Handle returns the stable identity of this connection.
func (s *Session) Handle() domain.Handle { return s.handle }

// Addr returns the peer's remote address in host:port form.
func (s *Session) Addr() string { return s.addr }

// Ready reports whether the handshake has delivered the peer's public key.
func (s *Session) Ready() bool { return s.peer != nil }

// SendHello writes the unencrypted key-exchange envelope. It is the only
// record on the wire that is not sealed: the peer's key is not known yet.
func (s *Session) SendHello(publicPEM string) error {
	return wire.WriteEnvelope(s.conn, domain.Envelope{Cipher: []byte(publicPEM)}, s.maxFrame)
}

// Send seals plaintext under the peer's public key and writes one record.
// Calling Send before the handshake completes is a programming error and
// reports domain.ErrNotReady.
func (s *Session) Send(plaintext string) error {
	if s.peer == nil {
		return fmt.Errorf("send to %s: %w", s.addr, domain.ErrNotReady)
	}
	payload, err := crypto.Seal([]byte(plaintext), s.peer)
	if err != nil {
		return err
	}
	return wire.WriteEnvelope(s.conn, domain.Wrap(payload), s.maxFrame)
}

// ReadEnvelope reads one framed record from the transport. It blocks, so it
// belongs on the connection's reader goroutine, never on the event loop.
func (s *Session) ReadEnvelope() (domain.Envelope, error) {
	return wire.ReadEnvelope(s.conn, s.maxFrame)
}

// Open decrypts env with the local private key and returns the plaintext.
// The first successful open also imports the peer public key attached to the
// envelope; a first envelope without one is a protocol violation.
func (s *Session) Open(env domain.Envelope) (string, error) {
	plaintext, err := crypto.Open(env.Payload(), s.own)
	if err != nil {
		return "", err
	}
	if s.peer == nil {
		if env.PublicKey == "" {
			return "", fmt.Errorf("handshake envelope without key: %w", domain.ErrMalformedKey)
		}
		pub, err := crypto.ImportPublicKey(env.PublicKey)
		if err != nil {
			return "", err
		}
		s.peer = pub
	}
	return string(plaintext), nil
}

// Close shuts the transport down. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

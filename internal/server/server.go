package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"parley/internal/config"
	"parley/internal/crypto"
	"parley/internal/domain"
	"parley/internal/metrics"
	"parley/internal/room"
	"parley/internal/session"
)

type eventKind int

const (
	evAccept eventKind = iota
	evFrame
	evClosed
)

// event is one unit of work for the run loop.
type event struct {
	kind eventKind
	sess *session.Session
	env  domain.Envelope
}

// Server owns the listener, the live sessions and the room registry.
type Server struct {
	cfg    *config.Config
	log    zerolog.Logger
	keys   *crypto.KeyPair
	pubPEM string

	ln       net.Listener
	sessions map[domain.Handle]*session.Session
	rooms    *room.Registry

	events chan event
	quit   chan struct{}
	done   chan struct{}

	stopOnce sync.Once
}

// New generates the process-lifetime key pair and prepares a server. No
// sockets are opened until Start.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	keys, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	pubPEM, err := keys.PublicPEM()
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:      cfg,
		log:      logger,
		keys:     keys,
		pubPEM:   pubPEM,
		sessions: make(map[domain.Handle]*session.Session),
		rooms:    room.NewRegistry(),
		events:   make(chan event, 64),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start binds the listener and launches the accept and run loops.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}
	s.ln = ln
	s.log.Info().Str("addr", ln.Addr().String()).Msg("server started")

	if s.cfg.MetricsAddr != "" {
		go s.serveMetrics()
	}
	go s.acceptLoop()
	go s.run()
	return nil
}

// Addr returns the bound listen address. Valid after Start.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Shutdown()
	return nil
}

// Shutdown stops accepting, terminates the run loop and closes every live
// session. Safe to call more than once.
func (s *Server) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.quit)
		if s.ln != nil {
			_ = s.ln.Close()
		}
	})
	<-s.done
}

func (s *Server) serveMetrics() {
	s.log.Info().Str("addr", s.cfg.MetricsAddr).Msg("metrics listening")
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	if err := http.ListenAndServe(s.cfg.MetricsAddr, mux); err != nil {
		s.log.Error().Err(err).Msg("metrics server stopped")
	}
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.quit:
			default:
				s.log.Error().Err(err).Msg("accept failed")
			}
			return
		}
		sess := session.New(conn, s.keys.Private, s.cfg.MaxFrame)
		if !s.deliver(event{kind: evAccept, sess: sess}) {
			_ = sess.Close()
			return
		}
	}
}

// readLoop pumps framed envelopes from one connection into the event
// channel. It exits on the first read error, reporting the close.
func (s *Server) readLoop(sess *session.Session) {
	for {
		env, err := sess.ReadEnvelope()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.log.Debug().Err(err).Str("peer", sess.Addr()).Msg("read failed")
			}
			s.deliver(event{kind: evClosed, sess: sess})
			return
		}
		if !s.deliver(event{kind: evFrame, sess: sess, env: env}) {
			return
		}
	}
}

func (s *Server) deliver(ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.quit:
		return false
	}
}

// run is the reactor: the only goroutine that touches sessions and rooms.
func (s *Server) run() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			for _, sess := range s.sessions {
				_ = sess.Close()
			}
			return
		case ev := <-s.events:
			switch ev.kind {
			case evAccept:
				s.handleAccept(ev.sess)
			case evFrame:
				s.handleFrame(ev.sess, ev.env)
			case evClosed:
				s.disconnect(ev.sess)
			}
		}
	}
}

func (s *Server) handleAccept(sess *session.Session) {
	s.sessions[sess.Handle()] = sess
	metrics.ConnectionsAccepted.Inc()
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.log.Info().Str("peer", sess.Addr()).Msg("client connected")

	// Handshake step one: our public key, in the clear inside a placeholder
	// envelope. Nothing can be sealed until the client answers with its key.
	if err := sess.SendHello(s.pubPEM); err != nil {
		s.log.Warn().Err(err).Str("peer", sess.Addr()).Msg("hello failed")
		s.disconnect(sess)
		return
	}
	go s.readLoop(sess)
}

func (s *Server) handleFrame(sess *session.Session, env domain.Envelope) {
	if _, known := s.sessions[sess.Handle()]; !known {
		// Frame raced a disconnect; the session is already gone.
		return
	}

	firstFrame := !sess.Ready()
	plaintext, err := sess.Open(env)
	if err != nil {
		// Undecryptable or malformed traffic is fatal for this session only.
		metrics.ProtocolViolations.Inc()
		s.log.Warn().Err(err).Str("peer", sess.Addr()).Msg("protocol violation")
		s.disconnect(sess)
		return
	}
	if firstFrame {
		s.log.Info().Str("peer", sess.Addr()).Msg("client public key set")
	}
	s.log.Debug().Int("bytes", len(plaintext)).Str("peer", sess.Addr()).Msg("received")

	s.dispatch(sess, plaintext)
}

// disconnect tears a session down: out of the watch set, out of its room
// with no notifications (the transport is already unusable), transport
// closed. Idempotent per handle.
func (s *Server) disconnect(sess *session.Session) {
	h := sess.Handle()
	if _, ok := s.sessions[h]; !ok {
		// Already dropped; sweep any membership acquired since.
		if r, ok := s.rooms.FindContaining(h); ok {
			r.Purge(h)
		}
		return
	}
	delete(s.sessions, h)
	if r, ok := s.rooms.FindContaining(h); ok {
		r.Purge(h)
	}
	_ = sess.Close()
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.log.Info().Str("peer", sess.Addr()).Msg("client disconnected")
}

// dropFailed disconnects every member whose send failed during a room
// operation.
func (s *Server) dropFailed(failed []room.Member) {
	for _, m := range failed {
		if sess, ok := s.sessions[m.Handle()]; ok {
			s.disconnect(sess)
		} else if r, ok := s.rooms.FindContaining(m.Handle()); ok {
			r.Purge(m.Handle())
		}
	}
}

package server_test

import (
	"crypto/rsa"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"parley/internal/config"
	"parley/internal/crypto"
	"parley/internal/domain"
	"parley/internal/server"
	"parley/internal/wire"
)

const ack = "<ACK>"

func startServer(t *testing.T) *server.Server {
	t.Helper()
	cfg := &config.Config{
		Host:     "127.0.0.1",
		Port:     0,
		MaxFrame: wire.DefaultMaxFrame,
		AckToken: ack,
	}
	srv, err := server.New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("server.Start: %v", err)
	}
	t.Cleanup(srv.Shutdown)
	return srv
}

// testPeer is a raw protocol client: dial, handshake, sealed send/recv.
type testPeer struct {
	t         *testing.T
	conn      net.Conn
	keys      *crypto.KeyPair
	serverPub *rsa.PublicKey
}

func dialPeer(t *testing.T, srv *server.Server) *testPeer {
	t.Helper()
	conn, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	hello, err := wire.ReadEnvelope(conn, wire.DefaultMaxFrame)
	if err != nil {
		t.Fatalf("read hello: %v", err)
	}
	serverPub, err := crypto.ImportPublicKey(string(hello.Cipher))
	if err != nil {
		t.Fatalf("import server key: %v", err)
	}
	keys, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	p := &testPeer{t: t, conn: conn, keys: keys, serverPub: serverPub}

	payload, err := crypto.Seal([]byte("HANDSHAKE"), serverPub)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	env := domain.Wrap(payload)
	env.PublicKey, err = keys.PublicPEM()
	if err != nil {
		t.Fatalf("PublicPEM: %v", err)
	}
	if err := wire.WriteEnvelope(conn, env, wire.DefaultMaxFrame); err != nil {
		t.Fatalf("send handshake: %v", err)
	}

	// The greeting is not a command, so the server answers it with the help
	// text. Draining it here also confirms the handshake completed.
	if got := p.recv(); !strings.Contains(got, "Parley Chat Server") {
		t.Fatalf("first reply = %q, want help text", got)
	}
	return p
}

func (p *testPeer) send(text string) {
	p.t.Helper()
	payload, err := crypto.Seal([]byte(text), p.serverPub)
	if err != nil {
		p.t.Fatalf("Seal: %v", err)
	}
	if err := wire.WriteEnvelope(p.conn, domain.Wrap(payload), wire.DefaultMaxFrame); err != nil {
		p.t.Fatalf("send %q: %v", text, err)
	}
}

func (p *testPeer) recv() string {
	p.t.Helper()
	text, err := p.tryRecv()
	if err != nil {
		p.t.Fatalf("recv: %v", err)
	}
	return text
}

func (p *testPeer) tryRecv() (string, error) {
	env, err := wire.ReadEnvelope(p.conn, wire.DefaultMaxFrame)
	if err != nil {
		return "", err
	}
	plaintext, err := crypto.Open(env.Payload(), p.keys.Private)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func TestJoinAndBroadcast(t *testing.T) {
	srv := startServer(t)
	alice := dialPeer(t, srv)
	bob := dialPeer(t, srv)

	alice.send("/join lobby")
	if got := alice.recv(); got != "Joined room 'lobby' (0 client(s) present)" {
		t.Fatalf("alice join ack = %q", got)
	}

	bob.send("/join lobby")
	if got := bob.recv(); got != "Joined room 'lobby' (1 client(s) present)" {
		t.Fatalf("bob join ack = %q", got)
	}
	if got := alice.recv(); !strings.HasSuffix(got, "has joined room 'lobby'") {
		t.Fatalf("alice join notice = %q", got)
	}

	alice.send("hi")
	if got := alice.recv(); got != ack {
		t.Fatalf("sender got %q, want ack sentinel", got)
	}
	got := bob.recv()
	if !strings.HasPrefix(got, "[") || !strings.HasSuffix(got, "] hi") {
		t.Fatalf("bob got %q, want sender-tagged hi", got)
	}
}

func TestRejoinSameRoom(t *testing.T) {
	srv := startServer(t)
	alice := dialPeer(t, srv)

	alice.send("/join lobby")
	alice.recv()
	alice.send("/join lobby")
	if got := alice.recv(); got != "You are already in room 'lobby'" {
		t.Fatalf("rejoin reply = %q", got)
	}
}

func TestPasswordGate(t *testing.T) {
	srv := startServer(t)
	alice := dialPeer(t, srv)
	bob := dialPeer(t, srv)

	alice.send("/join vault hunter2")
	if got := alice.recv(); got != "Joined protected room 'vault' (0 client(s) present)" {
		t.Fatalf("creator ack = %q", got)
	}

	bob.send("/join vault")
	if got := bob.recv(); got != "This room requires a key to enter" {
		t.Fatalf("missing key reply = %q", got)
	}
	bob.send("/join vault letmein")
	if got := bob.recv(); got != "The key supplied was incorrect" {
		t.Fatalf("wrong key reply = %q", got)
	}

	// Denied joins must not have changed membership.
	bob.send("/list")
	if got := bob.recv(); got != "Room\t\tClients\n*vault\t\t1" {
		t.Fatalf("listing = %q", got)
	}

	bob.send("/join vault hunter2")
	if got := bob.recv(); got != "Joined protected room 'vault' (1 client(s) present)" {
		t.Fatalf("correct key ack = %q", got)
	}
	if got := alice.recv(); !strings.HasSuffix(got, "has joined room 'vault'") {
		t.Fatalf("alice join notice = %q", got)
	}
}

func TestChatWithoutRoomGetsHelp(t *testing.T) {
	srv := startServer(t)
	alice := dialPeer(t, srv)

	alice.send("anyone here?")
	if got := alice.recv(); !strings.Contains(got, "/join <name> <key>") {
		t.Fatalf("reply = %q, want help text", got)
	}
	alice.send("/help")
	if got := alice.recv(); !strings.Contains(got, "Lists all rooms") {
		t.Fatalf("reply = %q, want help text", got)
	}
}

func TestListSortedAcrossRoomSwitch(t *testing.T) {
	srv := startServer(t)
	alice := dialPeer(t, srv)

	alice.send("/join zebra")
	alice.recv()
	alice.send("/join alpha")
	if got := alice.recv(); got != "Left room 'zebra'" {
		t.Fatalf("leave ack = %q", got)
	}
	if got := alice.recv(); got != "Joined room 'alpha' (0 client(s) present)" {
		t.Fatalf("join ack = %q", got)
	}

	// Name-sorted regardless of creation order; the empty room stays listed.
	alice.send("/list")
	if got := alice.recv(); got != "Room\t\tClients\nalpha\t\t1\nzebra\t\t0" {
		t.Fatalf("listing = %q", got)
	}
}

func TestDisconnectCleanup(t *testing.T) {
	srv := startServer(t)
	alice := dialPeer(t, srv)
	bob := dialPeer(t, srv)

	alice.send("/join lobby")
	alice.recv()
	bob.send("/join lobby")
	bob.recv()
	alice.recv()

	alice.conn.Close()

	// The purge is silent; poll the listing until the server has processed
	// the close.
	deadline := time.Now().Add(3 * time.Second)
	for {
		bob.send("/list")
		if got := bob.recv(); got == "Room\t\tClients\nlobby\t\t1" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("departed session still listed")
		}
		time.Sleep(20 * time.Millisecond)
	}

	// Broadcasts no longer reference the departed session.
	bob.send("hi")
	if got := bob.recv(); got != ack {
		t.Fatalf("bob got %q, want ack sentinel", got)
	}
}

func TestUndecryptableTrafficDropsOnlyThatSession(t *testing.T) {
	srv := startServer(t)
	mallory := dialPeer(t, srv)
	bob := dialPeer(t, srv)

	junk := domain.Envelope{Cipher: []byte("garbage"), WrappedKey: []byte("junk")}
	if err := wire.WriteEnvelope(mallory.conn, junk, wire.DefaultMaxFrame); err != nil {
		t.Fatalf("send junk: %v", err)
	}
	if _, err := mallory.tryRecv(); err == nil {
		t.Fatal("expected the server to drop the session")
	}

	// The other session is untouched.
	bob.send("/list")
	if got := bob.recv(); got != "Room\t\tClients" {
		t.Fatalf("listing = %q", got)
	}
}

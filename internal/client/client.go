package client

import (
	"bufio"
	"crypto/rsa"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"parley/internal/config"
	"parley/internal/crypto"
	"parley/internal/domain"
	"parley/internal/wire"
)

// greeting is the plaintext of the first sealed client envelope. The content
// is immaterial; the envelope exists to deliver the client's public key.
const greeting = "HANDSHAKE"

// Client is one connection to a chat server.
type Client struct {
	conn      net.Conn
	keys      *crypto.KeyPair
	serverPub *rsa.PublicKey
	ack       string
	maxFrame  uint32
	log       zerolog.Logger

	// In and Out default to the terminal and are injectable for tests.
	In  io.Reader
	Out io.Writer
}

// Dial connects to addr.
func Dial(addr string, cfg *config.Config, logger zerolog.Logger) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	logger.Info().Str("addr", addr).Msg("connected")
	return &Client{
		conn:     conn,
		ack:      cfg.AckToken,
		maxFrame: cfg.MaxFrame,
		log:      logger,
		In:       os.Stdin,
		Out:      os.Stdout,
	}, nil
}

// Handshake receives the server's public key, generates our own key pair and
// answers with the first sealed envelope carrying our key in cleartext.
func (c *Client) Handshake() error {
	hello, err := wire.ReadEnvelope(c.conn, c.maxFrame)
	if err != nil {
		return fmt.Errorf("read server hello: %w", err)
	}
	pub, err := crypto.ImportPublicKey(string(hello.Cipher))
	if err != nil {
		return fmt.Errorf("server hello: %w", err)
	}
	c.serverPub = pub

	keys, err := crypto.GenerateKeyPair()
	if err != nil {
		return err
	}
	c.keys = keys

	payload, err := crypto.Seal([]byte(greeting), c.serverPub)
	if err != nil {
		return err
	}
	pemStr, err := keys.PublicPEM()
	if err != nil {
		return err
	}
	env := domain.Wrap(payload)
	env.PublicKey = pemStr
	if err := wire.WriteEnvelope(c.conn, env, c.maxFrame); err != nil {
		return fmt.Errorf("send handshake: %w", err)
	}
	c.log.Debug().Msg("handshake sent")
	return nil
}

// Run pumps input lines to the server and server messages to the output
// until either side ends. A decryption failure or a server disconnect is
// fatal and returned; input reaching EOF ends the session cleanly.
func (c *Client) Run() error {
	errc := make(chan error, 2)
	go c.readLoop(errc)
	go c.writeLoop(errc)

	fmt.Fprint(c.Out, "> ")
	err := <-errc
	_ = c.conn.Close()
	return err
}

func (c *Client) readLoop(errc chan<- error) {
	for {
		env, err := wire.ReadEnvelope(c.conn, c.maxFrame)
		if err != nil {
			errc <- fmt.Errorf("server disconnected: %w", err)
			return
		}
		plaintext, err := crypto.Open(env.Payload(), c.keys.Private)
		if err != nil {
			errc <- err
			return
		}
		if text := string(plaintext); text != c.ack {
			fmt.Fprintln(c.Out, text)
		}
		fmt.Fprint(c.Out, "> ")
	}
}

func (c *Client) writeLoop(errc chan<- error) {
	scanner := bufio.NewScanner(c.In)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		payload, err := crypto.Seal([]byte(line), c.serverPub)
		if err != nil {
			errc <- err
			return
		}
		if err := wire.WriteEnvelope(c.conn, domain.Wrap(payload), c.maxFrame); err != nil {
			errc <- err
			return
		}
	}
	errc <- scanner.Err()
}

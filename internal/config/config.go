package config

import (
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"parley/internal/wire"
)

// Config holds the settings shared by the server and client commands.
type Config struct {
	// Host and Port form the listen (or dial) address.
	Host string
	Port int

	// MaxFrame bounds a single wire record in bytes.
	MaxFrame uint32

	// AckToken is the sentinel returned to a message's own sender instead of
	// echoing their text.
	AckToken string

	// MetricsAddr, when non-empty, serves Prometheus metrics over HTTP.
	MetricsAddr string
}

// Load reads configuration from environment variables, pulling in a .env
// file first if one is present.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Host:        getEnv("PARLEY_HOST", "127.0.0.1"),
		Port:        getEnvInt("PARLEY_PORT", 9000),
		MaxFrame:    uint32(getEnvInt("PARLEY_MAX_FRAME", wire.DefaultMaxFrame)),
		AckToken:    getEnv("PARLEY_ACK_TOKEN", "<ACK>"),
		MetricsAddr: os.Getenv("PARLEY_METRICS_ADDR"),
	}
	return sanitize(cfg)
}

// Addr returns the host:port pair as a dial/listen string.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func sanitize(cfg *Config) *Config {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		cfg.Port = 9000
	}
	// A frame must at least fit the handshake PEM plus the RSA-wrapped key.
	// The upper bound catches negative values wrapped through the cast.
	if cfg.MaxFrame < 2048 || cfg.MaxFrame > 1<<24 {
		cfg.MaxFrame = wire.DefaultMaxFrame
	}
	if cfg.AckToken == "" {
		cfg.AckToken = "<ACK>"
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

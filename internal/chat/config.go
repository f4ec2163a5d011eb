package chat

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	defaultMaxFrame = 8192

	// cipherOverhead is the per-frame cost of the nonce and GCM tag.
	cipherOverhead = nonceSize + 16
)

// Config carries everything the server and cipher layer need at startup.
// Values come from the environment (CHAT_ prefix); the addresses may be
// overridden by flags in cmd/server.
type Config struct {
	Addr         string        `envconfig:"ADDR" default:":5000"`
	MetricsAddr  string        `envconfig:"METRICS_ADDR" default:":9090"`
	SharedSecret string        `envconfig:"SHARED_SECRET"`
	MaxUsername  int           `envconfig:"MAX_USERNAME" default:"16"`
	MaxBody      int           `envconfig:"MAX_BODY" default:"512"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"5s"`
	HistoryLimit int           `envconfig:"HISTORY_LIMIT" default:"256"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("chat", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the server cannot safely run with.
// These are fatal at startup, unlike any per-connection error.
func (c Config) Validate() error {
	if c.SharedSecret == "" {
		return errors.New("config: shared secret must not be empty")
	}
	if c.MaxUsername <= 0 {
		return errors.New("config: max username length must be positive")
	}
	if c.MaxBody <= 0 {
		return errors.New("config: max body length must be positive")
	}
	if c.WriteTimeout <= 0 {
		return errors.New("config: write timeout must be positive")
	}
	return nil
}

// MaxFrame bounds the ciphertext length the decoder will accept: the
// largest possible JSON payload plus the cipher overhead, with slack for
// field names and escaping.
func (c Config) MaxFrame() int {
	n := c.MaxBody + c.MaxUsername + 128 + cipherOverhead
	if n < defaultMaxFrame {
		n = defaultMaxFrame
	}
	return n
}

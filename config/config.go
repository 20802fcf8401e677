// Package config loads the gateway's own session parameters, distinct
// from any higher-level strategy scheduler's configuration, which
// stays out of scope. A typed loader backed by a TOML file with .env
// overrides for local development, with environment variables taking
// final precedence.
package config

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ed25519"
)

// TransportMode selects which Transport the gateway hands callers.
type TransportMode string

const (
	ModeREST             TransportMode = "rest"
	ModeFIX              TransportMode = "fix"
	ModeFIXWithFallback  TransportMode = "fix-with-rest-fallback"
)

// Session holds the FIX session parameters, with the documented
// defaults pre-filled by Default().
type Session struct {
	Host              string        `toml:"host"`
	Port              int           `toml:"port"`
	SenderCompID      string        `toml:"sender_comp_id"`
	TargetCompID      string        `toml:"target_comp_id"`
	BeginString       string        `toml:"begin_string"`
	HeartbeatInterval time.Duration `toml:"heartbeat_interval"`
	ResetOnLogon      bool          `toml:"reset_on_logon"`
	ReconnectInterval time.Duration `toml:"reconnect_interval"`
	TLSEnabled        bool          `toml:"tls_enabled"`
	OrderTimeout      time.Duration `toml:"order_timeout"`
	TransportMode     TransportMode `toml:"transport_mode"`
	MaxCustomTag      int           `toml:"max_custom_tag"`
	ScratchDir        string        `toml:"scratch_dir"`

	// RESTBaseURL and RESTBearerKeyPath configure the HTTP fallback
	// leg (rest.Transport); both are optional since a caller may run
	// FIX-only.
	RESTBaseURL      string `toml:"rest_base_url"`
	RESTBearerKeyPath string `toml:"rest_bearer_key_path"`

	// ClientKeyPath, when set, points at a PEM-encoded PKCS#8 Ed25519
	// private key for mTLS client authentication (distinct from the REST
	// leg's bearer key). Load only checks that the key parses and clears
	// the path when it does not; the FIX session settings built in
	// package fix do not pass this key to the engine. Optional: a gateway
	// running REST-only need not set it.
	ClientKeyPath string `toml:"client_key_path"`
}

// Default returns the documented startup defaults.
func Default() Session {
	return Session{
		Host:              "fix.elections.kalshi.com",
		Port:              8228,
		TargetCompID:      "KalshiNR",
		BeginString:       "FIXT.1.1",
		HeartbeatInterval: 30 * time.Second,
		ResetOnLogon:      true,
		ReconnectInterval: 5 * time.Second,
		TLSEnabled:        true,
		OrderTimeout:      5 * time.Second,
		TransportMode:     ModeREST,
		MaxCustomTag:      21009,
		ScratchDir:        os.TempDir() + "/kalshi-fix",
	}
}

// Load reads a TOML session file, applies .env overrides (via
// godotenv, loaded best-effort — a missing .env is not an error), and
// falls back to rest mode with a warning when SenderCompID is missing.
func Load(tomlPath string) (Session, error) {
	cfg := Default()

	if tomlPath != "" {
		if _, err := toml.DecodeFile(tomlPath, &cfg); err != nil && !os.IsNotExist(err) {
			return cfg, errors.Wrapf(err, "decode session config %s", tomlPath)
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Debug("no .env overrides loaded")
	}
	applyEnvOverrides(&cfg)

	if cfg.ClientKeyPath != "" {
		if _, err := LoadClientKey(cfg.ClientKeyPath); err != nil {
			logrus.WithError(err).Warn("client_key_path configured but unreadable; continuing without mTLS client auth")
			cfg.ClientKeyPath = ""
		}
	}

	if cfg.SenderCompID == "" {
		logrus.Warn("sender_comp_id not configured; falling back to rest transport mode")
		cfg.TransportMode = ModeREST
	}
	if cfg.Port == 8230 {
		cfg.TargetCompID = "KalshiRT"
	}
	return cfg, nil
}

// LoadClientKey reads and parses a PEM-encoded PKCS#8 Ed25519 private
// key for mTLS client authentication, returning an error for any
// non-Ed25519 key (such as an RSA or EC key).
func LoadClientKey(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read client key %s", path)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.Errorf("no PEM block found in %s", path)
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrapf(err, "parse PKCS8 key %s", path)
	}
	edKey, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.Errorf("client key %s is not Ed25519", path)
	}
	return edKey, nil
}

func applyEnvOverrides(cfg *Session) {
	if v := os.Getenv("KALSHI_FIX_SENDER_COMP_ID"); v != "" {
		cfg.SenderCompID = v
	}
	if v := os.Getenv("KALSHI_FIX_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("KALSHI_REST_BASE_URL"); v != "" {
		cfg.RESTBaseURL = v
	}
	if v := os.Getenv("KALSHI_REST_BEARER_KEY_PATH"); v != "" {
		cfg.RESTBearerKeyPath = v
	}
}

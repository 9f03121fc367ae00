// Package config loads process configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full process configuration.
type Config struct {
	// ListenAddr is the HTTP bind address.
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8000"`

	// SambaHost is the directory server URL, e.g.
	// ldap://dc1.example.com:389. Either it or SambaDomain is required.
	SambaHost string `env:"SAMBA_HOST"`

	// SambaDomain enables SRV discovery instead of a fixed host.
	SambaDomain string `env:"SAMBA_DOMAIN"`

	UseTLS             bool `env:"SAMBA_USE_TLS" envDefault:"true"`
	InsecureSkipVerify bool `env:"SAMBA_INSECURE_SKIP_VERIFY" envDefault:"false"`

	// SecretKey signs token envelopes and keys the subject cipher. An
	// empty value is accepted but leaves tokens forgeable; set it in any
	// real deployment.
	SecretKey string `env:"SECRET_KEY" envDefault:""`

	// SecretSalt is the cipher IV; it must be exactly 16 characters when
	// set. Empty selects the built-in salt.
	SecretSalt string `env:"SECRET_SALT" envDefault:""`

	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"300s"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"86400s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in first when present; real environment
// variables win.
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if cfg.SambaHost == "" && cfg.SambaDomain == "" {
		return nil, fmt.Errorf("either SAMBA_HOST or SAMBA_DOMAIN must be set")
	}
	if cfg.SecretSalt != "" && len(cfg.SecretSalt) != 16 {
		return nil, fmt.Errorf("SECRET_SALT must be exactly 16 characters, got %d", len(cfg.SecretSalt))
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive")
	}

	return cfg, nil
}

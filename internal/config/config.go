package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// devSessionSecret is only used by LoadWithDefaults.
const devSessionSecret = "dev-secret-change-me"

// Config holds all application configuration.
type Config struct {
	Database  DatabaseConfig
	HTTP      HTTPConfig
	GRPC      GRPCConfig
	Session   SessionConfig
	Upload    UploadConfig
	Secrets   SecretsConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite3"` // sqlite3 (cgo) or sqlite (pure Go)
	Path   string `env:"DB_PATH" envDefault:"app.db"`
}

// HTTPConfig contains the browser-facing server settings.
type HTTPConfig struct {
	Address           string        `env:"HTTP_ADDRESS" envDefault:":8080"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
}

// GRPCConfig contains the health server settings. An empty address disables it.
type GRPCConfig struct {
	Address string `env:"GRPC_ADDRESS" envDefault:":50051"`
}

// SessionConfig contains session gate settings.
type SessionConfig struct {
	Secret       string        `env:"SESSION_SECRET"`
	TTL          time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	SecureCookie bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
}

// UploadConfig contains proof upload settings.
type UploadConfig struct {
	Dir      string `env:"UPLOAD_DIR" envDefault:"uploads"`
	MaxBytes int64  `env:"UPLOAD_MAX_BYTES" envDefault:"16777216"`
}

// SecretsConfig contains the optional key used to seal external-system
// secrets at rest. Without it they are stored in clear.
type SecretsConfig struct {
	CredentialKey string `env:"CREDENTIAL_KEY"` // base64, 16/24/32 bytes once decoded
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"INFO"`
}

// TelemetryConfig contains tracing settings. An empty endpoint disables tracing.
type TelemetryConfig struct {
	OTLPEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load loads configuration from environment variables with sensible defaults.
// SESSION_SECRET is mandatory.
func Load() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}
	if cfg.Session.Secret == "" {
		return nil, errors.New("SESSION_SECRET environment variable is not set; required for production")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but uses a fixed SESSION_SECRET when none is set.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}
	if cfg.Session.Secret == "" {
		cfg.Session.Secret = devSessionSecret
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Validate checks values env parsing cannot.
func (c *Config) Validate() error {
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", c.Upload.MaxBytes)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	if c.Upload.Dir == "" {
		return errors.New("UPLOAD_DIR must not be empty")
	}
	if _, err := c.CredentialKeyBytes(); err != nil {
		return err
	}
	return nil
}

// CredentialKeyBytes decodes CREDENTIAL_KEY. It returns nil when unset.
func (c *Config) CredentialKeyBytes() ([]byte, error) {
	if c.Secrets.CredentialKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.Secrets.CredentialKey)
	if err != nil {
		return nil, fmt.Errorf("CREDENTIAL_KEY is not valid base64: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	default:
		return nil, fmt.Errorf("CREDENTIAL_KEY must decode to 16, 24 or 32 bytes, got %d", len(key))
	}
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	sealing := "off"
	if c.Secrets.CredentialKey != "" {
		sealing = "on"
	}
	return fmt.Sprintf("Config{DB: %s (%s), HTTP: %s, gRPC: %s, Uploads: %s (max %d bytes), Session: *** (masked) ***, ttl %s, Sealing: %s, Log: %s}",
		c.Database.Path, c.Database.Driver, c.HTTP.Address, c.GRPC.Address, c.Upload.Dir, c.Upload.MaxBytes, c.Session.TTL, sealing, c.Log.Level)
}

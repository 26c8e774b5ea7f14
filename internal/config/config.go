package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// minSigningKeyBytes is the shortest session signing key accepted.
const minSigningKeyBytes = 16

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	StoreDriver       string        `mapstructure:"STORE_DRIVER"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32         `mapstructure:"DB_MIN_CONNS"`
	DBSchema          string        `mapstructure:"DB_SCHEMA"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS      float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int           `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit         string        `mapstructure:"BODY_LIMIT"`
	SessionSigningKey string        `mapstructure:"SESSION_SIGNING_KEY"`
	SessionTTL        time.Duration `mapstructure:"SESSION_TTL"`
	StaffEmailDomain  string        `mapstructure:"STAFF_EMAIL_DOMAIN"`
	SeedOnStart       bool          `mapstructure:"SEED_ON_START"`
}

var envKeys = []string{
	"PORT", "ENV", "STORE_DRIVER", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"DB_SCHEMA", "CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "BODY_LIMIT",
	"SESSION_SIGNING_KEY", "SESSION_TTL", "STAFF_EMAIL_DOMAIN", "SEED_ON_START",
}

// Load reads .env (when present) and the environment. It does not validate;
// call Validate before using the result.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORE_DRIVER", StoreMemory)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("STAFF_EMAIL_DOMAIN", "@curasync.com")
	v.SetDefault("SEED_ON_START", true)

	// Bind explicitly so Unmarshal sees variables that have no default.
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	// A missing .env file is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if origins := v.GetString("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	return cfg, nil
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects settings the server cannot run with: an unknown store
// driver, postgres without DATABASE_URL, a malformed signing key, or a
// missing signing key in production.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is %q", StorePostgres)
		}
		if c.DBSchema == "" {
			return fmt.Errorf("DB_SCHEMA must not be empty when STORE_DRIVER is %q", StorePostgres)
		}
		if c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMemory, StorePostgres, c.StoreDriver)
	}

	if c.IsProduction() && c.SessionSigningKey == "" {
		return fmt.Errorf("SESSION_SIGNING_KEY is required in production")
	}
	if c.SessionSigningKey != "" {
		key, err := hex.DecodeString(c.SessionSigningKey)
		if err != nil {
			return fmt.Errorf("SESSION_SIGNING_KEY is not valid hex: %w", err)
		}
		if len(key) < minSigningKeyBytes {
			return fmt.Errorf("SESSION_SIGNING_KEY must be at least %d bytes, got %d", minSigningKeyBytes, len(key))
		}
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// SigningKey returns the decoded session signing key. When none is
// configured a random 32-byte key is generated, so sessions do not survive
// a restart.
func (c *Config) SigningKey() ([]byte, error) {
	if c.SessionSigningKey != "" {
		return hex.DecodeString(c.SessionSigningKey)
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	return key, nil
}

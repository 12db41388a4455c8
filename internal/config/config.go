// Package config loads service settings from the environment (.env is
// honored for local development) plus an optional YAML readiness policy.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the service.
type Config struct {
	Port        string `validate:"required,numeric"`
	Environment string `validate:"oneof=development staging production"`
	LogLevel    string `validate:"oneof=debug info warn error"`
	JWTSecret   string `validate:"required"`

	DB        DBConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Snapshot  SnapshotConfig
	Policy    PolicyFile
}

// DBConfig holds the Postgres pool settings.
type DBConfig struct {
	URL      string `validate:"required"`
	MaxConns int32  `validate:"gte=1"`
	MinConns int32  `validate:"gte=0,ltefield=MaxConns"`
}

// StorageConfig selects where readiness snapshots are archived.
type StorageConfig struct {
	Driver  string `validate:"oneof=local r2"`
	Dir     string `validate:"required_if=Driver local"`
	BaseURL string

	R2AccountID string `validate:"required_if=Driver r2"`
	R2AccessKey string `validate:"required_if=Driver r2"`
	R2SecretKey string `validate:"required_if=Driver r2"`
	R2Bucket    string `validate:"required_if=Driver r2"`
	R2PublicURL string
}

// RateLimitConfig is the per-client token bucket on readiness routes.
type RateLimitConfig struct {
	RPS   float64 `validate:"gt=0"`
	Burst int     `validate:"gte=1"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `validate:"min=1"`
}

// SnapshotConfig drives the background snapshot job.
type SnapshotConfig struct {
	Enabled  bool
	Interval time.Duration
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	// .env is optional; real deployments set the variables directly.
	_ = godotenv.Load()

	env := envReader{}
	cfg := &Config{
		Port:        env.str("PORT", "8080"),
		Environment: env.str("ENVIRONMENT", "development"),
		LogLevel:    env.str("LOG_LEVEL", "info"),
		JWTSecret:   env.str("JWT_SECRET", ""),
		DB: DBConfig{
			URL:      env.str("DATABASE_URL", ""),
			MaxConns: int32(env.integer("DATABASE_MAX_CONNS", 10)),
			MinConns: int32(env.integer("DATABASE_MIN_CONNS", 2)),
		},
		Storage: StorageConfig{
			Driver:      env.str("STORAGE_DRIVER", "local"),
			Dir:         env.str("UPLOAD_DIR", "./uploads"),
			BaseURL:     env.str("UPLOAD_BASE_URL", "http://localhost:8080/files"),
			R2AccountID: env.str("R2_ACCOUNT_ID", ""),
			R2AccessKey: env.str("R2_ACCESS_KEY", ""),
			R2SecretKey: env.str("R2_SECRET_KEY", ""),
			R2Bucket:    env.str("R2_BUCKET", ""),
			R2PublicURL: env.str("R2_PUBLIC_URL", ""),
		},
		RateLimit: RateLimitConfig{
			RPS:   env.float("RATE_LIMIT_RPS", 5),
			Burst: env.integer("RATE_LIMIT_BURST", 20),
		},
		CORS: CORSConfig{
			AllowedOrigins: env.list("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Snapshot: SnapshotConfig{
			Enabled:  env.boolean("SNAPSHOT_ENABLED", false),
			Interval: env.duration("SNAPSHOT_INTERVAL", 24*time.Hour),
		},
	}
	if env.err != nil {
		return nil, env.err
	}

	if path := os.Getenv("READINESS_POLICY_FILE"); path != "" {
		policy, err := LoadPolicyFile(path)
		if err != nil {
			return nil, err
		}
		cfg.Policy = *policy
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate runs struct validation plus the cross-field checks.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if cfg.Snapshot.Enabled && cfg.Snapshot.Interval < time.Minute {
		return fmt.Errorf("SNAPSHOT_INTERVAL must be at least 1m, got %s", cfg.Snapshot.Interval)
	}
	return validatePolicy(&cfg.Policy)
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ── env helpers ──────────────────────────────────────────────────

// envReader keeps the first parse error so Load can report it once.
type envReader struct {
	err error
}

func (r *envReader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *envReader) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return n
}

func (r *envReader) float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return f
}

func (r *envReader) boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return b
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return d
}

func (r *envReader) list(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (r *envReader) fail(key, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
}

// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// minSessionSecretLen is the shortest HS256 key we accept.
const minSessionSecretLen = 32

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// StorageBackend selects the store implementation: "postgres" (default)
	// or "memory". The memory backend loses all data on restart.
	StorageBackend string

	// DatabaseURL is the Postgres connection string.
	// Required when StorageBackend is "postgres".
	DatabaseURL string

	// MigrateOnStart applies pending goose migrations before serving.
	MigrateOnStart bool

	// Session configures the login cookie and its signing.
	Session SessionConfig

	// BcryptCost is the work factor for password hashes. Defaults to 10.
	BcryptCost int

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// MaxBodyBytes caps the size of request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// TrustProxyHeaders takes the client address from X-Forwarded-For /
	// X-Real-IP. Enable it only behind a proxy that overwrites those headers;
	// otherwise clients can pick their own address. Defaults to false.
	TrustProxyHeaders bool

	// AuthRateLimit and AuthRateBurst throttle /login and /signup per client IP.
	AuthRateLimit float64
	AuthRateBurst int
}

// SessionConfig holds the cookie session settings.
type SessionConfig struct {
	// Secret signs session tokens. Required, at least 32 bytes.
	Secret string

	// TTL is how long a login lasts. Defaults to two weeks.
	TTL time.Duration

	// CookieName defaults to "session".
	CookieName string

	// CookieSecure sets the Secure attribute. Defaults to true; disable it
	// only for plain-HTTP local development.
	CookieSecure bool
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none are
// given) into the process environment. Variables that are already set are
// left untouched and missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config.LoadDotEnv: %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing every required variable that is not set and every
// value that could not be parsed.
func Load() (Config, error) {
	var problems []string

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", StoragePostgres)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		Session: SessionConfig{
			Secret:     os.Getenv("SESSION_SECRET"),
			CookieName: getEnv("SESSION_COOKIE_NAME", "session"),
		},
	}

	p := parser{problems: &problems}
	cfg.MigrateOnStart = p.boolean("MIGRATE_ON_START", true)
	cfg.Session.TTL = p.duration("SESSION_TTL", 14*24*time.Hour)
	cfg.Session.CookieSecure = p.boolean("SESSION_COOKIE_SECURE", true)
	cfg.BcryptCost = p.integer("BCRYPT_COST", 10)
	cfg.MaxBodyBytes = int64(p.integer("MAX_BODY_BYTES", 1<<20))
	cfg.TrustProxyHeaders = p.boolean("TRUST_PROXY_HEADERS", false)
	cfg.AuthRateLimit = p.float("AUTH_RATE_LIMIT", 1)
	cfg.AuthRateBurst = p.integer("AUTH_RATE_BURST", 5)

	var missing []string
	switch cfg.StorageBackend {
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StorageMemory:
	default:
		problems = append(problems, fmt.Sprintf("STORAGE_BACKEND: unknown backend %q", cfg.StorageBackend))
	}
	if cfg.Session.Secret == "" {
		missing = append(missing, "SESSION_SECRET")
	} else if len(cfg.Session.Secret) < minSessionSecretLen {
		problems = append(problems, fmt.Sprintf("SESSION_SECRET: must be at least %d bytes", minSessionSecretLen))
	}
	if cfg.Session.TTL <= 0 {
		problems = append(problems, "SESSION_TTL: must be positive")
	}

	if len(missing) > 0 {
		problems = append([]string{"required environment variables not set: " + strings.Join(missing, ", ")}, problems...)
	}
	if len(problems) > 0 {
		return Config{}, errors.New(strings.Join(problems, "; "))
	}

	return cfg, nil
}

// parser collects parse failures instead of stopping at the first one.
type parser struct {
	problems *[]string
}

func (p parser) fail(key string, err error) {
	*p.problems = append(*p.problems, fmt.Sprintf("%s: %v", key, err))
}

func (p parser) boolean(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return b
}

func (p parser) integer(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return n
}

func (p parser) float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return f
}

func (p parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return d
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

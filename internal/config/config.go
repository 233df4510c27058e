// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the configuration for the resolve service and its catalog
// sources.
type Config struct {
	ListenAddr string // HTTP listen address (default ":8080")
	LogLevel   string // log level: debug, info, warn, error (default "info")
	Env        string // environment: "development" (default) or "production"

	// Catalog sources. Every configured source is searched, in this order.
	CatalogFile           string // YAML definition, local path or s3:// URI
	CatalogReloadSchedule string // cron schedule for reloading CatalogFile (optional)
	MetaDBPath            string // SQLite metastore file
	MetaRoot              string // metastore root to serve (default: all roots)
	DuckDBPath            string // DuckDB database file (":memory:" for in-memory)

	// Lookup limits
	MaxPathSegments int           // longest accepted path (default 64)
	LookupTimeout   time.Duration // per-request lookup deadline (default 5s)

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// S3 fields are optional, nil when not configured.
	S3KeyID    *string
	S3Secret   *string
	S3Endpoint *string
	S3Region   *string

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// HasS3Config returns true if the S3 endpoint and credentials are set.
func (c *Config) HasS3Config() bool {
	return c.S3KeyID != nil && c.S3Secret != nil && c.S3Endpoint != nil
}

// HasSource returns true if at least one catalog source is configured.
func (c *Config) HasSource() bool {
	return c.CatalogFile != "" || c.MetaDBPath != "" || c.DuckDBPath != ""
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:            os.Getenv("LISTEN_ADDR"),
		LogLevel:              os.Getenv("LOG_LEVEL"),
		Env:                   os.Getenv("ENV"),
		CatalogFile:           os.Getenv("CATALOG_FILE"),
		CatalogReloadSchedule: os.Getenv("CATALOG_RELOAD_SCHEDULE"),
		MetaDBPath:            os.Getenv("META_DB_PATH"),
		MetaRoot:              os.Getenv("META_DB_ROOT"),
		DuckDBPath:            os.Getenv("DUCKDB_PATH"),
	}

	if v := os.Getenv("MAX_PATH_SEGMENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxPathSegments = n
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring invalid MAX_PATH_SEGMENTS %q", v))
		}
	}
	if v := os.Getenv("LOOKUP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.LookupTimeout = d
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring invalid LOOKUP_TIMEOUT %q", v))
		}
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// S3 fields are optional, only set if present
	if v := os.Getenv("KEY_ID"); v != "" {
		cfg.S3KeyID = &v
	}
	if v := os.Getenv("SECRET"); v != "" {
		cfg.S3Secret = &v
	}
	if v := os.Getenv("ENDPOINT"); v != "" {
		cfg.S3Endpoint = &v
	}
	if v := os.Getenv("REGION"); v != "" {
		cfg.S3Region = &v
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = compactNonEmpty(origins)
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.MaxPathSegments == 0 {
		cfg.MaxPathSegments = 64
	}
	if cfg.LookupTimeout == 0 {
		cfg.LookupTimeout = 5 * time.Second
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.S3Region == nil {
		region := "us-east-1"
		cfg.S3Region = &region
	}

	if !cfg.HasSource() {
		cfg.Warnings = append(cfg.Warnings, "no catalog source configured: set CATALOG_FILE, META_DB_PATH or DUCKDB_PATH")
	}
	if cfg.CatalogReloadSchedule != "" && cfg.CatalogFile == "" {
		return nil, fmt.Errorf("CATALOG_RELOAD_SCHEDULE requires CATALOG_FILE")
	}
	if strings.HasPrefix(cfg.CatalogFile, "s3://") && !cfg.HasS3Config() {
		return nil, fmt.Errorf("CATALOG_FILE %q needs KEY_ID, SECRET and ENDPOINT", cfg.CatalogFile)
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		for _, o := range cfg.CORSAllowedOrigins {
			if o == "*" {
				return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
			}
		}
	}

	return cfg, nil
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = stripQuotes(strings.TrimSpace(value))
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

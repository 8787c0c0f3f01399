// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkordes/match-results/backend/internal/geocode"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string backing the geocode cache. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// MatchServiceURL is the base URL of the remote matching service. Required.
	MatchServiceURL string
	// MatchServiceToken is sent as a bearer token when non-empty.
	MatchServiceToken string

	GeocodeURL    string
	GeocodeAPIKey string
	// GeocodeRate is the outbound geocoding budget in requests per second.
	// Zero disables throttling.
	GeocodeRate        float64
	GeocodeConcurrency int
	GeocodeCacheTTL    time.Duration

	// HTTPTimeout bounds every outbound HTTP call.
	HTTPTimeout time.Duration

	// RedisURL selects the Redis session store when set. Sessions are kept
	// in process memory otherwise.
	RedisURL   string
	SessionTTL time.Duration

	// Location is the time zone match dates are rendered in.
	Location *time.Location

	// SessionCookieSecure sets the Secure flag on the session cookie.
	// Enable it whenever the API is served over HTTPS.
	SessionCookieSecure bool

	// UserHeader names the header the upstream auth proxy uses to pass the
	// logged-in user's id.
	UserHeader string

	MaxBodyBytes int64
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set, or the
// first variable that could not be parsed.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom is Load with an arbitrary key lookup. lookup returns "" for keys
// that are not set. The CLI passes viper's lookup so flags and the config
// file feed the same keys as the environment.
func LoadFrom(lookup func(key string) string) (Config, error) {
	env := source(lookup)
	cfg := Config{
		Port:              env.get("PORT", "8080"),
		LogLevel:          env.get("LOG_LEVEL", "info"),
		CORSOrigins:       splitCSV(env.get("CORS_ORIGINS", "http://localhost:5173")),
		MatchServiceToken: env.lookup("MATCH_SERVICE_TOKEN"),
		GeocodeURL:        env.get("GEOCODE_URL", geocode.DefaultURL),
		RedisURL:          env.lookup("REDIS_URL"),
		UserHeader:        env.get("USER_HEADER", "X-User-ID"),
	}

	var missing []string
	required := func(key string, dst *string) {
		*dst = env.lookup(key)
		if *dst == "" {
			missing = append(missing, key)
		}
	}
	required("DATABASE_URL", &cfg.DatabaseURL)
	required("MATCH_SERVICE_URL", &cfg.MatchServiceURL)
	required("GEOCODE_API_KEY", &cfg.GeocodeAPIKey)

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.GeocodeRate, err = env.getFloat("GEOCODE_RATE", 10); err != nil {
		return Config{}, err
	}
	if cfg.GeocodeConcurrency, err = env.getInt("GEOCODE_CONCURRENCY", 8); err != nil {
		return Config{}, err
	}
	if cfg.GeocodeCacheTTL, err = env.getDuration("GEOCODE_CACHE_TTL", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.HTTPTimeout, err = env.getDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = env.getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SessionCookieSecure, err = env.getBool("SESSION_COOKIE_SECURE", false); err != nil {
		return Config{}, err
	}
	maxBody, err := env.getInt("MAX_BODY_BYTES", 1<<20)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxBodyBytes = int64(maxBody)

	tz := env.get("TIMEZONE", "UTC")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges that parsing alone cannot catch.
func (c Config) Validate() error {
	var errs []error
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.LogLevel))
	}
	if c.GeocodeRate < 0 {
		errs = append(errs, errors.New("GEOCODE_RATE must be >= 0"))
	}
	if c.GeocodeConcurrency <= 0 {
		errs = append(errs, errors.New("GEOCODE_CONCURRENCY must be > 0"))
	}
	if c.GeocodeCacheTTL < 0 {
		errs = append(errs, errors.New("GEOCODE_CACHE_TTL must be >= 0"))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be > 0"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be > 0"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES must be > 0"))
	}
	if strings.TrimSpace(c.UserHeader) == "" {
		errs = append(errs, errors.New("USER_HEADER must not be blank"))
	}
	return errors.Join(errs...)
}

// source wraps a key lookup with typed accessors.
type source func(key string) string

func (src source) lookup(key string) string {
	return strings.TrimSpace(src(key))
}

// get returns the value named by key, or fallback if it is not set or is empty.
func (src source) get(key, fallback string) string {
	if v := src.lookup(key); v != "" {
		return v
	}
	return fallback
}

func (src source) getInt(key string, fallback int) (int, error) {
	v := src.lookup(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func (src source) getBool(key string, fallback bool) (bool, error) {
	v := src.lookup(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func (src source) getFloat(key string, fallback float64) (float64, error) {
	v := src.lookup(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func (src source) getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := src.lookup(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
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

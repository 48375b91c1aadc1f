package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/finview/internal/interfaces"
)

// ErrMissingAPIKey is returned when no provider API key can be resolved.
// It is fatal at startup.
var ErrMissingAPIKey = errors.New("provider API key not configured")

// APIKeyName is the key/value store name of the provider API key.
const APIKeyName = "quickfs_api_key"

// apiKeyEnvVars are checked in order before the key/value store and config.
var apiKeyEnvVars = []string{"FINVIEW_API_KEY", "QUICKFS_API_KEY"}

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment" validate:"oneof=development production"`
	Server      ServerConfig    `toml:"server"`
	Provider    ProviderConfig  `toml:"provider"`
	Dashboard   DashboardConfig `toml:"dashboard"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host"`
}

// Address returns host:port for the HTTP listener.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ProviderConfig configures the fundamentals data provider client.
type ProviderConfig struct {
	BaseURL    string  `toml:"base_url" validate:"required,url"`
	APIKey     string  `toml:"api_key"`                             // lowest priority; prefer FINVIEW_API_KEY or .env
	Timeout    string  `toml:"timeout"`                             // e.g. "30s"
	MaxRetries int     `toml:"max_retries" validate:"min=0,max=10"` // retries after the first attempt, 5xx only
	RetryDelay string  `toml:"retry_delay"`                         // fixed delay between attempts
	RateLimit  float64 `toml:"rate_limit" validate:"gt=0"`          // requests per second
	CacheTTL   string  `toml:"cache_ttl"`                           // payload reuse window; "0s" disables
}

// DashboardConfig configures the user-facing controls.
type DashboardConfig struct {
	Presets       []string `toml:"presets"`
	DefaultTicker string   `toml:"default_ticker"`
	MinYear       int      `toml:"min_year" validate:"min=1900"`
	DefaultWindow int      `toml:"default_window" validate:"min=0"` // years shown before TTM on first load
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration.
// An empty Path keeps preferences in memory for the life of the process.
type BadgerConfig struct {
	Path           string `toml:"path"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

// InMemory reports whether the store has no backing directory.
func (b BadgerConfig) InMemory() bool {
	return strings.TrimSpace(b.Path) == ""
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=trace debug info warn error"`
	Output     []string `toml:"output"` // "stdout", "file"
	TimeFormat string   `toml:"time_format"`
	FileName   string   `toml:"file_name"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Provider: ProviderConfig{
			BaseURL:    "https://public-api.quickfs.net/v1",
			Timeout:    "30s",
			MaxRetries: 2,
			RetryDelay: "1s",
			RateLimit:  2,
			CacheTTL:   "0s",
		},
		Dashboard: DashboardConfig{
			Presets:       []string{"AAPL:US", "MSFT:US", "GOOGL:US", "AMZN:US", "NVDA:US"},
			DefaultTicker: "AAPL:US",
			MinYear:       2000,
			DefaultWindow: 10,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
			FileName:   "finview.log",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// CLI flags are applied afterwards with ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies FINVIEW_* environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FINVIEW_ENV"); env != "" {
		config.Environment = env
	}

	// Server
	if port := os.Getenv("FINVIEW_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("FINVIEW_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Provider
	if baseURL := os.Getenv("FINVIEW_PROVIDER_BASE_URL"); baseURL != "" {
		config.Provider.BaseURL = baseURL
	}
	if timeout := os.Getenv("FINVIEW_PROVIDER_TIMEOUT"); timeout != "" {
		config.Provider.Timeout = timeout
	}
	if retries := os.Getenv("FINVIEW_PROVIDER_MAX_RETRIES"); retries != "" {
		if r, err := strconv.Atoi(retries); err == nil {
			config.Provider.MaxRetries = r
		}
	}
	if delay := os.Getenv("FINVIEW_PROVIDER_RETRY_DELAY"); delay != "" {
		config.Provider.RetryDelay = delay
	}
	if limit := os.Getenv("FINVIEW_PROVIDER_RATE_LIMIT"); limit != "" {
		if l, err := strconv.ParseFloat(limit, 64); err == nil {
			config.Provider.RateLimit = l
		}
	}
	if ttl := os.Getenv("FINVIEW_PROVIDER_CACHE_TTL"); ttl != "" {
		config.Provider.CacheTTL = ttl
	}

	// Dashboard
	if presets := os.Getenv("FINVIEW_DASHBOARD_PRESETS"); presets != "" {
		config.Dashboard.Presets = splitList(presets)
	}
	if ticker := os.Getenv("FINVIEW_DASHBOARD_DEFAULT_TICKER"); ticker != "" {
		config.Dashboard.DefaultTicker = ticker
	}

	// Storage
	if path, ok := os.LookupEnv("FINVIEW_STORAGE_BADGER_PATH"); ok {
		config.Storage.Badger.Path = path
	}

	// Logging
	if level := os.Getenv("FINVIEW_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("FINVIEW_LOG_OUTPUT"); output != "" {
		config.Logging.Output = splitList(output)
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks field constraints and duration strings, and rewrites the
// dashboard presets in CODE:COUNTRY form.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := time.ParseDuration(c.Provider.Timeout); err != nil {
		return fmt.Errorf("invalid provider.timeout %q: %w", c.Provider.Timeout, err)
	}
	if _, err := time.ParseDuration(c.Provider.RetryDelay); err != nil {
		return fmt.Errorf("invalid provider.retry_delay %q: %w", c.Provider.RetryDelay, err)
	}
	if _, err := time.ParseDuration(c.Provider.CacheTTL); err != nil {
		return fmt.Errorf("invalid provider.cache_ttl %q: %w", c.Provider.CacheTTL, err)
	}

	// Presets are shown verbatim in the picker, so store them in provider form
	tickers := ParseTickers(c.Dashboard.Presets)
	if len(tickers) != len(c.Dashboard.Presets) {
		return fmt.Errorf("%w: dashboard.presets %v", ErrInvalidTicker, c.Dashboard.Presets)
	}
	for i, ticker := range tickers {
		c.Dashboard.Presets[i] = ticker.String()
	}
	return nil
}

// TimeoutDuration returns the provider request timeout, falling back to 30s.
func (p ProviderConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(p.Timeout, 30*time.Second)
}

// RetryDelayDuration returns the delay between provider attempts, falling back to 1s.
func (p ProviderConfig) RetryDelayDuration() time.Duration {
	return parseDurationOr(p.RetryDelay, time.Second)
}

// CacheTTLDuration returns how long a fetched payload is reused; 0 disables reuse.
func (p ProviderConfig) CacheTTLDuration() time.Duration {
	return parseDurationOr(p.CacheTTL, 0)
}

// IsProduction reports whether the environment is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// ResolveAPIKey resolves the provider API key.
// Resolution order: environment variables -> KV store -> config fallback -> ErrMissingAPIKey
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, configFallback string) (string, error) {
	for _, name := range apiKeyEnvVars {
		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			return value, nil
		}
	}

	if kvStorage != nil {
		for _, name := range append([]string{APIKeyName}, apiKeyEnvVars...) {
			if value, err := kvStorage.Get(ctx, name); err == nil && strings.TrimSpace(value) != "" {
				return strings.TrimSpace(value), nil
			}
		}
	}

	if value := strings.TrimSpace(configFallback); value != "" {
		return value, nil
	}

	return "", ErrMissingAPIKey
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

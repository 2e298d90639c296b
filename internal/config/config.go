// Package config handles configuration loading for mfindia.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default upstream endpoints.
const (
	DefaultAMFINAVURL     = "https://www.amfiindia.com/spages/NAVAll.txt"
	DefaultMFAPIURL       = "https://api.mfapi.in/mf/"
	DefaultPerformanceURL = "http://www.valueresearchonline.com/amfi/fund-performance-data/?" +
		"end-type=1&primary-category=SEQ&category=CAT&amc=ALL"
	DefaultTimeoutSec = 30
	DefaultUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// Config represents the complete application configuration.
type Config struct {
	Sources     SourcesConfig     `mapstructure:"sources"     yaml:"sources"`
	HTTP        HTTPConfig        `mapstructure:"http"        yaml:"http"`
	Cache       CacheConfig       `mapstructure:"cache"       yaml:"cache"`
	Performance PerformanceConfig `mapstructure:"performance" yaml:"performance"`
	Logging     LoggingConfig     `mapstructure:"logging"     yaml:"logging"`
	API         APIConfig         `mapstructure:"api"         yaml:"api"`
}

// SourcesConfig holds the upstream endpoints.
type SourcesConfig struct {
	AMFINAVURL     string `mapstructure:"amfi_nav_url"    yaml:"amfi_nav_url"`
	MFAPIURL       string `mapstructure:"mfapi_url"       yaml:"mfapi_url"`       // scheme code is appended
	PerformanceURL string `mapstructure:"performance_url" yaml:"performance_url"` // "CAT" is replaced by the category code
}

// HTTPConfig holds settings of the shared HTTP session.
type HTTPConfig struct {
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	UserAgent  string `mapstructure:"user_agent"  yaml:"user_agent"`
}

// Timeout returns the request timeout as a duration. Zero means no timeout.
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSec) * time.Second
}

// CacheConfig holds the opt-in scheme directory cache.
type CacheConfig struct {
	DirectoryTTL int `mapstructure:"directory_ttl" yaml:"directory_ttl"` // seconds, 0 disables
}

// TTL returns the directory TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.DirectoryTTL) * time.Second
}

// PerformanceConfig holds performance report settings.
type PerformanceConfig struct {
	ConcurrentFetches int `mapstructure:"concurrent_fetches" yaml:"concurrent_fetches"` // 1 = sequential
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// APIConfig holds the HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// Addr returns the listen address.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.mfindia/config.yaml (home directory)
//  3. /etc/mfindia/config.yaml (system)
//
// Environment variables override config file values.
// Format: MFINDIA_<SECTION>_<KEY>, e.g., MFINDIA_HTTP_TIMEOUT_SEC
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".mfindia"))
	v.AddConfigPath("/etc/mfindia")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MFINDIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("sources.amfi_nav_url", DefaultAMFINAVURL)
	v.SetDefault("sources.mfapi_url", DefaultMFAPIURL)
	v.SetDefault("sources.performance_url", DefaultPerformanceURL)

	v.SetDefault("http.timeout_sec", DefaultTimeoutSec)
	v.SetDefault("http.user_agent", DefaultUserAgent)

	// Fetch-per-call unless explicitly enabled.
	v.SetDefault("cache.directory_ttl", 0)

	v.SetDefault("performance.concurrent_fetches", 1)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8080)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	for name, raw := range map[string]string{
		"sources.amfi_nav_url":    c.Sources.AMFINAVURL,
		"sources.mfapi_url":       c.Sources.MFAPIURL,
		"sources.performance_url": c.Sources.PerformanceURL,
	} {
		u, err := url.Parse(raw)
		if raw == "" || err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s: invalid URL %q", name, raw))
		}
	}
	if c.Sources.PerformanceURL != "" && !strings.Contains(c.Sources.PerformanceURL, "CAT") {
		errs = append(errs, fmt.Errorf("sources.performance_url: missing CAT placeholder"))
	}
	if c.HTTP.TimeoutSec < 0 {
		errs = append(errs, fmt.Errorf("http.timeout_sec: must not be negative"))
	}
	if c.Cache.DirectoryTTL < 0 {
		errs = append(errs, fmt.Errorf("cache.directory_ttl: must not be negative"))
	}
	if c.Performance.ConcurrentFetches < 1 {
		errs = append(errs, fmt.Errorf("performance.concurrent_fetches: must be at least 1"))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: %q is not text or json", c.Logging.Format))
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port: %d is out of range", c.API.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the moviemaster API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Users     UsersConfig     `yaml:"users"`
	TMDB      TMDBConfig      `yaml:"tmdb"`
	Cache     CacheConfig     `yaml:"cache"`
	Recommend RecommendConfig `yaml:"recommend"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	CORS      CORSConfig      `yaml:"cors"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	JWTSecret   string `yaml:"jwt_secret"`
	TokenTTLSec int    `yaml:"token_ttl_sec"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the recent-search store settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, valkey, badger, bolt (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	Path             string   `yaml:"path"` // badger directory or bolt file
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// UsersConfig holds the account database settings.
type UsersConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// TMDBConfig holds upstream movie API settings.
type TMDBConfig struct {
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	TimeoutSec     int           `yaml:"timeout_sec"`
	RatePerSecond  float64       `yaml:"rate_per_second"` // 0 = unlimited
	Burst          int           `yaml:"burst"`
	RetryMax       int           `yaml:"retry_max"`
	RetryBackoffMs int           `yaml:"retry_backoff_ms"`
	Breaker        BreakerConfig `yaml:"breaker"`
}

// BreakerConfig holds circuit breaker settings for the upstream API.
type BreakerConfig struct {
	MaxRequests  uint32  `yaml:"max_requests"`
	IntervalSec  int     `yaml:"interval_sec"`
	TimeoutSec   int     `yaml:"timeout_sec"`
	MinRequests  uint32  `yaml:"min_requests"`
	FailureRatio float64 `yaml:"failure_ratio"`
}

// CacheConfig holds in-memory response cache settings.
type CacheConfig struct {
	Size         int `yaml:"size"`
	TTLSec       int `yaml:"ttl_sec"`
	GenresTTLSec int `yaml:"genres_ttl_sec"`
}

// RecommendConfig holds recommendation aggregation settings.
type RecommendConfig struct {
	MaxConcurrency int  `yaml:"max_concurrency"`
	CallTimeoutMs  int  `yaml:"call_timeout_ms"`
	Prefetch       bool `yaml:"prefetch"`
	MaxOwners      int  `yaml:"max_owners"` // owners kept in memory by the recent service and the feed
}

// RateLimitConfig holds inbound rate limiting for the public movie endpoints.
type RateLimitConfig struct {
	Requests  int `yaml:"requests"`   // 0 disables limiting
	WindowSec int `yaml:"window_sec"` // default: 3600
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Users.SQLitePath == "" {
		c.Users.SQLitePath = "data/users.db"
	}
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = "https://api.themoviedb.org/3"
	}
	if c.TMDB.TimeoutSec <= 0 {
		c.TMDB.TimeoutSec = 10
	}
	if c.TMDB.RetryBackoffMs <= 0 {
		c.TMDB.RetryBackoffMs = 200
	}
	if c.Cache.Size <= 0 {
		c.Cache.Size = 2048
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 3600
	}
	if c.Cache.GenresTTLSec <= 0 {
		c.Cache.GenresTTLSec = 86400
	}
	if c.Recommend.MaxConcurrency <= 0 {
		c.Recommend.MaxConcurrency = 8
	}
	if c.Recommend.CallTimeoutMs <= 0 {
		c.Recommend.CallTimeoutMs = 5000
	}
	if c.Recommend.MaxOwners <= 0 {
		c.Recommend.MaxOwners = 10000
	}
	if c.Auth.TokenTTLSec <= 0 {
		c.Auth.TokenTTLSec = 86400
	}
	if c.RateLimit.WindowSec <= 0 {
		c.RateLimit.WindowSec = 3600
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "movie-store:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "redis", "valkey":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case "bolt":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for driver \"bolt\"")
		}
	case "badger":
		// empty path runs in memory
	default:
		return fmt.Errorf(
			"database.driver must be one of redis, valkey, badger, bolt, got %q", c.Database.Driver,
		)
	}
	if c.TMDB.APIKey == "" {
		return fmt.Errorf("tmdb.api_key is required")
	}
	if c.TMDB.RatePerSecond < 0 {
		return fmt.Errorf("tmdb.rate_per_second must not be negative, got %v", c.TMDB.RatePerSecond)
	}
	if r := c.TMDB.Breaker.FailureRatio; r < 0 || r > 1 {
		return fmt.Errorf("tmdb.breaker.failure_ratio must be between 0 and 1, got %v", r)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.RateLimit.Requests < 0 {
		return fmt.Errorf("ratelimit.requests must not be negative, got %d", c.RateLimit.Requests)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

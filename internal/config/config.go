// Package config loads service configuration from a yaml file, a .env file,
// and environment variable overrides, in that order. Configuration is read
// once at startup; there is no hot reload.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultServerPort      = 8080
	defaultServerTimeout   = 30 * time.Second
	defaultDatabasePort    = 5432
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	defaultRedisAddress    = "localhost:6379"

	defaultCheckIntervalMinutes = 60
	defaultSearchTimeout        = 60 * time.Second
	defaultMaxResults           = 10
	defaultSearchRetries        = 3
	defaultGoogleBaseURL        = "https://www.googleapis.com/customsearch/v1"
	defaultNewsRSSBaseURL       = "https://news.google.com/rss/search"

	defaultSummarizerModel   = "gemini-1.5-flash"
	defaultSummarizerBaseURL = "https://generativelanguage.googleapis.com"
	defaultSummarizerTimeout = 30 * time.Second
	defaultSummarizerChars   = 12000

	defaultPollInterval   = 5 * time.Minute
	defaultWatcherRetries = 3
	defaultRetryDelay     = 5 * time.Second
	defaultWatcherTimeout = 60 * time.Second
)

type Config struct {
	Debug      bool             `yaml:"debug"`
	LogLevel   string           `yaml:"log_level"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Registry   RegistryConfig   `yaml:"registry"`
	Search     SearchConfig     `yaml:"search"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Reports    ReportsConfig    `yaml:"reports"`
	Watcher    WatcherConfig    `yaml:"watcher"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN renders the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// RedisConfig holds the connection for lifecycle event publishing. Events are
// a feature flag; the service runs fine without Redis.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
}

type RegistryConfig struct {
	DefaultCheckIntervalMinutes int `yaml:"default_check_interval_minutes"`
	// MaxMonitors caps monitor creation; zero means unlimited.
	MaxMonitors int `yaml:"max_monitors"`
}

type SearchConfig struct {
	// Providers is the adapter fallback order.
	Providers         []string      `yaml:"providers"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	MaxResultsDefault int           `yaml:"max_results_default"`
	// MaxRetries bounds attempts against a failing provider, first try included.
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	Google     GoogleConfig  `yaml:"google"`
	NewsRSS    NewsRSSConfig `yaml:"newsrss"`
}

type GoogleConfig struct {
	APIKey   string `yaml:"api_key"`
	EngineID string `yaml:"engine_id"`
	BaseURL  string `yaml:"base_url"`
}

type NewsRSSConfig struct {
	Language string `yaml:"language"`
	Country  string `yaml:"country"`
	BaseURL  string `yaml:"base_url"`
}

type SummarizerConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	// MaxChars bounds the concatenated text sent to the summarizer.
	MaxChars int `yaml:"max_chars"`
}

type ReportsConfig struct {
	// RetentionDays drives the purge operation; zero disables purging.
	RetentionDays int `yaml:"retention_days"`
}

type WatcherConfig struct {
	APIBaseURL     string        `yaml:"api_base_url"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// MetricsAddr exposes Prometheus metrics when set, e.g. ":9090".
	MetricsAddr string `yaml:"metrics_addr"`
}

// Load reads the yaml file at path (optional), layers .env and environment
// overrides on top, and fills defaults. Call Validate before using the result.
func Load(path string) (*Config, error) {
	// .env is a developer convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, unmarshalErr)
			}
		case os.IsNotExist(err):
			// Defaults plus env overrides are a complete configuration.
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	setDefaults(cfg)
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("server.port must be positive")
	}
	if c.Database.Host == "" {
		return errors.New("database.host is required")
	}
	if c.Database.User == "" {
		return errors.New("database.user is required")
	}
	if c.Database.DBName == "" {
		return errors.New("database.dbname is required")
	}
	if c.Registry.DefaultCheckIntervalMinutes <= 0 {
		return errors.New("registry.default_check_interval_minutes must be positive")
	}
	for _, p := range c.Search.Providers {
		if p == "" {
			return errors.New("search.providers entries cannot be blank")
		}
	}
	if c.Watcher.MaxRetries < 1 {
		return errors.New("watcher.max_retries must be at least 1")
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultServerTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultServerTimeout
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = defaultDatabasePort
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = defaultMaxOpenConns
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = defaultMaxIdleConns
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = defaultConnMaxLifetime
	}
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = defaultRedisAddress
	}
	if cfg.Registry.DefaultCheckIntervalMinutes == 0 {
		cfg.Registry.DefaultCheckIntervalMinutes = defaultCheckIntervalMinutes
	}
	if len(cfg.Search.Providers) == 0 {
		cfg.Search.Providers = []string{"google", "newsrss"}
	}
	if cfg.Search.RequestTimeout == 0 {
		cfg.Search.RequestTimeout = defaultSearchTimeout
	}
	if cfg.Search.MaxResultsDefault == 0 {
		cfg.Search.MaxResultsDefault = defaultMaxResults
	}
	if cfg.Search.MaxRetries == 0 {
		cfg.Search.MaxRetries = defaultSearchRetries
	}
	if cfg.Search.RetryDelay == 0 {
		cfg.Search.RetryDelay = defaultRetryDelay
	}
	if cfg.Search.Google.BaseURL == "" {
		cfg.Search.Google.BaseURL = defaultGoogleBaseURL
	}
	if cfg.Search.NewsRSS.Language == "" {
		cfg.Search.NewsRSS.Language = "en-US"
	}
	if cfg.Search.NewsRSS.Country == "" {
		cfg.Search.NewsRSS.Country = "US"
	}
	if cfg.Search.NewsRSS.BaseURL == "" {
		cfg.Search.NewsRSS.BaseURL = defaultNewsRSSBaseURL
	}
	if cfg.Summarizer.Model == "" {
		cfg.Summarizer.Model = defaultSummarizerModel
	}
	if cfg.Summarizer.BaseURL == "" {
		cfg.Summarizer.BaseURL = defaultSummarizerBaseURL
	}
	if cfg.Summarizer.Timeout == 0 {
		cfg.Summarizer.Timeout = defaultSummarizerTimeout
	}
	if cfg.Summarizer.MaxChars == 0 {
		cfg.Summarizer.MaxChars = defaultSummarizerChars
	}
	if cfg.Watcher.APIBaseURL == "" {
		cfg.Watcher.APIBaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	if cfg.Watcher.PollInterval == 0 {
		cfg.Watcher.PollInterval = defaultPollInterval
	}
	if cfg.Watcher.MaxRetries == 0 {
		cfg.Watcher.MaxRetries = defaultWatcherRetries
	}
	if cfg.Watcher.RetryDelay == 0 {
		cfg.Watcher.RetryDelay = defaultRetryDelay
	}
	if cfg.Watcher.RequestTimeout == 0 {
		cfg.Watcher.RequestTimeout = defaultWatcherTimeout
	}
}

func applyEnvOverrides(cfg *Config) error {
	overrideString("SERVER_HOST", &cfg.Server.Host)
	overrideString("DB_HOST", &cfg.Database.Host)
	overrideString("DB_USER", &cfg.Database.User)
	overrideString("DB_PASSWORD", &cfg.Database.Password)
	overrideString("DB_NAME", &cfg.Database.DBName)
	overrideString("DB_SSLMODE", &cfg.Database.SSLMode)
	overrideString("REDIS_ADDRESS", &cfg.Redis.Address)
	overrideString("REDIS_PASSWORD", &cfg.Redis.Password)
	overrideString("GOOGLE_SEARCH_API_KEY", &cfg.Search.Google.APIKey)
	overrideString("GOOGLE_SEARCH_ENGINE_ID", &cfg.Search.Google.EngineID)
	overrideString("SUMMARIZER_API_KEY", &cfg.Summarizer.APIKey)
	overrideString("SUMMARIZER_MODEL", &cfg.Summarizer.Model)
	overrideString("SUMMARIZER_BASE_URL", &cfg.Summarizer.BaseURL)
	overrideString("WATCHER_API_BASE_URL", &cfg.Watcher.APIBaseURL)
	overrideString("WATCHER_METRICS_ADDR", &cfg.Watcher.MetricsAddr)
	overrideString("LOG_LEVEL", &cfg.LogLevel)

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.Server.CORSOrigins = splitAndTrim(origins)
	}
	if providers := os.Getenv("SEARCH_PROVIDERS"); providers != "" {
		cfg.Search.Providers = splitAndTrim(providers)
	}

	if err := overrideBool("APP_DEBUG", &cfg.Debug); err != nil {
		return err
	}
	if err := overrideBool("REDIS_EVENTS_ENABLED", &cfg.Redis.Enabled); err != nil {
		return err
	}
	if err := overrideInt("SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if err := overrideInt("DB_PORT", &cfg.Database.Port); err != nil {
		return err
	}
	if err := overrideInt("REDIS_DB", &cfg.Redis.DB); err != nil {
		return err
	}
	if err := overrideInt("REGISTRY_MAX_MONITORS", &cfg.Registry.MaxMonitors); err != nil {
		return err
	}
	if err := overrideInt("REPORTS_RETENTION_DAYS", &cfg.Reports.RetentionDays); err != nil {
		return err
	}
	if err := overrideDuration("WATCHER_POLL_INTERVAL", &cfg.Watcher.PollInterval); err != nil {
		return err
	}
	return nil
}

func overrideString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s=%q: %w", key, v, err)
	}
	*dst = parsed
	return nil
}

func overrideBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("parse %s=%q: %w", key, v, err)
	}
	*dst = parsed
	return nil
}

func overrideDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s=%q: %w", key, v, err)
	}
	*dst = parsed
	return nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
debug: true
server:
  host: "0.0.0.0"
  port: 8090
database:
  host: "localhost"
  port: 5432
  user: "intel"
  password: "secret"
  dbname: "marketintel"
search:
  providers: ["newsrss"]
  google:
    api_key: "k"
    engine_id: "cx"
watcher:
  poll_interval: 2m
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if !cfg.Debug {
		t.Error("Load() cfg.Debug = false, want true")
	}
	if cfg.Server.Port != 8090 {
		t.Errorf("Load() cfg.Server.Port = %v, want 8090", cfg.Server.Port)
	}
	if cfg.Database.DBName != "marketintel" {
		t.Errorf("Load() cfg.Database.DBName = %v, want marketintel", cfg.Database.DBName)
	}
	if len(cfg.Search.Providers) != 1 || cfg.Search.Providers[0] != "newsrss" {
		t.Errorf("Load() cfg.Search.Providers = %v, want [newsrss]", cfg.Search.Providers)
	}
	if cfg.Search.Google.APIKey != "k" || cfg.Search.Google.EngineID != "cx" {
		t.Errorf("Load() google credentials not read: %+v", cfg.Search.Google)
	}
	if cfg.Watcher.PollInterval != 2*time.Minute {
		t.Errorf("Load() cfg.Watcher.PollInterval = %v, want 2m", cfg.Watcher.PollInterval)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: "localhost"
  user: "intel"
  dbname: "marketintel"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Server.Port != defaultServerPort {
		t.Errorf("cfg.Server.Port = %v, want %v", cfg.Server.Port, defaultServerPort)
	}
	if cfg.Database.Port != defaultDatabasePort {
		t.Errorf("cfg.Database.Port = %v, want %v", cfg.Database.Port, defaultDatabasePort)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Errorf("cfg.Database.SSLMode = %v, want disable", cfg.Database.SSLMode)
	}
	if cfg.Registry.DefaultCheckIntervalMinutes != defaultCheckIntervalMinutes {
		t.Errorf("default check interval = %v, want %v",
			cfg.Registry.DefaultCheckIntervalMinutes, defaultCheckIntervalMinutes)
	}
	if cfg.Watcher.PollInterval != defaultPollInterval {
		t.Errorf("cfg.Watcher.PollInterval = %v, want %v", cfg.Watcher.PollInterval, defaultPollInterval)
	}
	if cfg.Watcher.MaxRetries != defaultWatcherRetries {
		t.Errorf("cfg.Watcher.MaxRetries = %v, want %v", cfg.Watcher.MaxRetries, defaultWatcherRetries)
	}
	if cfg.Watcher.APIBaseURL != "http://localhost:8080" {
		t.Errorf("cfg.Watcher.APIBaseURL = %v, want derived from server port", cfg.Watcher.APIBaseURL)
	}
	if cfg.Summarizer.Model != defaultSummarizerModel {
		t.Errorf("cfg.Summarizer.Model = %v, want %v", cfg.Summarizer.Model, defaultSummarizerModel)
	}
	if len(cfg.Search.Providers) != 2 {
		t.Errorf("cfg.Search.Providers = %v, want google+newsrss default order", cfg.Search.Providers)
	}
	if cfg.Search.MaxRetries != defaultSearchRetries {
		t.Errorf("cfg.Search.MaxRetries = %v, want %v", cfg.Search.MaxRetries, defaultSearchRetries)
	}
	if cfg.Search.RetryDelay != defaultRetryDelay {
		t.Errorf("cfg.Search.RetryDelay = %v, want %v", cfg.Search.RetryDelay, defaultRetryDelay)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for missing file", err)
	}
	if cfg.Server.Port != defaultServerPort {
		t.Errorf("cfg.Server.Port = %v, want default", cfg.Server.Port)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8090
database:
  host: "localhost"
  user: "intel"
  dbname: "marketintel"
`)

	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("GOOGLE_SEARCH_API_KEY", "env-key")
	t.Setenv("SEARCH_PROVIDERS", "newsrss, google")
	t.Setenv("WATCHER_POLL_INTERVAL", "90s")
	t.Setenv("REDIS_EVENTS_ENABLED", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("cfg.Server.Port = %v, want env override 9000", cfg.Server.Port)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("cfg.Database.Host = %v, want db.internal", cfg.Database.Host)
	}
	if cfg.Search.Google.APIKey != "env-key" {
		t.Errorf("cfg.Search.Google.APIKey = %v, want env-key", cfg.Search.Google.APIKey)
	}
	if len(cfg.Search.Providers) != 2 || cfg.Search.Providers[0] != "newsrss" {
		t.Errorf("cfg.Search.Providers = %v, want [newsrss google]", cfg.Search.Providers)
	}
	if cfg.Watcher.PollInterval != 90*time.Second {
		t.Errorf("cfg.Watcher.PollInterval = %v, want 90s", cfg.Watcher.PollInterval)
	}
	if !cfg.Redis.Enabled {
		t.Error("cfg.Redis.Enabled = false, want true from env")
	}
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	if _, err := Load(""); err == nil {
		t.Fatal("Load() error = nil, want parse error for SERVER_PORT")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [broken")
	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want yaml parse error")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		cfg.Database.Host = "localhost"
		cfg.Database.User = "intel"
		cfg.Database.DBName = "marketintel"
		return cfg
	}

	cfg := valid()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}

	cfg = valid()
	cfg.Database.Host = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for missing database.host")
	}

	cfg = valid()
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for zero server.port")
	}

	cfg = valid()
	cfg.Registry.DefaultCheckIntervalMinutes = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for negative default interval")
	}

	cfg = valid()
	cfg.Watcher.MaxRetries = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for zero watcher.max_retries")
	}
}

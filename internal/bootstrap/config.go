package bootstrap

import (
	"flag"
	"fmt"
	"os"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/config"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/logger"
)

// LoadConfig loads configuration. Uses the -config flag, with CONFIG_PATH as
// the fallback before the built-in default.
func LoadConfig() (*config.Config, error) {
	configPath := flag.String("config", defaultConfigPath(), "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, nil
}

func defaultConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "config.yml"
}

// CreateLogger creates a logger instance from configuration.
func CreateLogger(cfg *config.Config, version string) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level: cfg.LogLevel,
		Debug: cfg.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(
		logger.String("service", "keyword-monitor"),
		logger.String("version", version),
	), nil
}

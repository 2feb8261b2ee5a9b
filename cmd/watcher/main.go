// Command watcher polls the monitor API on a fixed interval and runs the
// searches for monitors that are due. Run with -once for a single cycle.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/config"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/logger"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/watcher"
)

func main() {
	var (
		configPath = flag.String("config", defaultConfigPath(), "Path to configuration file")
		once       = flag.Bool("once", false, "Run one check cycle and exit")
	)
	flag.Parse()

	if err := run(*configPath, *once); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "config.yml"
}

func run(configPath string, once bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Debug: cfg.Debug})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	log = log.With(logger.String("service", "keyword-monitor-watcher"))
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("Shutdown signal received", logger.String("signal", sig.String()))
		cancel()
	}()

	metrics := watcher.NewMetrics(nil)
	if cfg.Watcher.MetricsAddr != "" {
		go serveMetrics(cfg.Watcher.MetricsAddr, log)
	}

	client := watcher.NewClient(cfg.Watcher, log)
	w := watcher.New(client, cfg.Watcher, metrics, log)

	if once {
		stats := w.RunCycle(ctx)
		log.Info("Cycle complete",
			logger.Int("due", stats.Due),
			logger.Int("succeeded", stats.Succeeded),
			logger.Int("failed", stats.Failed),
			logger.Int64("purged", stats.Purged),
		)
		return nil
	}

	return w.Run(ctx)
}

func serveMetrics(addr string, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	log.Info("Metrics listener started", logger.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn("Metrics listener failed", logger.Error(err))
	}
}

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/api"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/config"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/database"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/events"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/logger"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/metadata"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/repository"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/search"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/service"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/summarizer"
)

const shutdownTimeout = 10 * time.Second

// SetupHTTPServer wires repositories, providers, and services into the
// router and wraps it in a server with lifecycle management.
func SetupHTTPServer(
	cfg *config.Config,
	db *database.DB,
	publisher *events.Publisher,
	log logger.Logger,
) *Server {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	monitorRepo := repository.NewMonitorRepository(db.DB(), log)
	resultRepo := repository.NewResultRepository(db.DB(), log)
	reportRepo := repository.NewReportRepository(db.DB(), log)

	registry := buildRegistry(cfg.Search, log)

	searchService := service.NewSearchService(registry, resultRepo, publisher, cfg.Search, log)
	reportService := service.NewReportService(
		reportRepo,
		resultRepo,
		summarizer.NewGeminiClient(cfg.Summarizer, log),
		publisher,
		cfg.Reports.RetentionDays,
		log,
	)

	router := api.NewRouter(api.Deps{
		Monitors:  monitorRepo,
		Searcher:  searchService,
		Results:   resultRepo,
		Extractor: metadata.NewExtractor(log),
		Reports:   reportService,
		Events:    publisher,
		Config:    cfg,
		Metrics:   api.NewMetrics(nil),
		Health:    db,
		Logger:    log,
	})

	return NewServer(cfg, router, log)
}

// buildRegistry registers providers in the order configuration lists them,
// which is also the fallback order. Leaving a provider off the list
// disables it.
func buildRegistry(cfg config.SearchConfig, log logger.Logger) *search.Registry {
	available := map[string]search.Provider{
		"google":  search.NewGoogleProvider(cfg, log),
		"newsrss": search.NewNewsRSSProvider(cfg, log),
	}

	providers := make([]search.Provider, 0, len(available))
	for _, name := range cfg.Providers {
		p, ok := available[name]
		if !ok {
			log.Warn("Ignoring unknown search provider", logger.String("provider", name))
			continue
		}
		providers = append(providers, p)
		delete(available, name)
	}

	return search.NewRegistry(providers...)
}

// Server wraps an http.Server with graceful shutdown on SIGINT/SIGTERM.
type Server struct {
	server *http.Server
	logger logger.Logger
}

func NewServer(cfg *config.Config, handler http.Handler, log logger.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:      handler,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		logger: log,
	}
}

// Run starts the server and blocks until a shutdown signal arrives or the
// listener fails.
func (s *Server) Run() error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		s.logger.Info("Shutdown signal received",
			logger.String("signal", sig.String()),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("HTTP server stopped gracefully")
	return nil
}

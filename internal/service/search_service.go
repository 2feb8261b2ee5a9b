// Package service orchestrates searches and report generation on top of the
// repositories, the provider registry, and the summarizer.
package service

import (
	"context"
	"fmt"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/config"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/events"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/logger"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/models"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/retry"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/search"
)

// ResultStore is the persistence surface the search service writes through.
type ResultStore interface {
	UpsertBatch(ctx context.Context, results []models.SearchResult) (stored, duplicates int, err error)
}

// SearchService runs keyword searches against a provider and caches the hits.
type SearchService struct {
	registry          *search.Registry
	store             ResultStore
	events            *events.Publisher
	logger            logger.Logger
	retryCfg          retry.Config
	defaultMaxResults int
}

// NewSearchService creates a search service. The publisher may be nil when
// event publishing is disabled.
func NewSearchService(
	registry *search.Registry,
	store ResultStore,
	publisher *events.Publisher,
	cfg config.SearchConfig,
	log logger.Logger,
) *SearchService {
	return &SearchService{
		registry: registry,
		store:    store,
		events:   publisher,
		logger:   log,
		retryCfg: retry.Config{
			MaxAttempts: cfg.MaxRetries,
			Delay:       cfg.RetryDelay,
			IsRetryable: search.IsRetryable,
		},
		defaultMaxResults: cfg.MaxResultsDefault,
	}
}

// Run executes one keyword search and stores the hits. Provider failures are
// retried on a fixed delay before giving up; hits already in the cache are
// absorbed and only counted.
func (s *SearchService) Run(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	if err := req.Validate(s.defaultMaxResults); err != nil {
		return nil, err
	}

	provider, err := s.registry.Pick(req.Provider)
	if err != nil {
		return nil, err
	}

	var hits []search.Result
	err = retry.Do(ctx, s.retryCfg, func() error {
		var searchErr error
		hits, searchErr = provider.Search(ctx, req.Keyword, req.MaxResults)
		return searchErr
	})
	if err != nil {
		s.logger.Error("Search failed",
			logger.String("keyword", req.Keyword),
			logger.String("provider", provider.Name()),
			logger.Error(err),
		)
		return nil, fmt.Errorf("search %q: %w", req.Keyword, err)
	}

	results := make([]models.SearchResult, 0, len(hits))
	for i := range hits {
		hit := &hits[i]
		results = append(results, models.SearchResult{
			MonitorID:        req.MonitorID,
			Keyword:          req.Keyword,
			Title:            hit.Title,
			Snippet:          hit.Snippet,
			URL:              hit.URL,
			Source:           hit.Source,
			Provider:         provider.Name(),
			PublishedDate:    hit.PublishedDate,
			IsFromMonitoring: req.MonitorID != nil,
			Metadata:         hit.Metadata,
		})
	}

	stored, duplicates, err := s.store.UpsertBatch(ctx, results)
	if err != nil {
		return nil, fmt.Errorf("store results for %q: %w", req.Keyword, err)
	}

	s.logger.Info("Search completed",
		logger.String("keyword", req.Keyword),
		logger.String("provider", provider.Name()),
		logger.Int("returned", len(results)),
		logger.Int("stored", stored),
		logger.Int("duplicates", duplicates),
	)

	event := events.MonitorEvent{
		EventType: events.ResultsIngested,
		Payload: events.ResultsIngestedPayload{
			Keyword:    req.Keyword,
			Provider:   provider.Name(),
			Stored:     stored,
			Duplicates: duplicates,
		},
	}
	if req.MonitorID != nil {
		event.MonitorID = *req.MonitorID
	}
	s.events.PublishAsync(event)

	return &models.SearchResponse{
		Keyword:    req.Keyword,
		Provider:   provider.Name(),
		Requested:  req.MaxResults,
		Returned:   len(results),
		Stored:     stored,
		Duplicates: duplicates,
		Results:    results,
	}, nil
}

// Providers lists the registered provider names in fallback order.
func (s *SearchService) Providers() []string {
	return s.registry.Names()
}

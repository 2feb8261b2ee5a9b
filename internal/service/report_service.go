package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/events"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/logger"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/models"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/summarizer"
)

// ReportStore is the persistence surface for generated reports.
type ReportStore interface {
	Create(ctx context.Context, report *models.Report, resultIDs []string) error
	Get(ctx context.Context, id string) (*models.Report, error)
	List(ctx context.Context) ([]models.Report, error)
	ListByKeyword(ctx context.Context, keyword string) ([]models.Report, error)
	Delete(ctx context.Context, id string) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ResultLister reads cached results for report assembly.
type ResultLister interface {
	ListForKeywords(ctx context.Context, keywords []string, from, to time.Time) ([]models.SearchResult, error)
}

// ReportService assembles reports from cached results. It never hits a search
// provider; a report reflects what monitoring has already collected.
type ReportService struct {
	reports    ReportStore
	results    ResultLister
	summarizer summarizer.Summarizer
	events     *events.Publisher
	logger     logger.Logger
	retention  time.Duration
}

// NewReportService creates a report service. The summarizer and publisher may
// be nil; reports then carry no summary and emit no events.
func NewReportService(
	reports ReportStore,
	results ResultLister,
	sum summarizer.Summarizer,
	publisher *events.Publisher,
	retentionDays int,
	log logger.Logger,
) *ReportService {
	return &ReportService{
		reports:    reports,
		results:    results,
		summarizer: sum,
		events:     publisher,
		logger:     log,
		retention:  time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// Generate builds and stores a new report over the cached results for the
// requested keywords and date range. Generating twice over the same inputs
// creates two reports. A summarizer failure downgrades the report to one
// without a summary instead of failing the generation.
func (s *ReportService) Generate(ctx context.Context, req *models.GenerateReportRequest) (*models.Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	results, err := s.results.ListForKeywords(ctx, req.Keywords, req.FromDate, req.ToDate)
	if err != nil {
		return nil, fmt.Errorf("collect report results: %w", err)
	}

	// The same URL can be cached under several keywords; a report lists it once.
	results = dedupeByURL(results)

	report := &models.Report{
		Title:       req.Title,
		Keywords:    pq.StringArray(req.Keywords),
		FromUtc:     req.FromDate.UTC(),
		ToUtc:       req.ToDate.UTC(),
		GeneratedBy: req.GeneratedBy,
	}

	if req.IncludeSummary {
		if summary := s.summarize(ctx, req.Keywords, results); summary != "" {
			report.Summary = &summary
		}
	}

	resultIDs := make([]string, 0, len(results))
	for i := range results {
		resultIDs = append(resultIDs, results[i].ID)
	}

	if err := s.reports.Create(ctx, report, resultIDs); err != nil {
		return nil, fmt.Errorf("store report: %w", err)
	}
	report.Results = results

	s.logger.Info("Report generated",
		logger.String("report_id", report.ID),
		logger.Strings("keywords", req.Keywords),
		logger.Int("total_results", report.TotalResults),
		logger.Bool("has_summary", report.Summary != nil),
	)

	s.events.PublishAsync(events.MonitorEvent{
		EventType: events.ReportGenerated,
		Payload: events.ReportGeneratedPayload{
			ReportID:     report.ID,
			Keywords:     req.Keywords,
			TotalResults: report.TotalResults,
			HasSummary:   report.Summary != nil,
		},
	})

	return report, nil
}

// summarize returns a digest of the results, or "" when the summarizer is
// absent, unconfigured, has nothing to digest, or fails.
func (s *ReportService) summarize(ctx context.Context, keywords []string, results []models.SearchResult) string {
	if s.summarizer == nil || !s.summarizer.IsConfigured() || len(results) == 0 {
		return ""
	}

	summary, err := s.summarizer.Summarize(ctx, keywords, results)
	if err != nil {
		s.logger.Warn("Summarizer failed, report continues without summary",
			logger.Strings("keywords", keywords),
			logger.Error(err),
		)
		return ""
	}
	return summary
}

// Get returns one report with its member results.
func (s *ReportService) Get(ctx context.Context, id string) (*models.Report, error) {
	return s.reports.Get(ctx, id)
}

// List returns all report headers, newest first.
func (s *ReportService) List(ctx context.Context) ([]models.Report, error) {
	return s.reports.List(ctx)
}

// ListByKeyword returns the report headers covering the keyword.
func (s *ReportService) ListByKeyword(ctx context.Context, keyword string) ([]models.Report, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, models.NewValidationError("keyword", "keyword is required")
	}
	return s.reports.ListByKeyword(ctx, keyword)
}

// Delete removes a report. Member results stay cached.
func (s *ReportService) Delete(ctx context.Context, id string) error {
	return s.reports.Delete(ctx, id)
}

// Purge deletes reports older than the retention window and reports how many
// were removed. A zero retention disables purging.
func (s *ReportService) Purge(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-s.retention)
	purged, err := s.reports.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge reports: %w", err)
	}
	return purged, nil
}

// dedupeByURL drops later rows sharing a URL, keeping first occurrence. Input
// order is freshest-first, so the freshest row survives.
func dedupeByURL(results []models.SearchResult) []models.SearchResult {
	seen := make(map[string]struct{}, len(results))
	out := make([]models.SearchResult, 0, len(results))
	for i := range results {
		url := results[i].URL
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		out = append(out, results[i])
	}
	return out
}

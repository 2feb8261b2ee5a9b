// Package summarizer produces short natural-language digests of report
// results. Summaries are best-effort; report generation never fails on a
// summarizer error.
package summarizer

import (
	"context"
	"errors"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/models"
)

// ErrNotConfigured is returned when the backing model has no credentials.
var ErrNotConfigured = errors.New("summarizer not configured")

// Summarizer condenses a report's results into a few sentences.
type Summarizer interface {
	IsConfigured() bool
	Summarize(ctx context.Context, keywords []string, results []models.SearchResult) (string, error)
}

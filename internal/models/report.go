package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// Report is a generated artifact bundling cached results for a keyword set
// and date range. Regenerating over the same inputs creates a new report; an
// existing report is never mutated.
type Report struct {
	ID           string         `json:"id" db:"id"`
	Title        string         `json:"title" db:"title"`
	Keywords     pq.StringArray `json:"keywords" db:"keywords"`
	FromUtc      time.Time      `json:"from_utc" db:"from_utc"`
	ToUtc        time.Time      `json:"to_utc" db:"to_utc"`
	GeneratedUtc time.Time      `json:"generated_utc" db:"generated_utc"`
	GeneratedBy  string         `json:"generated_by" db:"generated_by"`
	TotalResults int            `json:"total_results" db:"total_results"`
	Summary      *string        `json:"summary,omitempty" db:"summary"`
	ArtifactPath *string        `json:"artifact_path,omitempty" db:"artifact_path"`

	// Results are the member rows; populated on single-report fetches only.
	Results []SearchResult `json:"results,omitempty" db:"-"`
}

// GenerateReportRequest is the payload for report generation.
type GenerateReportRequest struct {
	Title          string    `json:"title"`
	Keywords       []string  `json:"keywords"`
	FromDate       time.Time `json:"from_date"`
	ToDate         time.Time `json:"to_date"`
	IncludeSummary bool      `json:"include_summary"`
	GeneratedBy    string    `json:"generated_by"`
}

// Validate checks the generation payload and fills defaults in place.
func (r *GenerateReportRequest) Validate() error {
	cleaned := make([]string, 0, len(r.Keywords))
	for _, kw := range r.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			cleaned = append(cleaned, kw)
		}
	}
	r.Keywords = cleaned
	if len(r.Keywords) == 0 {
		return NewValidationError("keywords", "at least one keyword is required")
	}
	if r.FromDate.IsZero() || r.ToDate.IsZero() {
		return NewValidationError("from_date", "from_date and to_date are required")
	}
	if !r.FromDate.Before(r.ToDate) {
		return NewValidationError("from_date", "from_date must be before to_date")
	}
	if r.Title == "" {
		r.Title = "Keyword report: " + strings.Join(r.Keywords, ", ")
	}
	if r.GeneratedBy == "" {
		r.GeneratedBy = "api"
	}
	return nil
}

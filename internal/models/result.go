package models

import (
	"encoding/json"
	"strings"
	"time"
)

// SearchResult is one normalized provider hit cached for a keyword. The
// (keyword, url) pair is unique in the store; a repeated insert of the same
// pair is silently absorbed.
type SearchResult struct {
	ID               string          `json:"id" db:"id"`
	MonitorID        *string         `json:"monitor_id,omitempty" db:"monitor_id"`
	Keyword          string          `json:"keyword" db:"keyword"`
	Title            string          `json:"title" db:"title"`
	Snippet          string          `json:"snippet" db:"snippet"`
	URL              string          `json:"url" db:"url"`
	Source           string          `json:"source" db:"source"`
	Provider         string          `json:"provider" db:"provider"`
	PublishedDate    *time.Time      `json:"published_date,omitempty" db:"published_date"`
	RetrievedUtc     time.Time       `json:"retrieved_utc" db:"retrieved_utc"`
	IsFromMonitoring bool            `json:"is_from_monitoring" db:"is_from_monitoring"`
	Metadata         json.RawMessage `json:"metadata,omitempty" db:"metadata"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100

	maxSearchResults = 100
)

// SearchRequest is the payload for running a keyword search against a
// provider. A request carrying a MonitorID is scheduler traffic and its rows
// are flagged as monitoring results.
type SearchRequest struct {
	Keyword    string  `json:"keyword"`
	MaxResults int     `json:"max_results"`
	Provider   string  `json:"provider,omitempty"`
	MonitorID  *string `json:"monitor_id,omitempty"`
}

// Validate checks the search payload and fills defaults in place.
func (r *SearchRequest) Validate(defaultMaxResults int) error {
	r.Keyword = strings.TrimSpace(r.Keyword)
	if r.Keyword == "" {
		return NewValidationError("keyword", "keyword is required")
	}
	if r.MaxResults == 0 {
		r.MaxResults = defaultMaxResults
	}
	if r.MaxResults < 0 {
		return NewValidationError("max_results", "max results must be positive")
	}
	if r.MaxResults > maxSearchResults {
		r.MaxResults = maxSearchResults
	}
	return nil
}

// SearchResponse reports the outcome of one provider search, including how
// many hits were new to the cache versus already present.
type SearchResponse struct {
	Keyword    string         `json:"keyword"`
	Provider   string         `json:"provider"`
	Requested  int            `json:"requested"`
	Returned   int            `json:"returned"`
	Stored     int            `json:"stored"`
	Duplicates int            `json:"duplicates"`
	Results    []SearchResult `json:"results"`
}

// ResultsFilter selects cached results for a keyword, optionally bounded on
// retrieval time.
type ResultsFilter struct {
	Keyword  string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// Validate checks the filter and normalizes pagination in place.
func (f *ResultsFilter) Validate() error {
	f.Keyword = strings.TrimSpace(f.Keyword)
	if f.Keyword == "" {
		return NewValidationError("keyword", "keyword is required")
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return NewValidationError("fromDate", "fromDate must be before toDate")
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	return nil
}

// ResultsPage is one page of cached results plus pagination bookkeeping.
type ResultsPage struct {
	Results     []SearchResult `json:"results"`
	Total       int            `json:"total"`
	Page        int            `json:"page"`
	PageSize    int            `json:"page_size"`
	TotalPages  int            `json:"total_pages"`
	HasNext     bool           `json:"has_next"`
	HasPrevious bool           `json:"has_previous"`
}

// NewResultsPage derives the pagination flags for a page of results.
func NewResultsPage(results []SearchResult, total, page, pageSize int) *ResultsPage {
	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return &ResultsPage{
		Results:     results,
		Total:       total,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

// Package models holds the domain types shared by the repositories,
// handlers, and the watcher client.
package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// Monitor is a tracked search keyword checked on an interval.
type Monitor struct {
	ID                   string         `json:"id" db:"id"`
	Keyword              string         `json:"keyword" db:"keyword"`
	IsActive             bool           `json:"is_active" db:"is_active"`
	CheckIntervalMinutes int            `json:"check_interval_minutes" db:"check_interval_minutes"`
	MaxResults           int            `json:"max_results" db:"max_results"`
	Tags                 pq.StringArray `json:"tags" db:"tags"`
	CreatedBy            string         `json:"created_by" db:"created_by"`
	LastCheckedUtc       *time.Time     `json:"last_checked_utc,omitempty" db:"last_checked_utc"`
	CreatedAt            time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at" db:"updated_at"`
}

// EffectiveInterval returns the monitor's own check interval, or the given
// default when the monitor does not carry a positive interval of its own.
// The monitor's interval is the authoritative one for the due test.
func (m *Monitor) EffectiveInterval(defaultMinutes int) int {
	if m.CheckIntervalMinutes > 0 {
		return m.CheckIntervalMinutes
	}
	return defaultMinutes
}

// IsDue reports whether the monitor needs a fresh check at the given instant.
// Inactive monitors are never due; a monitor that has never been checked is
// always due. The boundary is inclusive: elapsed == interval means due.
func (m *Monitor) IsDue(now time.Time, defaultIntervalMinutes int) bool {
	if !m.IsActive {
		return false
	}
	if m.LastCheckedUtc == nil {
		return true
	}
	interval := time.Duration(m.EffectiveInterval(defaultIntervalMinutes)) * time.Minute
	return !m.LastCheckedUtc.After(now.Add(-interval))
}

// CreateMonitorRequest is the payload for creating a monitor.
type CreateMonitorRequest struct {
	Keyword              string   `json:"keyword"`
	CheckIntervalMinutes int      `json:"check_interval_minutes"`
	MaxResults           int      `json:"max_results"`
	Tags                 []string `json:"tags"`
	CreatedBy            string   `json:"created_by"`
}

// Validate checks the create payload and fills defaults in place.
func (r *CreateMonitorRequest) Validate(defaultIntervalMinutes int) error {
	r.Keyword = strings.TrimSpace(r.Keyword)
	if r.Keyword == "" {
		return NewValidationError("keyword", "keyword is required")
	}
	if r.CheckIntervalMinutes == 0 {
		r.CheckIntervalMinutes = defaultIntervalMinutes
	}
	if r.CheckIntervalMinutes <= 0 {
		return NewValidationError("check_interval_minutes", "check interval must be positive")
	}
	if r.MaxResults == 0 {
		r.MaxResults = DefaultMaxResults
	}
	if r.MaxResults <= 0 {
		return NewValidationError("max_results", "max results must be positive")
	}
	if r.CreatedBy == "" {
		r.CreatedBy = "api"
	}
	return nil
}

// DefaultMaxResults bounds a monitor check when the caller does not set one.
const DefaultMaxResults = 10

// UpdateMonitorRequest carries a partial monitor update. Nil fields are left
// untouched.
type UpdateMonitorRequest struct {
	Keyword              *string    `json:"keyword,omitempty"`
	IsActive             *bool      `json:"is_active,omitempty"`
	CheckIntervalMinutes *int       `json:"check_interval_minutes,omitempty"`
	MaxResults           *int       `json:"max_results,omitempty"`
	Tags                 *[]string  `json:"tags,omitempty"`
	LastCheckedUtc       *time.Time `json:"last_checked_utc,omitempty"`
}

// Validate rejects updates that would leave the monitor invalid.
func (r *UpdateMonitorRequest) Validate() error {
	if r.Keyword != nil {
		trimmed := strings.TrimSpace(*r.Keyword)
		if trimmed == "" {
			return NewValidationError("keyword", "keyword cannot be blank")
		}
		*r.Keyword = trimmed
	}
	if r.CheckIntervalMinutes != nil && *r.CheckIntervalMinutes <= 0 {
		return NewValidationError("check_interval_minutes", "check interval must be positive")
	}
	if r.MaxResults != nil && *r.MaxResults <= 0 {
		return NewValidationError("max_results", "max results must be positive")
	}
	return nil
}

// IsEmpty reports whether the update carries no changes at all.
func (r *UpdateMonitorRequest) IsEmpty() bool {
	return r.Keyword == nil && r.IsActive == nil && r.CheckIntervalMinutes == nil &&
		r.MaxResults == nil && r.Tags == nil && r.LastCheckedUtc == nil
}

// Package events provides monitor lifecycle event publishing over Redis
// Streams for downstream consumers.
package events

import (
	"time"

	"github.com/google/uuid"
)

// StreamName is the Redis stream for monitor events.
const StreamName = "monitor-events"

// ConsumerGroup is the consumer group for downstream workers.
const ConsumerGroup = "monitor-consumers"

// EventType represents the type of monitor event.
type EventType string

const (
	// MonitorCreated indicates a new keyword monitor was created.
	MonitorCreated EventType = "MONITOR_CREATED"
	// MonitorUpdated indicates an existing monitor was modified.
	MonitorUpdated EventType = "MONITOR_UPDATED"
	// MonitorDeleted indicates a monitor was deleted.
	MonitorDeleted EventType = "MONITOR_DELETED"
	// MonitorActivated indicates a monitor was switched on.
	MonitorActivated EventType = "MONITOR_ACTIVATED"
	// MonitorDeactivated indicates a monitor was switched off.
	MonitorDeactivated EventType = "MONITOR_DEACTIVATED"
	// ResultsIngested indicates a search stored fresh results.
	ResultsIngested EventType = "RESULTS_INGESTED"
	// ReportGenerated indicates a report was assembled and persisted.
	ReportGenerated EventType = "REPORT_GENERATED"
)

// MonitorEvent is the envelope for all monitor-related events.
type MonitorEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType EventType `json:"event_type"`
	MonitorID string    `json:"monitor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// MonitorPayload contains data for MONITOR_CREATED/UPDATED events.
type MonitorPayload struct {
	Keyword              string   `json:"keyword"`
	IsActive             bool     `json:"is_active"`
	CheckIntervalMinutes int      `json:"check_interval_minutes"`
	MaxResults           int      `json:"max_results"`
	Tags                 []string `json:"tags,omitempty"`
}

// MonitorDeletedPayload contains data for MONITOR_DELETED events.
type MonitorDeletedPayload struct {
	Keyword string `json:"keyword"`
}

// MonitorTogglePayload contains data for MONITOR_ACTIVATED/DEACTIVATED events.
type MonitorTogglePayload struct {
	ToggledBy string `json:"toggled_by"` // "user" or "scheduler"
}

// ResultsIngestedPayload contains data for RESULTS_INGESTED events.
type ResultsIngestedPayload struct {
	Keyword    string `json:"keyword"`
	Provider   string `json:"provider"`
	Stored     int    `json:"stored"`
	Duplicates int    `json:"duplicates"`
}

// ReportGeneratedPayload contains data for REPORT_GENERATED events.
type ReportGeneratedPayload struct {
	ReportID     string   `json:"report_id"`
	Keywords     []string `json:"keywords"`
	TotalResults int      `json:"total_results"`
	HasSummary   bool     `json:"has_summary"`
}

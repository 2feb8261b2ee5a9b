// Package repository implements Postgres persistence for monitors, cached
// search results, and generated reports.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/logger"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/models"
)

const monitorColumns = `id, keyword, is_active, check_interval_minutes, max_results,
	tags, created_by, last_checked_utc, created_at, updated_at`

type MonitorRepository struct {
	db     *sqlx.DB
	logger logger.Logger
}

func NewMonitorRepository(db *sqlx.DB, log logger.Logger) *MonitorRepository {
	return &MonitorRepository{
		db:     db,
		logger: log,
	}
}

func (r *MonitorRepository) Create(ctx context.Context, req *models.CreateMonitorRequest) (*models.Monitor, error) {
	now := time.Now().UTC()
	monitor := &models.Monitor{
		ID:                   uuid.New().String(),
		Keyword:              req.Keyword,
		IsActive:             true,
		CheckIntervalMinutes: req.CheckIntervalMinutes,
		MaxResults:           req.MaxResults,
		Tags:                 pq.StringArray(req.Tags),
		CreatedBy:            req.CreatedBy,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if monitor.Tags == nil {
		monitor.Tags = pq.StringArray{}
	}

	query := `
		INSERT INTO keyword_monitors (
			id, keyword, is_active, check_interval_minutes, max_results,
			tags, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx,
		query,
		monitor.ID,
		monitor.Keyword,
		monitor.IsActive,
		monitor.CheckIntervalMinutes,
		monitor.MaxResults,
		monitor.Tags,
		monitor.CreatedBy,
		monitor.CreatedAt,
		monitor.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert monitor: %w", err)
	}

	return monitor, nil
}

func (r *MonitorRepository) Get(ctx context.Context, id string) (*models.Monitor, error) {
	var monitor models.Monitor

	query := `SELECT ` + monitorColumns + ` FROM keyword_monitors WHERE id = $1`

	err := r.db.GetContext(ctx, &monitor, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrMonitorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query monitor: %w", err)
	}

	return &monitor, nil
}

// List returns all monitors, optionally only the active ones, newest first.
func (r *MonitorRepository) List(ctx context.Context, activeOnly bool) ([]models.Monitor, error) {
	query := `SELECT ` + monitorColumns + ` FROM keyword_monitors`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY created_at DESC`

	monitors := []models.Monitor{}
	if err := r.db.SelectContext(ctx, &monitors, query); err != nil {
		return nil, fmt.Errorf("list monitors: %w", err)
	}

	return monitors, nil
}

// ListDue returns active monitors whose elapsed time since the last check
// meets or exceeds their interval at the given instant. A monitor's own
// check_interval_minutes is authoritative; defaultIntervalMinutes only
// applies to monitors without a positive interval. Never-checked monitors
// are always due. The comparison boundary is inclusive.
func (r *MonitorRepository) ListDue(ctx context.Context, now time.Time, defaultIntervalMinutes int) ([]models.Monitor, error) {
	query := `
		SELECT ` + monitorColumns + `
		FROM keyword_monitors
		WHERE is_active = true
		  AND (
			last_checked_utc IS NULL
			OR last_checked_utc <= $1::timestamptz - make_interval(mins =>
				CASE WHEN check_interval_minutes > 0 THEN check_interval_minutes ELSE $2 END)
		  )
		ORDER BY last_checked_utc ASC NULLS FIRST
	`

	monitors := []models.Monitor{}
	if err := r.db.SelectContext(ctx, &monitors, query, now, defaultIntervalMinutes); err != nil {
		return nil, fmt.Errorf("list due monitors: %w", err)
	}

	return monitors, nil
}

// Update applies the non-nil fields of req and returns the updated monitor.
func (r *MonitorRepository) Update(ctx context.Context, id string, req *models.UpdateMonitorRequest) (*models.Monitor, error) {
	set := make([]string, 0, 6)
	args := make([]any, 0, 7)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if req.Keyword != nil {
		set = append(set, "keyword = "+arg(*req.Keyword))
	}
	if req.IsActive != nil {
		set = append(set, "is_active = "+arg(*req.IsActive))
	}
	if req.CheckIntervalMinutes != nil {
		set = append(set, "check_interval_minutes = "+arg(*req.CheckIntervalMinutes))
	}
	if req.MaxResults != nil {
		set = append(set, "max_results = "+arg(*req.MaxResults))
	}
	if req.Tags != nil {
		set = append(set, "tags = "+arg(pq.StringArray(*req.Tags)))
	}
	if req.LastCheckedUtc != nil {
		set = append(set, "last_checked_utc = "+arg(req.LastCheckedUtc.UTC()))
	}
	set = append(set, "updated_at = now()")

	query := fmt.Sprintf(`
		UPDATE keyword_monitors
		SET %s
		WHERE id = %s
		RETURNING %s`, strings.Join(set, ", "), arg(id), monitorColumns)

	var monitor models.Monitor
	err := r.db.GetContext(ctx, &monitor, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrMonitorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update monitor: %w", err)
	}

	return &monitor, nil
}

func (r *MonitorRepository) ToggleActive(ctx context.Context, id string, active bool) (*models.Monitor, error) {
	query := `
		UPDATE keyword_monitors
		SET is_active = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + monitorColumns

	var monitor models.Monitor
	err := r.db.GetContext(ctx, &monitor, query, id, active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrMonitorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("toggle monitor: %w", err)
	}

	return &monitor, nil
}

// Delete removes the monitor. Cached results survive with their monitor
// reference detached by the schema's ON DELETE SET NULL.
func (r *MonitorRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM keyword_monitors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete monitor: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete monitor rows affected: %w", err)
	}
	if affected == 0 {
		return models.ErrMonitorNotFound
	}

	return nil
}

// Count reports the total number of monitors, for the creation cap.
func (r *MonitorRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM keyword_monitors`); err != nil {
		return 0, fmt.Errorf("count monitors: %w", err)
	}
	return count, nil
}

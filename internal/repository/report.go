package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/logger"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/models"
)

const reportColumns = `id, title, keywords, from_utc, to_utc, generated_utc,
	generated_by, total_results, summary, artifact_path`

type ReportRepository struct {
	db     *sqlx.DB
	logger logger.Logger
}

func NewReportRepository(db *sqlx.DB, log logger.Logger) *ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: log,
	}
}

// Create persists the report and its result memberships in one transaction.
// The report's ID and GeneratedUtc are assigned here.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report, resultIDs []string) error {
	report.ID = uuid.New().String()
	report.GeneratedUtc = time.Now().UTC()
	report.TotalResults = len(resultIDs)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin report transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insertReport := `
		INSERT INTO reports (
			id, title, keywords, from_utc, to_utc, generated_utc,
			generated_by, total_results, summary, artifact_path
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = tx.ExecContext(ctx,
		insertReport,
		report.ID,
		report.Title,
		report.Keywords,
		report.FromUtc,
		report.ToUtc,
		report.GeneratedUtc,
		report.GeneratedBy,
		report.TotalResults,
		report.Summary,
		report.ArtifactPath,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	if len(resultIDs) > 0 {
		insertMembers := `
			INSERT INTO report_results (report_id, result_id)
			SELECT $1, unnest($2::uuid[])
		`
		if _, err = tx.ExecContext(ctx, insertMembers, report.ID, pq.StringArray(resultIDs)); err != nil {
			return fmt.Errorf("insert report members: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit report: %w", err)
	}

	return nil
}

// Get fetches one report with its member results attached.
func (r *ReportRepository) Get(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report

	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`

	err := r.db.GetContext(ctx, &report, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query report: %w", err)
	}

	members := `
		SELECT sr.id, sr.monitor_id, sr.keyword, sr.title, sr.snippet, sr.url,
		       sr.source, sr.provider, sr.published_date, sr.retrieved_utc,
		       sr.is_from_monitoring, sr.metadata
		FROM search_results sr
		JOIN report_results rr ON rr.result_id = sr.id
		WHERE rr.report_id = $1
		ORDER BY sr.published_date DESC NULLS LAST, sr.retrieved_utc DESC
	`

	report.Results = []models.SearchResult{}
	if err := r.db.SelectContext(ctx, &report.Results, members, id); err != nil {
		return nil, fmt.Errorf("query report members: %w", err)
	}

	return &report, nil
}

// List returns all reports without member rows, newest first.
func (r *ReportRepository) List(ctx context.Context) ([]models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports ORDER BY generated_utc DESC`

	reports := []models.Report{}
	if err := r.db.SelectContext(ctx, &reports, query); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	return reports, nil
}

// ListByKeyword returns reports whose keyword set contains the keyword.
func (r *ReportRepository) ListByKeyword(ctx context.Context, keyword string) ([]models.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE $1 = ANY(keywords)
		ORDER BY generated_utc DESC
	`

	reports := []models.Report{}
	if err := r.db.SelectContext(ctx, &reports, query, keyword); err != nil {
		return nil, fmt.Errorf("list reports by keyword: %w", err)
	}

	return reports, nil
}

// Delete removes a report; member results are untouched beyond the join rows.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete report rows affected: %w", err)
	}
	if affected == 0 {
		return models.ErrReportNotFound
	}

	return nil
}

// PurgeOlderThan deletes reports generated before the cutoff and reports how
// many were removed.
func (r *ReportRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE generated_utc < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge reports: %w", err)
	}

	purged, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge reports rows affected: %w", err)
	}

	if purged > 0 {
		r.logger.Info("Purged expired reports",
			logger.Int64("purged", purged),
			logger.Time("cutoff", cutoff),
		)
	}

	return purged, nil
}

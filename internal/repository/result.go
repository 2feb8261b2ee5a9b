package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/logger"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/models"
)

const resultColumns = `id, monitor_id, keyword, title, snippet, url, source, provider,
	published_date, retrieved_utc, is_from_monitoring, metadata`

type ResultRepository struct {
	db     *sqlx.DB
	logger logger.Logger
}

func NewResultRepository(db *sqlx.DB, log logger.Logger) *ResultRepository {
	return &ResultRepository{
		db:     db,
		logger: log,
	}
}

// Upsert inserts one result. When the (keyword, url) pair already exists the
// insert is silently absorbed and Upsert reports stored=false with no error.
func (r *ResultRepository) Upsert(ctx context.Context, result *models.SearchResult) (bool, error) {
	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	if result.RetrievedUtc.IsZero() {
		result.RetrievedUtc = time.Now().UTC()
	}
	if len(result.Metadata) == 0 {
		result.Metadata = json.RawMessage(`{}`)
	}

	query := `
		INSERT INTO search_results (
			id, monitor_id, keyword, title, snippet, url, source, provider,
			published_date, retrieved_utc, is_from_monitoring, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (keyword, url) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx,
		query,
		result.ID,
		result.MonitorID,
		result.Keyword,
		result.Title,
		result.Snippet,
		result.URL,
		result.Source,
		result.Provider,
		result.PublishedDate,
		result.RetrievedUtc,
		result.IsFromMonitoring,
		[]byte(result.Metadata),
	)
	if err != nil {
		return false, fmt.Errorf("insert result: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert result rows affected: %w", err)
	}

	return affected == 1, nil
}

// UpsertBatch stores a provider batch row by row and reports how many rows
// were new versus silently absorbed duplicates. Rows are independent; there
// is no transaction so a partial batch is safe to retry.
func (r *ResultRepository) UpsertBatch(ctx context.Context, results []models.SearchResult) (stored, duplicates int, err error) {
	for i := range results {
		inserted, upsertErr := r.Upsert(ctx, &results[i])
		if upsertErr != nil {
			return stored, duplicates, fmt.Errorf("upsert result %q: %w", results[i].URL, upsertErr)
		}
		if inserted {
			stored++
		} else {
			duplicates++
		}
	}
	return stored, duplicates, nil
}

// resultOrder ranks fresh publications first; rows without a published date
// fall back to their retrieval time.
const resultOrder = ` ORDER BY published_date DESC NULLS LAST, retrieved_utc DESC`

// Query returns one page of cached results for the filter, with totals.
func (r *ResultRepository) Query(ctx context.Context, filter *models.ResultsFilter) (*models.ResultsPage, error) {
	where, args := resultFilterClause(filter.Keyword, filter.From, filter.To)

	total, err := r.countWhere(ctx, where, args)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + resultColumns + ` FROM search_results` + where + resultOrder +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	results := []models.SearchResult{}
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}

	return models.NewResultsPage(results, total, filter.Page, filter.PageSize), nil
}

// Count reports how many cached results match the keyword and optional
// retrieval-time bounds.
func (r *ResultRepository) Count(ctx context.Context, keyword string, from, to *time.Time) (int, error) {
	where, args := resultFilterClause(keyword, from, to)
	return r.countWhere(ctx, where, args)
}

func (r *ResultRepository) countWhere(ctx context.Context, where string, args []any) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM search_results` + where
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count results: %w", err)
	}
	return count, nil
}

func resultFilterClause(keyword string, from, to *time.Time) (string, []any) {
	where := ` WHERE keyword = $1`
	args := []any{keyword}
	if from != nil {
		args = append(args, from.UTC())
		where += fmt.Sprintf(" AND retrieved_utc >= $%d", len(args))
	}
	if to != nil {
		args = append(args, to.UTC())
		where += fmt.Sprintf(" AND retrieved_utc < $%d", len(args))
	}
	return where, args
}

// ListForKeywords returns all cached results for any of the keywords within
// the retrieval-time range, ordered for report assembly.
func (r *ResultRepository) ListForKeywords(ctx context.Context, keywords []string, from, to time.Time) ([]models.SearchResult, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM search_results
		WHERE keyword = ANY($1)
		  AND retrieved_utc >= $2
		  AND retrieved_utc < $3` + resultOrder

	results := []models.SearchResult{}
	err := r.db.SelectContext(ctx, &results, query, pq.StringArray(keywords), from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("list results for keywords: %w", err)
	}

	return results, nil
}

// Deduplicate removes surplus rows sharing a URL for the keyword, keeping
// the earliest-retrieved row. Cleanup for data ingested before the unique
// constraint existed or through a path that bypassed it.
func (r *ResultRepository) Deduplicate(ctx context.Context, keyword string) (int64, error) {
	query := `
		DELETE FROM search_results
		WHERE keyword = $1
		  AND id NOT IN (
			SELECT DISTINCT ON (url) id
			FROM search_results
			WHERE keyword = $1
			ORDER BY url, retrieved_utc ASC, id ASC
		  )
	`

	res, err := r.db.ExecContext(ctx, query, keyword)
	if err != nil {
		return 0, fmt.Errorf("deduplicate results: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deduplicate rows affected: %w", err)
	}

	if removed > 0 {
		r.logger.Info("Removed duplicate results",
			logger.String("keyword", keyword),
			logger.Int64("removed", removed),
		)
	}

	return removed, nil
}

// UpdatePageMetadata backfills the published date and source label for every
// cached row with the given URL. Fields already set are only overwritten by
// non-empty values.
func (r *ResultRepository) UpdatePageMetadata(ctx context.Context, url string, published *time.Time, source string) (int64, error) {
	query := `
		UPDATE search_results
		SET published_date = COALESCE($2, published_date),
		    source = CASE WHEN $3 <> '' THEN $3 ELSE source END
		WHERE url = $1
	`

	res, err := r.db.ExecContext(ctx, query, url, published, source)
	if err != nil {
		return 0, fmt.Errorf("update result metadata: %w", err)
	}

	updated, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update result metadata rows affected: %w", err)
	}

	return updated, nil
}

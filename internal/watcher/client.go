// Package watcher polls the monitor API on a fixed interval and runs the
// searches for monitors whose check time has arrived. It is a separate
// process from the API and talks to it over HTTP only.
package watcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/config"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/logger"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/models"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/retry"
)

// StatusError is an API response outside the expected status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Body)
}

// IsRetryable treats network failures and server-side statuses as transient.
// A 4xx means the request itself is wrong; retrying cannot help.
func IsRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError ||
			statusErr.StatusCode == http.StatusTooManyRequests
	}
	return retry.DefaultIsRetryable(err)
}

// Client talks to the keyword-monitor HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
	logger  logger.Logger
}

func NewClient(cfg config.WatcherConfig, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		logger:  log,
	}
}

type monitorsResponse struct {
	Monitors []models.Monitor `json:"monitors"`
	Count    int              `json:"count"`
}

type purgeResponse struct {
	Purged int64 `json:"purged"`
}

// ListDueMonitors fetches the monitors whose next check time has arrived.
func (c *Client) ListDueMonitors(ctx context.Context) ([]models.Monitor, error) {
	resp, err := doJSON[monitorsResponse](ctx, c.client,
		http.MethodGet, c.baseURL+"/api/v1/monitors/due", nil, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("list due monitors: %w", err)
	}

	c.logger.Debug("Fetched due monitors", logger.Int("count", resp.Count))
	return resp.Monitors, nil
}

// Search runs one monitored keyword search through the API. The API stores
// the hits before responding, so a successful return means the results are
// cached.
func (c *Client) Search(ctx context.Context, monitor *models.Monitor) (*models.SearchResponse, error) {
	req := models.SearchRequest{
		Keyword:    monitor.Keyword,
		MaxResults: monitor.MaxResults,
		MonitorID:  &monitor.ID,
	}
	resp, err := doJSON[models.SearchResponse](ctx, c.client,
		http.MethodPost, c.baseURL+"/api/v1/search", req, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", monitor.Keyword, err)
	}
	return resp, nil
}

// MarkChecked advances the monitor checkpoint.
func (c *Client) MarkChecked(ctx context.Context, monitorID string, checkedAt time.Time) error {
	req := models.UpdateMonitorRequest{LastCheckedUtc: &checkedAt}
	_, err := doJSON[models.Monitor](ctx, c.client,
		http.MethodPut, c.baseURL+"/api/v1/monitors/"+monitorID, req, http.StatusOK)
	if err != nil {
		return fmt.Errorf("mark monitor %s checked: %w", monitorID, err)
	}
	return nil
}

// PurgeReports removes reports past the retention window.
func (c *Client) PurgeReports(ctx context.Context) (int64, error) {
	resp, err := doJSON[purgeResponse](ctx, c.client,
		http.MethodPost, c.baseURL+"/api/v1/reports/purge", nil, http.StatusOK)
	if err != nil {
		return 0, fmt.Errorf("purge reports: %w", err)
	}
	return resp.Purged, nil
}

// doJSON performs one API request and decodes the JSON response.
func doJSON[T any](
	ctx context.Context,
	client *http.Client,
	method, url string,
	requestBody any,
	wantStatus int,
) (*T, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		payload, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != wantStatus {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	var result T
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &result, nil
}

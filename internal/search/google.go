package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/config"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/logger"
)

// googlePageSize is the largest num value the Custom Search API accepts.
const googlePageSize = 10

// GoogleProvider queries the Google Custom Search JSON API.
type GoogleProvider struct {
	apiKey     string
	engineID   string
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

func NewGoogleProvider(cfg config.SearchConfig, log logger.Logger) *GoogleProvider {
	return &GoogleProvider{
		apiKey:   cfg.Google.APIKey,
		engineID: cfg.Google.EngineID,
		baseURL:  cfg.Google.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: log,
	}
}

func (p *GoogleProvider) Name() string {
	return "google"
}

func (p *GoogleProvider) IsConfigured() bool {
	return p.apiKey != "" && p.engineID != ""
}

type googleResponse struct {
	Items []json.RawMessage `json:"items"`
}

type googleItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
	Pagemap     struct {
		Metatags []map[string]string `json:"metatags"`
	} `json:"pagemap"`
}

// Search pages through the API in blocks of ten until maxResults hits are
// collected or the backend runs dry.
func (p *GoogleProvider) Search(ctx context.Context, keyword string, maxResults int) ([]Result, error) {
	if !p.IsConfigured() {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrNotConfigured}
	}

	results := make([]Result, 0, maxResults)
	for start := 1; len(results) < maxResults; start += googlePageSize {
		num := maxResults - len(results)
		if num > googlePageSize {
			num = googlePageSize
		}

		items, err := p.fetchPage(ctx, keyword, start, num)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			break
		}

		for _, raw := range items {
			if len(results) >= maxResults {
				break
			}
			results = append(results, p.toResult(raw))
		}

		if len(items) < num {
			break
		}
	}

	p.logger.Debug("Google search completed",
		logger.String("keyword", keyword),
		logger.Int("results", len(results)),
	)

	return results, nil
}

func (p *GoogleProvider) fetchPage(ctx context.Context, keyword string, start, num int) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("cx", p.engineID)
	params.Set("q", keyword)
	params.Set("num", strconv.Itoa(num))
	params.Set("start", strconv.Itoa(start))

	endpoint := p.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("execute request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("search API returned status %d", resp.StatusCode),
		}
	}

	var payload googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}

	return payload.Items, nil
}

func (p *GoogleProvider) toResult(raw json.RawMessage) Result {
	var item googleItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return Result{Metadata: raw}
	}

	return Result{
		Title:         item.Title,
		Snippet:       item.Snippet,
		URL:           item.Link,
		Source:        item.DisplayLink,
		PublishedDate: publishedFromMetatags(item.Pagemap.Metatags),
		Metadata:      raw,
	}
}

// publishedFromMetatags digs a publication timestamp out of the pagemap.
// Sites disagree on the tag name, so several are tried in priority order.
func publishedFromMetatags(metatags []map[string]string) *time.Time {
	keys := []string{"article:published_time", "og:updated_time", "date", "dc.date"}
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

	for _, tags := range metatags {
		for _, key := range keys {
			value, ok := tags[key]
			if !ok || value == "" {
				continue
			}
			for _, layout := range layouts {
				if ts, err := time.Parse(layout, value); err == nil {
					utc := ts.UTC()
					return &utc
				}
			}
		}
	}
	return nil
}

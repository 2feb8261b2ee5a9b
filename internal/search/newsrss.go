package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/config"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/logger"
)

// maxFeedBody bounds how much of a feed response is read.
const maxFeedBody = 4 << 20

// NewsRSSProvider searches the Google News RSS endpoint. It needs no
// credentials, which makes it the fallback of last resort.
type NewsRSSProvider struct {
	baseURL    string
	language   string
	country    string
	httpClient *http.Client
	logger     logger.Logger
}

func NewNewsRSSProvider(cfg config.SearchConfig, log logger.Logger) *NewsRSSProvider {
	return &NewsRSSProvider{
		baseURL:  cfg.NewsRSS.BaseURL,
		language: cfg.NewsRSS.Language,
		country:  cfg.NewsRSS.Country,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: log,
	}
}

func (p *NewsRSSProvider) Name() string {
	return "newsrss"
}

func (p *NewsRSSProvider) IsConfigured() bool {
	return true
}

func (p *NewsRSSProvider) Search(ctx context.Context, keyword string, maxResults int) ([]Result, error) {
	feed, err := p.fetchFeed(ctx, keyword)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, maxResults)
	for _, item := range feed.Items {
		if len(results) >= maxResults {
			break
		}
		if item.Link == "" {
			continue
		}
		results = append(results, p.toResult(item))
	}

	p.logger.Debug("News RSS search completed",
		logger.String("keyword", keyword),
		logger.Int("results", len(results)),
	)

	return results, nil
}

func (p *NewsRSSProvider) fetchFeed(ctx context.Context, keyword string) (*gofeed.Feed, error) {
	params := url.Values{}
	params.Set("q", keyword)
	params.Set("hl", p.language)
	params.Set("gl", p.country)
	params.Set("ceid", p.country+":"+languagePrefix(p.language))

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
			Err:        fmt.Errorf("feed returned status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBody))
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("read feed body: %w", err)}
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("parse feed: %w", err)}
	}

	return feed, nil
}

func (p *NewsRSSProvider) toResult(item *gofeed.Item) Result {
	title, source := splitNewsTitle(item.Title)

	result := Result{
		Title:         title,
		Snippet:       stripHTML(item.Description),
		URL:           item.Link,
		Source:        source,
		PublishedDate: item.PublishedParsed,
	}

	if raw, err := json.Marshal(item); err == nil {
		result.Metadata = raw
	}

	return result
}

// splitNewsTitle separates "Headline - Publisher" into its parts. Titles
// without the separator keep everything as the headline.
func splitNewsTitle(title string) (headline, source string) {
	idx := strings.LastIndex(title, " - ")
	if idx <= 0 {
		return title, ""
	}
	return strings.TrimSpace(title[:idx]), strings.TrimSpace(title[idx+3:])
}

// stripHTML reduces a feed description to its visible text.
func stripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	return strings.TrimSpace(doc.Text())
}

func languagePrefix(language string) string {
	if idx := strings.Index(language, "-"); idx > 0 {
		return language[:idx]
	}
	return language
}

// Package metadata enriches cached search results with data scraped from
// the result pages themselves.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/logger"
)

const (
	// defaultHTTPTimeout is the default timeout for HTTP requests
	defaultHTTPTimeout = 30 * time.Second
)

// ErrDisallowedURL marks URLs the extractor refuses to fetch: bad schemes,
// local hosts, private addresses. The URL is the caller's input, not an
// upstream failure.
var ErrDisallowedURL = errors.New("url is not allowed")

// PageMetadata holds what a result page says about itself.
type PageMetadata struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	SiteName      string     `json:"site_name"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
}

// Extractor fetches result pages and pulls publication metadata out of them.
type Extractor struct {
	logger logger.Logger
	client *http.Client
	// skipHostChecks disables the SSRF guard for loopback test servers.
	skipHostChecks bool
}

// NewExtractor creates a new metadata extractor
func NewExtractor(log logger.Logger) *Extractor {
	return &Extractor{
		logger: log,
		client: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
	}
}

// Extract fetches a URL and extracts page metadata for result enrichment.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (*PageMetadata, error) {
	e.logger.Info("Extracting metadata from URL",
		logger.String("url", pageURL),
	)

	requestURL, parsedURL, err := e.requestURLFor(pageURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set user agent to avoid bot blocking
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; KeywordMonitor/1.0)")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	meta := parseDocument(doc, parsedURL)

	e.logger.Info("Metadata extraction complete",
		logger.String("url", pageURL),
		logger.String("title", meta.Title),
	)

	return meta, nil
}

func (e *Extractor) requestURLFor(pageURL string) (string, *url.URL, error) {
	if e.skipHostChecks {
		parsed, err := url.Parse(pageURL)
		if err != nil {
			return "", nil, fmt.Errorf("invalid URL: %w", err)
		}
		return pageURL, parsed, nil
	}
	return validateAndGetRequestURL(pageURL)
}

// parseDocument reads the page's own metadata. Tag conventions vary by
// site, so each field tries several sources in priority order.
func parseDocument(doc *goquery.Document, parsedURL *url.URL) *PageMetadata {
	meta := &PageMetadata{
		Title:       extractTitle(doc),
		Description: extractDescription(doc),
		SiteName:    extractSiteName(doc, parsedURL),
	}
	meta.PublishedDate = extractPublishedDate(doc)
	return meta
}

func extractTitle(doc *goquery.Document) string {
	if ogTitle, exists := doc.Find("meta[property='og:title']").Attr("content"); exists && ogTitle != "" {
		return strings.TrimSpace(ogTitle)
	}

	if title := doc.Find("title").First().Text(); title != "" {
		return strings.TrimSpace(title)
	}

	return ""
}

func extractDescription(doc *goquery.Document) string {
	if ogDesc, exists := doc.Find("meta[property='og:description']").Attr("content"); exists && ogDesc != "" {
		return strings.TrimSpace(ogDesc)
	}

	if desc, exists := doc.Find("meta[name='description']").Attr("content"); exists && desc != "" {
		return strings.TrimSpace(desc)
	}

	return ""
}

func extractSiteName(doc *goquery.Document, parsedURL *url.URL) string {
	if ogSite, exists := doc.Find("meta[property='og:site_name']").Attr("content"); exists && ogSite != "" {
		return strings.TrimSpace(ogSite)
	}

	// Fall back to domain name
	if parsedURL != nil {
		return parsedURL.Host
	}
	return ""
}

// publishedDateSelectors are tried in priority order.
var publishedDateSelectors = []struct {
	selector string
	attr     string
}{
	{"meta[property='article:published_time']", "content"},
	{"meta[property='og:updated_time']", "content"},
	{"meta[name='date']", "content"},
	{"time[datetime]", "datetime"},
}

func extractPublishedDate(doc *goquery.Document) *time.Time {
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

	for _, source := range publishedDateSelectors {
		value, exists := doc.Find(source.selector).First().Attr(source.attr)
		if !exists || value == "" {
			continue
		}
		for _, layout := range layouts {
			if ts, err := time.Parse(layout, strings.TrimSpace(value)); err == nil {
				utc := ts.UTC()
				return &utc
			}
		}
	}

	return nil
}

// blockedHostnames are never fetched regardless of what they resolve to.
var blockedHostnames = map[string]bool{
	"localhost":                true,
	"metadata.google.internal": true,
	"169.254.169.254":          true,
}

// validateURLScheme rejects URLs the extractor must never fetch: non-HTTP
// schemes and hosts that point at local or cloud-metadata services.
func validateURLScheme(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w: %w", err, ErrDisallowedURL)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme %q: %w", parsed.Scheme, ErrDisallowedURL)
	}

	host := strings.ToLower(parsed.Hostname())
	if blockedHostnames[host] {
		return fmt.Errorf("blocked hostname %q: %w", host, ErrDisallowedURL)
	}

	if ip := net.ParseIP(host); ip != nil && isPrivateIP(ip) {
		return fmt.Errorf("blocked hostname %q: private address: %w", host, ErrDisallowedURL)
	}

	return nil
}

// isPrivateIP reports whether ip belongs to a range that must not be
// reachable from the extractor.
func isPrivateIP(ip net.IP) bool {
	if ip == nil {
		return false
	}

	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}

// validateAndGetRequestURL runs the SSRF guard and returns the URL to fetch
// together with its parsed form.
func validateAndGetRequestURL(rawURL string) (string, *url.URL, error) {
	if err := validateURLScheme(rawURL); err != nil {
		return "", nil, err
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, fmt.Errorf("invalid URL: %w", err)
	}

	return rawURL, parsed, nil
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/logger"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/metadata"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/models"
)

// Searcher runs provider searches and caches the hits.
type Searcher interface {
	Run(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error)
	Providers() []string
}

// ResultReader serves and maintains the cached results.
type ResultReader interface {
	Query(ctx context.Context, filter *models.ResultsFilter) (*models.ResultsPage, error)
	Count(ctx context.Context, keyword string, from, to *time.Time) (int, error)
	Deduplicate(ctx context.Context, keyword string) (int64, error)
	UpdatePageMetadata(ctx context.Context, url string, published *time.Time, source string) (int64, error)
}

// PageExtractor reads metadata from a result page.
type PageExtractor interface {
	Extract(ctx context.Context, pageURL string) (*metadata.PageMetadata, error)
}

type SearchHandler struct {
	searcher  Searcher
	results   ResultReader
	extractor PageExtractor
	logger    logger.Logger
}

func NewSearchHandler(searcher Searcher, results ResultReader, extractor PageExtractor, log logger.Logger) *SearchHandler {
	return &SearchHandler{
		searcher:  searcher,
		results:   results,
		extractor: extractor,
		logger:    log,
	}
}

// Run executes an on-demand keyword search and caches the hits.
func (h *SearchHandler) Run(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	resp, err := h.searcher.Run(c.Request.Context(), &req)
	if err != nil {
		respondDomainError(c, h.logger, err, "Search failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Providers lists the registered search providers in fallback order.
func (h *SearchHandler) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": h.searcher.Providers()})
}

// Results pages through cached results for a keyword, freshest publications
// first. from_date and to_date bound the retrieval time.
func (h *SearchHandler) Results(c *gin.Context) {
	filter := &models.ResultsFilter{Keyword: c.Query("keyword")}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.Query("page_size"))

	from, ok := parseTimeQuery(c, "from_date")
	if !ok {
		return
	}
	to, ok := parseTimeQuery(c, "to_date")
	if !ok {
		return
	}
	filter.From, filter.To = from, to

	if err := filter.Validate(); err != nil {
		respondDomainError(c, h.logger, err, "Failed to query results")
		return
	}

	page, err := h.results.Query(c.Request.Context(), filter)
	if err != nil {
		respondDomainError(c, h.logger, err, "Failed to query results")
		return
	}

	c.JSON(http.StatusOK, page)
}

// Count reports how many cached results a keyword has, optionally bounded
// on retrieval time.
func (h *SearchHandler) Count(c *gin.Context) {
	filter := &models.ResultsFilter{Keyword: c.Query("keyword")}

	from, ok := parseTimeQuery(c, "from_date")
	if !ok {
		return
	}
	to, ok := parseTimeQuery(c, "to_date")
	if !ok {
		return
	}
	filter.From, filter.To = from, to

	if err := filter.Validate(); err != nil {
		respondDomainError(c, h.logger, err, "Failed to count results")
		return
	}

	count, err := h.results.Count(c.Request.Context(), filter.Keyword, filter.From, filter.To)
	if err != nil {
		respondDomainError(c, h.logger, err, "Failed to count results")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"keyword": filter.Keyword,
		"count":   count,
	})
}

type deduplicateRequest struct {
	Keyword string `json:"keyword"`
}

// Deduplicate removes surplus cached rows sharing a URL for one keyword.
func (h *SearchHandler) Deduplicate(c *gin.Context) {
	var req deduplicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	req.Keyword = strings.TrimSpace(req.Keyword)
	if req.Keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keyword is required"})
		return
	}

	removed, err := h.results.Deduplicate(c.Request.Context(), req.Keyword)
	if err != nil {
		respondDomainError(c, h.logger, err, "Failed to deduplicate results")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"keyword": req.Keyword,
		"removed": removed,
	})
}

type enrichRequest struct {
	URL string `json:"url" binding:"required"`
}

// Enrich fetches a result page and backfills the published date and source
// of every cached row with that URL.
func (h *SearchHandler) Enrich(c *gin.Context) {
	var req enrichRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	meta, err := h.extractor.Extract(c.Request.Context(), req.URL)
	if err != nil {
		if errors.Is(err, metadata.ErrDisallowedURL) {
			respondDomainError(c, h.logger, err, "Failed to enrich result")
			return
		}
		h.logger.Warn("Page metadata fetch failed",
			logger.String("url", req.URL),
			logger.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch page", "details": err.Error()})
		return
	}

	updated, err := h.results.UpdatePageMetadata(c.Request.Context(), req.URL, meta.PublishedDate, meta.SiteName)
	if err != nil {
		respondDomainError(c, h.logger, err, "Failed to enrich result")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":      req.URL,
		"metadata": meta,
		"updated":  updated,
	})
}

// Package handlers implements the HTTP API for monitors, searches, cached
// results, and reports.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/logger"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/metadata"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/models"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/search"
)

// respondDomainError maps a typed failure onto its HTTP status. Caller
// mistakes land on 4xx, upstream provider failures on 502, and anything
// unclassified is logged and hidden behind fallback as a 500.
func respondDomainError(c *gin.Context, log logger.Logger, err error, fallback string) {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": ve.Error()})
		return
	}

	switch {
	case errors.Is(err, models.ErrMonitorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Monitor not found"})
	case errors.Is(err, models.ErrReportNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
	case errors.Is(err, search.ErrUnknownProvider):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown search provider", "details": err.Error()})
	case errors.Is(err, search.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No search provider available", "details": err.Error()})
	case errors.Is(err, metadata.ErrDisallowedURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL cannot be fetched", "details": err.Error()})
	default:
		var perr *search.ProviderError
		if errors.As(err, &perr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Search provider failed", "details": perr.Error()})
			return
		}
		log.Error(fallback, logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// parseTimeQuery reads an optional RFC 3339 or YYYY-MM-DD query parameter.
// A malformed value gets a 400 response and reports ok=false.
func parseTimeQuery(c *gin.Context, name string) (value *time.Time, ok bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}

	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			utc := parsed.UTC()
			return &utc, true
		}
	}

	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid " + name,
		"details": name + " must be RFC 3339 or YYYY-MM-DD",
	})
	return nil, false
}

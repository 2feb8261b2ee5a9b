package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/config"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/events"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/handlers"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/logger"
)

const (
	serviceName     = "keyword-monitor"
	corsMaxAgeHours = 12
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Monitors  handlers.MonitorStore
	Searcher  handlers.Searcher
	Results   handlers.ResultReader
	Extractor handlers.PageExtractor
	Reports   handlers.Reporter
	Events    *events.Publisher
	Config    *config.Config
	Metrics   *Metrics
	Health    HealthChecker
	Logger    logger.Logger
}

func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()

	// CORS middleware - must be first
	router.Use(cors.New(cors.Config{
		AllowOrigins: deps.Config.Server.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept-Encoding",
			"X-CSRF-Token", "Authorization", "accept", "origin",
			"Cache-Control", "X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           corsMaxAgeHours * time.Hour,
	}))

	// Middleware
	router.Use(ginLogger(deps.Logger))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
	}
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", healthHandler(deps.Health))

	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	v1 := router.Group("/api/v1")
	monitorHandler := handlers.NewMonitorHandler(deps.Monitors, deps.Events, deps.Config.Registry, deps.Logger)
	searchHandler := handlers.NewSearchHandler(deps.Searcher, deps.Results, deps.Extractor, deps.Logger)
	reportHandler := handlers.NewReportHandler(deps.Reports, deps.Logger)

	// Monitor endpoints
	monitors := v1.Group("/monitors")
	monitors.POST("", monitorHandler.Create)
	monitors.GET("", monitorHandler.List)
	monitors.GET("/due", monitorHandler.ListDue)
	monitors.POST("/import", monitorHandler.Import)
	monitors.GET("/:id", monitorHandler.Get)
	monitors.PUT("/:id", monitorHandler.Update)
	monitors.POST("/:id/toggle", monitorHandler.Toggle)
	monitors.DELETE("/:id", monitorHandler.Delete)

	// Search endpoints
	v1.POST("/search", searchHandler.Run)
	v1.GET("/search/providers", searchHandler.Providers)

	// Cached result endpoints
	results := v1.Group("/results")
	results.GET("", searchHandler.Results)
	results.GET("/count", searchHandler.Count)
	results.POST("/deduplicate", searchHandler.Deduplicate)
	results.POST("/enrich", searchHandler.Enrich)

	// Report endpoints
	reports := v1.Group("/reports")
	reports.POST("", reportHandler.Generate)
	reports.GET("", reportHandler.List)
	reports.POST("/purge", reportHandler.Purge)
	reports.GET("/by-keyword/:keyword", reportHandler.ByKeyword)
	reports.GET("/:id", reportHandler.Get)
	reports.DELETE("/:id", reportHandler.Delete)

	return router
}

// healthHandler reports liveness plus database reachability. A failed ping
// degrades the status rather than failing the endpoint.
func healthHandler(db HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":  "ok",
			"service": serviceName,
			"time":    time.Now().UTC().Format(time.RFC3339),
		}
		if db != nil {
			connected := true
			if err := db.HealthCheck(c.Request.Context()); err != nil {
				connected = false
				health["status"] = "degraded"
			}
			health["database"] = gin.H{"connected": connected}
		}
		c.JSON(http.StatusOK, health)
	}
}

func ginLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		log.Info("HTTP request",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status_code", statusCode),
			logger.String("client_ip", c.ClientIP()),
			logger.Duration("duration", duration),
		)
	}
}

package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/config"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/events"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/importer"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/logger"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/models"
)

// MonitorStore is the registry surface the handler drives.
type MonitorStore interface {
	Create(ctx context.Context, req *models.CreateMonitorRequest) (*models.Monitor, error)
	Get(ctx context.Context, id string) (*models.Monitor, error)
	List(ctx context.Context, activeOnly bool) ([]models.Monitor, error)
	ListDue(ctx context.Context, now time.Time, defaultIntervalMinutes int) ([]models.Monitor, error)
	Update(ctx context.Context, id string, req *models.UpdateMonitorRequest) (*models.Monitor, error)
	ToggleActive(ctx context.Context, id string, active bool) (*models.Monitor, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type MonitorHandler struct {
	store  MonitorStore
	events *events.Publisher
	cfg    config.RegistryConfig
	logger logger.Logger
}

func NewMonitorHandler(store MonitorStore, publisher *events.Publisher, cfg config.RegistryConfig, log logger.Logger) *MonitorHandler {
	return &MonitorHandler{
		store:  store,
		events: publisher,
		cfg:    cfg,
		logger: log,
	}
}

func (h *MonitorHandler) Create(c *gin.Context) {
	var req models.CreateMonitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if err := req.Validate(h.cfg.DefaultCheckIntervalMinutes); err != nil {
		respondDomainError(c, h.logger, err, "Failed to create monitor")
		return
	}

	if h.cfg.MaxMonitors > 0 {
		count, err := h.store.Count(c.Request.Context())
		if err != nil {
			h.logger.Error("Failed to count monitors", logger.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create monitor"})
			return
		}
		if count >= h.cfg.MaxMonitors {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Monitor limit reached",
				"details": "at most " + strconv.Itoa(h.cfg.MaxMonitors) + " monitors are allowed",
			})
			return
		}
	}

	monitor, err := h.store.Create(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to create monitor",
			logger.String("keyword", req.Keyword),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create monitor"})
		return
	}

	h.logger.Info("Monitor created",
		logger.String("monitor_id", monitor.ID),
		logger.String("keyword", monitor.Keyword),
	)

	h.publishMonitorEvent(events.MonitorCreated, monitor)

	c.JSON(http.StatusCreated, monitor)
}

func (h *MonitorHandler) Get(c *gin.Context) {
	monitor, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, h.logger, err, "Failed to get monitor")
		return
	}

	c.JSON(http.StatusOK, monitor)
}

func (h *MonitorHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	monitors, err := h.store.List(c.Request.Context(), activeOnly)
	if err != nil {
		respondDomainError(c, h.logger, err, "Failed to list monitors")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"monitors": monitors,
		"count":    len(monitors),
	})
}

// ListDue returns the active monitors whose check interval has elapsed. The
// watcher polls this endpoint; interval_minutes overrides the configured
// default for monitors that carry no interval of their own.
func (h *MonitorHandler) ListDue(c *gin.Context) {
	interval := h.cfg.DefaultCheckIntervalMinutes
	if raw := c.Query("interval_minutes"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "interval_minutes must be a positive integer"})
			return
		}
		interval = parsed
	}

	monitors, err := h.store.ListDue(c.Request.Context(), time.Now().UTC(), interval)
	if err != nil {
		respondDomainError(c, h.logger, err, "Failed to list due monitors")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"monitors": monitors,
		"count":    len(monitors),
	})
}

func (h *MonitorHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var req models.UpdateMonitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one field must be provided for update"})
		return
	}
	if err := req.Validate(); err != nil {
		respondDomainError(c, h.logger, err, "Failed to update monitor")
		return
	}

	monitor, err := h.store.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondDomainError(c, h.logger, err, "Failed to update monitor")
		return
	}

	h.logger.Info("Monitor updated",
		logger.String("monitor_id", monitor.ID),
		logger.String("keyword", monitor.Keyword),
	)

	// A watcher checkpoint only advances last_checked_utc; that is routine
	// bookkeeping, not a configuration change worth an event.
	configChanged := req.Keyword != nil || req.IsActive != nil ||
		req.CheckIntervalMinutes != nil || req.MaxResults != nil || req.Tags != nil
	if configChanged {
		h.publishMonitorEvent(events.MonitorUpdated, monitor)
	}

	c.JSON(http.StatusOK, monitor)
}

type toggleRequest struct {
	IsActive  *bool  `json:"is_active" binding:"required"`
	ToggledBy string `json:"toggled_by"`
}

func (h *MonitorHandler) Toggle(c *gin.Context) {
	id := c.Param("id")

	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	monitor, err := h.store.ToggleActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondDomainError(c, h.logger, err, "Failed to toggle monitor")
		return
	}

	h.logger.Info("Monitor toggled",
		logger.String("monitor_id", monitor.ID),
		logger.Bool("is_active", monitor.IsActive),
	)

	eventType := events.MonitorDeactivated
	if monitor.IsActive {
		eventType = events.MonitorActivated
	}
	toggledBy := req.ToggledBy
	if toggledBy == "" {
		toggledBy = "user"
	}
	h.events.PublishAsync(events.MonitorEvent{
		EventType: eventType,
		MonitorID: monitor.ID,
		Payload:   events.MonitorTogglePayload{ToggledBy: toggledBy},
	})

	c.JSON(http.StatusOK, monitor)
}

func (h *MonitorHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	// Fetch first so the deletion event can name the keyword.
	monitor, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err, "Failed to delete monitor")
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		respondDomainError(c, h.logger, err, "Failed to delete monitor")
		return
	}

	h.logger.Info("Monitor deleted",
		logger.String("monitor_id", id),
		logger.String("keyword", monitor.Keyword),
	)

	h.events.PublishAsync(events.MonitorEvent{
		EventType: events.MonitorDeleted,
		MonitorID: id,
		Payload:   events.MonitorDeletedPayload{Keyword: monitor.Keyword},
	})

	c.JSON(http.StatusNoContent, nil)
}

// Import bulk-creates monitors from an uploaded spreadsheet. Bad rows are
// reported but never block the good ones; the response carries both sides.
func (h *MonitorHandler) Import(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A spreadsheet upload is required", "details": err.Error()})
		return
	}

	opened, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload", "details": err.Error()})
		return
	}
	defer opened.Close()

	rows, importErrors, err := importer.ParseMonitorsFile(opened)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse spreadsheet", "details": err.Error()})
		return
	}

	// The creation cap applies to imports too; surplus rows become row errors.
	budget := len(rows)
	if h.cfg.MaxMonitors > 0 {
		count, countErr := h.store.Count(c.Request.Context())
		if countErr != nil {
			h.logger.Error("Failed to count monitors", logger.Error(countErr))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import monitors"})
			return
		}
		budget = h.cfg.MaxMonitors - count
	}

	created := make([]models.Monitor, 0, len(rows))
	for _, row := range rows {
		if len(created) >= budget {
			importErrors = append(importErrors, importer.ImportError{Row: row.Row, Error: "monitor limit reached"})
			continue
		}
		monitor, rowErr := h.importRow(c.Request.Context(), row)
		if rowErr != nil {
			importErrors = append(importErrors, importer.ImportError{Row: row.Row, Error: rowErr.Error()})
			continue
		}
		created = append(created, *monitor)
	}

	h.logger.Info("Monitors imported",
		logger.String("filename", file.Filename),
		logger.Int("imported", len(created)),
		logger.Int("errors", len(importErrors)),
	)

	c.JSON(http.StatusOK, gin.H{
		"imported":    len(created),
		"monitors":    created,
		"errors":      importErrors,
		"error_count": len(importErrors),
	})
}

func (h *MonitorHandler) importRow(ctx context.Context, row importer.MonitorRow) (*models.Monitor, error) {
	req := &models.CreateMonitorRequest{
		Keyword:              row.Keyword,
		CheckIntervalMinutes: row.CheckIntervalMinutes,
		MaxResults:           row.MaxResults,
		Tags:                 row.Tags,
		CreatedBy:            row.CreatedBy,
	}
	if req.CreatedBy == "" {
		req.CreatedBy = "import"
	}
	if err := req.Validate(h.cfg.DefaultCheckIntervalMinutes); err != nil {
		return nil, err
	}

	monitor, err := h.store.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	// Monitors are born active; honor a sheet that says otherwise.
	if !row.IsActive {
		if toggled, toggleErr := h.store.ToggleActive(ctx, monitor.ID, false); toggleErr == nil {
			monitor = toggled
		}
	}

	h.publishMonitorEvent(events.MonitorCreated, monitor)
	return monitor, nil
}

func (h *MonitorHandler) publishMonitorEvent(eventType events.EventType, monitor *models.Monitor) {
	h.events.PublishAsync(events.MonitorEvent{
		EventType: eventType,
		MonitorID: monitor.ID,
		Payload: events.MonitorPayload{
			Keyword:              monitor.Keyword,
			IsActive:             monitor.IsActive,
			CheckIntervalMinutes: monitor.CheckIntervalMinutes,
			MaxResults:           monitor.MaxResults,
			Tags:                 []string(monitor.Tags),
		},
	})
}

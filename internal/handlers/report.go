package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/logger"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/models"
)

// Reporter generates and serves reports over cached results.
type Reporter interface {
	Generate(ctx context.Context, req *models.GenerateReportRequest) (*models.Report, error)
	Get(ctx context.Context, id string) (*models.Report, error)
	List(ctx context.Context) ([]models.Report, error)
	ListByKeyword(ctx context.Context, keyword string) ([]models.Report, error)
	Delete(ctx context.Context, id string) error
	Purge(ctx context.Context) (int64, error)
}

type ReportHandler struct {
	reports Reporter
	logger  logger.Logger
}

func NewReportHandler(reports Reporter, log logger.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		logger:  log,
	}
}

func (h *ReportHandler) Generate(c *gin.Context) {
	var req models.GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	report, err := h.reports.Generate(c.Request.Context(), &req)
	if err != nil {
		respondDomainError(c, h.logger, err, "Failed to generate report")
		return
	}

	c.JSON(http.StatusCreated, report)
}

func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.reports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, h.logger, err, "Failed to get report")
		return
	}

	c.JSON(http.StatusOK, report)
}

// List returns report headers, all of them or only those covering a keyword.
func (h *ReportHandler) List(c *gin.Context) {
	var (
		reports []models.Report
		err     error
	)
	if keyword := c.Query("keyword"); keyword != "" {
		reports, err = h.reports.ListByKeyword(c.Request.Context(), keyword)
	} else {
		reports, err = h.reports.List(c.Request.Context())
	}
	if err != nil {
		respondDomainError(c, h.logger, err, "Failed to list reports")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": reports,
		"count":   len(reports),
	})
}

// ByKeyword returns the reports whose keyword set covers one keyword. The
// dashboard links here from a monitor's detail view.
func (h *ReportHandler) ByKeyword(c *gin.Context) {
	keyword := c.Param("keyword")

	reports, err := h.reports.ListByKeyword(c.Request.Context(), keyword)
	if err != nil {
		respondDomainError(c, h.logger, err, "Failed to list reports")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"keyword": keyword,
		"reports": reports,
		"count":   len(reports),
	})
}

func (h *ReportHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.reports.Delete(c.Request.Context(), id); err != nil {
		respondDomainError(c, h.logger, err, "Failed to delete report")
		return
	}

	h.logger.Info("Report deleted", logger.String("report_id", id))

	c.JSON(http.StatusNoContent, nil)
}

// Purge removes reports past the retention window. The watcher calls this
// once per cycle; with retention disabled it is a no-op.
func (h *ReportHandler) Purge(c *gin.Context) {
	purged, err := h.reports.Purge(c.Request.Context())
	if err != nil {
		respondDomainError(c, h.logger, err, "Failed to purge reports")
		return
	}

	if purged > 0 {
		h.logger.Info("Reports purged", logger.Int64("purged", purged))
	}

	c.JSON(http.StatusOK, gin.H{"purged": purged})
}

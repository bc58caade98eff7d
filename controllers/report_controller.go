package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/lab-digital-api/models"
	"github.com/kendall-kelly/lab-digital-api/services"
)

// ExportFilter selects the rows of an export. An empty list means every taxonomy value.
type ExportFilter struct {
	Branches []string `json:"branch" form:"branch"`
	States   []string `json:"state" form:"state"`
}

// ArchiveReportRequest represents the request body for archiving an export
type ArchiveReportRequest struct {
	Format string `json:"format" binding:"required,oneof=csv xlsx"`
	ExportFilter
}

// resolve fills empty filters with every value the taxonomy allows.
func (f ExportFilter) resolve(taxonomy models.Taxonomy) ([]string, []string) {
	branches, states := f.Branches, f.States
	if len(branches) == 0 {
		branches = taxonomy.Values(models.FieldBranch)
	}
	if len(states) == 0 {
		states = taxonomy.Values(models.FieldState)
	}
	return branches, states
}

// GetPendingDeliveries handles GET /api/v1/deliveries/pending - jobs not yet delivered,
// soonest delivery date first
func GetPendingDeliveries(c *gin.Context) {
	records, err := services.GetReportService().PendingDeliveries(c.Request.Context())
	respondRecords(c, records, len(records), err)
}

// GetSummary handles GET /api/v1/reports/summary
func GetSummary(c *gin.Context) {
	summary, err := services.GetReportService().Summary(c.Request.Context())
	if err != nil && !errors.Is(err, services.ErrStoreUnavailable) {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"available": err == nil,
		"data":      summary,
	})
}

// ExportReport handles GET /api/v1/reports/export?format=csv|xlsx&branch=..&state=..
// and streams the file as an attachment.
func ExportReport(c *gin.Context) {
	format := c.DefaultQuery("format", services.FormatCSV)

	var filter ExportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, "VALIDATION_ERROR", "Invalid export filter")
		return
	}

	branches, states := filter.resolve(services.GetJobStore().Taxonomy())
	records, err := services.GetReportService().FilterForExport(c.Request.Context(), branches, states)
	available := err == nil
	if err != nil && !errors.Is(err, services.ErrStoreUnavailable) {
		respondError(c, err)
		return
	}

	data, contentType, ext, err := services.Render(format, records)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="reporte_lab%s"`, ext))
	c.Header("X-Store-Available", fmt.Sprintf("%t", available))
	c.Data(http.StatusOK, contentType, data)
}

// ArchiveReport handles POST /api/v1/reports/archive - renders a filtered export and
// stores it in the report bucket
func ArchiveReport(c *gin.Context) {
	var req ArchiveReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	if services.GetS3Service() == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ARCHIVE_NOT_CONFIGURED",
				"message": "Report archiving is not configured on this server",
			},
		})
		return
	}

	branches, states := req.resolve(services.GetJobStore().Taxonomy())
	records, err := services.GetReportService().FilterForExport(c.Request.Context(), branches, states)
	if err != nil {
		respondError(c, err)
		return
	}

	archived, err := services.GetReportService().ArchiveReport(c.Request.Context(), req.Format, records)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ARCHIVE_FAILED",
				"message": "Failed to archive report",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    archived,
	})
}

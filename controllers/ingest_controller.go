package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/lab-digital-api/config"
	"github.com/kendall-kelly/lab-digital-api/services"
	"github.com/kendall-kelly/lab-digital-api/utils"
)

const defaultMaxUploadSize = 10 * 1024 * 1024

// ReloadFromUpload handles POST /api/v1/admin/reload - replaces the whole job table
// with an uploaded spreadsheet (multipart field "file", optional "dry_run")
func ReloadFromUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "INVALID_REQUEST", "A spreadsheet file is required in the \"file\" field")
		return
	}

	maxSize := int64(defaultMaxUploadSize)
	if cfg := config.GetConfig(); cfg != nil {
		maxSize = cfg.MaxUploadSize()
	}
	if err := utils.ValidateSpreadsheetFile(fileHeader, maxSize); err != nil {
		if fileErr, ok := err.(*utils.FileUploadError); ok {
			badRequest(c, fileErr.Code, fileErr.Message)
			return
		}
		badRequest(c, "INVALID_FILE", err.Error())
		return
	}

	dryRun, _ := strconv.ParseBool(c.DefaultPostForm("dry_run", "false"))

	file, err := fileHeader.Open()
	if err != nil {
		badRequest(c, "INVALID_FILE", "Failed to read uploaded file")
		return
	}
	defer file.Close()

	report, err := services.GetIngestService().Ingest(c.Request.Context(), fileHeader.Filename, file, dryRun)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

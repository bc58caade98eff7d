package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/lab-digital-api/middleware"
)

// RegisterRoutes mounts the job, delivery, report, taxonomy and reload endpoints on v1.
// The reload endpoint answers 403 unless uploadEnabled is set.
func RegisterRoutes(v1 *gin.RouterGroup, uploadEnabled bool) {
	jobs := v1.Group("/jobs")
	{
		jobs.GET("", ListJobs)
		jobs.POST("", CreateJob)
		jobs.GET("/next-identifier", GetNextIdentifier)
		jobs.GET("/:id", GetJob)
		jobs.PUT("/:id", UpdateJob)
		jobs.DELETE("/:id", DeleteJob)
	}

	v1.GET("/deliveries/pending", GetPendingDeliveries)

	reports := v1.Group("/reports")
	{
		reports.GET("/summary", GetSummary)
		reports.GET("/export", ExportReport)
		reports.POST("/archive", ArchiveReport)
	}

	v1.GET("/taxonomy", GetTaxonomy)
	v1.GET("/taxonomy/:field/index", GetTaxonomyIndex)

	admin := v1.Group("/admin", middleware.RequireEnabled(uploadEnabled, "Spreadsheet reload"))
	{
		admin.POST("/reload", ReloadFromUpload)
	}
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/lab-digital-api/models"
	"github.com/kendall-kelly/lab-digital-api/services"
)

// JobFields are the editable columns of a job record
type JobFields struct {
	Notes        *string `json:"notes"`
	BlockBucket  *string `json:"block_count_bucket"`
	DesignMode   *string `json:"design_mode"`
	Doctor       *string `json:"doctor"`
	State        *string `json:"state"`
	DesignDate   *string `json:"design_date"`
	MillingDate  *string `json:"milling_date"`
	IntakeDate   *string `json:"intake_date"`
	DeliveryDate *string `json:"delivery_date"`
	Material     *string `json:"material"`
	PatientName  *string `json:"patient_name"`
	Branch       *string `json:"branch"`
	Technician   *string `json:"technician"`
}

// CreateJobRequest represents the request body for registering a job
type CreateJobRequest struct {
	Identifier int `json:"identifier" binding:"required,gt=0"`
	JobFields
}

// UpdateJobRequest represents the request body for replacing a job. Omitted fields are cleared.
type UpdateJobRequest struct {
	JobFields
}

func (f JobFields) record(id int) models.JobRecord {
	return models.JobRecord{
		Identifier:   id,
		Notes:        f.Notes,
		BlockBucket:  f.BlockBucket,
		DesignMode:   f.DesignMode,
		Doctor:       f.Doctor,
		State:        f.State,
		DesignDate:   f.DesignDate,
		MillingDate:  f.MillingDate,
		IntakeDate:   f.IntakeDate,
		DeliveryDate: f.DeliveryDate,
		Material:     f.Material,
		PatientName:  f.PatientName,
		Branch:       f.Branch,
		Technician:   f.Technician,
	}
}

// ListJobs handles GET /api/v1/jobs - lists every job, newest identifier first.
// The optional q parameter narrows the list to rows containing it.
func ListJobs(c *gin.Context) {
	records, err := services.GetReportService().Search(c.Request.Context(), c.Query("q"))
	respondRecords(c, records, len(records), err)
}

// GetNextIdentifier handles GET /api/v1/jobs/next-identifier
func GetNextIdentifier(c *gin.Context) {
	next, err := services.GetJobStore().NextIdentifier(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"available": err == nil,
		"data":      gin.H{"identifier": next},
	})
}

// GetJob handles GET /api/v1/jobs/:id
func GetJob(c *gin.Context) {
	id, ok := identifierParam(c)
	if !ok {
		return
	}

	record, err := services.GetJobStore().Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    record,
	})
}

// CreateJob handles POST /api/v1/jobs
func CreateJob(c *gin.Context) {
	var req CreateJobRequest
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

	record, err := services.GetJobStore().Create(c.Request.Context(), req.record(req.Identifier))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    record,
	})
}

// UpdateJob handles PUT /api/v1/jobs/:id - replaces every editable column
func UpdateJob(c *gin.Context) {
	id, ok := identifierParam(c)
	if !ok {
		return
	}

	var req UpdateJobRequest
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

	record, err := services.GetJobStore().Update(c.Request.Context(), id, req.record(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    record,
	})
}

// DeleteJob handles DELETE /api/v1/jobs/:id. Deleting a missing job succeeds with deleted=0.
func DeleteJob(c *gin.Context) {
	id, ok := identifierParam(c)
	if !ok {
		return
	}

	removed, err := services.GetJobStore().Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"identifier": id,
			"deleted":    removed,
		},
	})
}

package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/lab-digital-api/services"
)

// statusByCode maps service error codes to HTTP statuses.
var statusByCode = map[string]int{
	services.CodeValidation:          http.StatusBadRequest,
	services.CodeConstraintViolation: http.StatusConflict,
	services.CodeNotFound:            http.StatusNotFound,
	services.CodeSchemaMismatch:      http.StatusUnprocessableEntity,
	services.CodeIngestionInProgress: http.StatusConflict,
	services.CodeStoreUnavailable:    http.StatusServiceUnavailable,
}

// respondError writes err in the API's error envelope.
func respondError(c *gin.Context, err error) {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		status, ok := statusByCode[svcErr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		_ = c.Error(err)
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    svcErr.Code,
				"message": svcErr.Message,
			},
		})
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "An unexpected error occurred",
		},
	})
}

// respondRecords answers a read. An unavailable store is reported as an empty,
// unavailable result rather than as a failure.
func respondRecords(c *gin.Context, data interface{}, count int, err error) {
	if err != nil && !errors.Is(err, services.ErrStoreUnavailable) {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"available": err == nil,
		"count":     count,
		"data":      data,
	})
}

func badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// identifierParam reads the :id path parameter, answering 400 when it is not a positive integer.
func identifierParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		badRequest(c, "INVALID_REQUEST", "Job identifier must be a positive number")
		return 0, false
	}
	return id, true
}

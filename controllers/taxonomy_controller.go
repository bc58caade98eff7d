package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/lab-digital-api/models"
	"github.com/kendall-kelly/lab-digital-api/services"
)

// GetTaxonomy handles GET /api/v1/taxonomy - the allowed values of every enum field
func GetTaxonomy(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    services.GetJobStore().Taxonomy().Lists(),
	})
}

// GetTaxonomyIndex handles GET /api/v1/taxonomy/:field/index?value=.. - the position of a
// value in its field's list, used to preselect form options
func GetTaxonomyIndex(c *gin.Context) {
	field, ok := models.ParseField(c.Param("field"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNKNOWN_FIELD",
				"message": "Unknown taxonomy field",
			},
		})
		return
	}

	value := c.Query("value")
	index, found := services.GetJobStore().Taxonomy().IndexOf(field, value)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"field": field,
			"value": value,
			"index": index,
			"found": found,
		},
	})
}

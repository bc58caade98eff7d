package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/lab-digital-api/models"
	"github.com/kendall-kelly/lab-digital-api/services"
	"github.com/kendall-kelly/lab-digital-api/tests/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestServices wires the shared services to a fresh in-memory database.
func setupTestServices(t *testing.T) *gorm.DB {
	t.Helper()
	db := testutil.NewTestDB(t)

	store := services.InitJobStore(db, models.DefaultTaxonomy(), 138, nil)
	services.InitIngestService(db, nil)

	mockS3 := services.NewMockS3Service()
	mockS3.SetAsMockForTesting()
	services.InitReportService(store, mockS3, "reports/", nil)

	t.Cleanup(func() { services.SetS3Service(nil) })
	return db
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), true)
	return router
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func errorCode(response map[string]interface{}) string {
	errObj, ok := response["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := errObj["code"].(string)
	return code
}

func closeDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

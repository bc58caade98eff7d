package acceptance

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/lab-digital-api/config"
	"github.com/kendall-kelly/lab-digital-api/controllers"
	"github.com/kendall-kelly/lab-digital-api/middleware"
	"github.com/kendall-kelly/lab-digital-api/models"
	"github.com/kendall-kelly/lab-digital-api/services"
	"github.com/kendall-kelly/lab-digital-api/tests/testutil"
	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReportAcceptanceTestSuite covers the office workflow: load the clinic workbook,
// follow up pending deliveries and hand out reports
type ReportAcceptanceTestSuite struct {
	suite.Suite
	server *httptest.Server
	db     *gorm.DB
	cfg    *config.Config
	mockS3 *services.MockS3Service
}

// SetupSuite runs once before all tests
func (suite *ReportAcceptanceTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	os.Setenv("GO_ENV", "test")
	os.Setenv("DATABASE_URL", ":memory:")
	os.Setenv("INGEST_UPLOAD_ENABLED", "true")
	os.Setenv("AWS_S3_BUCKET", "test-bucket")

	cfg, err := config.Load()
	suite.NoError(err)
	suite.cfg = cfg

	suite.db = testutil.NewTestDB(suite.T())
	config.SetDB(suite.db)

	suite.mockS3 = services.NewMockS3Service()
	suite.mockS3.SetAsMockForTesting()

	store := services.InitJobStore(suite.db, models.DefaultTaxonomy(), cfg.IdentifierFloor, zap.NewNop())
	services.InitIngestService(suite.db, zap.NewNop())
	services.InitReportService(store, suite.mockS3, cfg.ReportArchivePrefix, zap.NewNop())

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Recovery(zap.NewNop()))
	controllers.RegisterRoutes(router.Group("/api/v1"), cfg.IngestUploadEnabled)
	suite.server = httptest.NewServer(router)
}

// TearDownSuite runs once after all tests
func (suite *ReportAcceptanceTestSuite) TearDownSuite() {
	suite.server.Close()
	services.SetS3Service(nil)
}

// SetupTest runs before each test
func (suite *ReportAcceptanceTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM registros")
	suite.mockS3.Clear()
	suite.uploadWorkbook()
}

// uploadWorkbook reloads the table from a workbook shaped like the clinic's export
func (suite *ReportAcceptanceTestSuite) uploadWorkbook() {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := make([]interface{}, len(models.Columns))
	for i, c := range models.Columns {
		header[i] = c
	}
	rows := [][]interface{}{
		header,
		{140, "corona", "1 bloque", "Modalidad Chairside", "David Sandoval", "Solicitado", "", "", "2024-03-01", "2024-03-12", "PMMA", "Juan Pérez", "Sucursal Vitacura", "Sasha U."},
		{141, "puente", "2 bloques", "", "José Acuña", "Fresado", "", "", "2024-03-02", "2024-03-04", "Disilicato A2", "Ana Soto", "Sucursal Los Tribunales", "Millaray"},
		{142, "", "", "", "", "Entregado", "", "", "2024-03-02", "2024-03-03", "PMMA", "Luis Rojas", "Sucursal Vitacura", "Sasha U."},
		{},
		{"sin id", "", "", "", "", "Listo", "", "", "", "", "", "Fantasma", "", ""},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		suite.Require().NoError(f.SetSheetRow(sheet, cell, &row))
	}
	workbook, err := f.WriteToBuffer()
	suite.Require().NoError(err)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "registro_lab.xlsx")
	suite.Require().NoError(err)
	_, err = part.Write(workbook.Bytes())
	suite.Require().NoError(err)
	suite.Require().NoError(writer.Close())

	resp, err := http.Post(suite.server.URL+"/api/v1/admin/reload", writer.FormDataContentType(), body)
	suite.Require().NoError(err)
	defer resp.Body.Close()
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
}

// getJSON is a helper to make GET requests against the test server
func (suite *ReportAcceptanceTestSuite) getJSON(path string) map[string]interface{} {
	resp, err := http.Get(suite.server.URL + path)
	suite.Require().NoError(err)
	defer resp.Body.Close()
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	var response map[string]interface{}
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&response))
	return response
}

// TestPendingDeliverySchedule tests the schedule the lab follows each morning
func (suite *ReportAcceptanceTestSuite) TestPendingDeliverySchedule() {
	response := suite.getJSON("/api/v1/deliveries/pending")
	data := response["data"].([]interface{})
	suite.Require().Len(data, 2, "delivered jobs are left out")
	suite.Equal(float64(141), data[0].(map[string]interface{})["identifier"])
	suite.Equal(float64(140), data[1].(map[string]interface{})["identifier"])
}

// TestDashboardSummary tests the dashboard counts
func (suite *ReportAcceptanceTestSuite) TestDashboardSummary() {
	data := suite.getJSON("/api/v1/reports/summary")["data"].(map[string]interface{})
	suite.Equal(float64(3), data["total_jobs"])
	suite.Equal("Sasha U.", data["top_technician"])
	suite.Equal("PMMA", data["top_material"])
	suite.Equal("2024-03-02", data["busiest_intake_date"])
}

// TestBranchWorkbookDownload tests the per-branch workbook download
func (suite *ReportAcceptanceTestSuite) TestBranchWorkbookDownload() {
	resp, err := http.Get(suite.server.URL + "/api/v1/reports/export?format=xlsx&branch=Sucursal+Vitacura")
	suite.Require().NoError(err)
	defer resp.Body.Close()
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(resp.Header.Get("Content-Disposition"), "reporte_lab.xlsx")

	content, err := io.ReadAll(resp.Body)
	suite.Require().NoError(err)
	f, err := excelize.OpenReader(bytes.NewReader(content))
	suite.Require().NoError(err)
	defer f.Close()

	rows, err := f.GetRows(services.ReportSheet)
	suite.Require().NoError(err)
	suite.Require().Len(rows, 3)
	suite.Equal("N° Identificador", rows[0][0])
	suite.Equal("142", rows[1][0])
	suite.Equal("140", rows[2][0])
}

// TestArchivedReportLink tests archiving a report and receiving a download link
func (suite *ReportAcceptanceTestSuite) TestArchivedReportLink() {
	payload, _ := json.Marshal(map[string]interface{}{"format": "csv", "state": []string{"Fresado"}})
	resp, err := http.Post(suite.server.URL+"/api/v1/reports/archive", "application/json", bytes.NewReader(payload))
	suite.Require().NoError(err)
	defer resp.Body.Close()
	suite.Require().Equal(http.StatusCreated, resp.StatusCode)

	var response struct {
		Data services.ArchivedReport `json:"data"`
	}
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&response))
	suite.Equal(1, response.Data.Rows)
	suite.True(suite.mockS3.ObjectExists(response.Data.Key))
	suite.Contains(response.Data.URL, response.Data.Key)

	stored := suite.mockS3.GetObjects()[response.Data.Key]
	suite.True(bytes.HasPrefix(stored, []byte("\xef\xbb\xbf")))
	suite.Contains(string(stored), "Ana Soto")
}

// TestReportAcceptanceTestSuite runs the acceptance test suite
func TestReportAcceptanceTestSuite(t *testing.T) {
	suite.Run(t, new(ReportAcceptanceTestSuite))
}

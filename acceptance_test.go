package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kendall-kelly/lab-digital-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestServerStartup verifies the complete router can be built
func TestServerStartup(t *testing.T) {
	router, _ := setupApp(t)
	assert.NotNil(t, router, "Router should be initialized")
}

// TestReloadSearchExportAcceptance loads a clinic export over HTTP, searches it and
// downloads the filtered report, as the front desk does at the start of a day
func TestReloadSearchExportAcceptance(t *testing.T) {
	router, _ := setupApp(t)
	server := httptest.NewServer(router)
	defer server.Close()

	export := "\ufeff" + strings.Join(models.Columns, ";") + "\n" +
		"140;corona 2.6;1 bloque;;David Sandoval;Solicitado;;;01/03/2024;10/03/2024;PMMA;Juan Pérez;Sucursal Vitacura;Sasha U.\n" +
		"141;derivado por pérez;;;;Entregado;;;02/03/2024;;;Ana Soto;Sucursal Los Tribunales;\n" +
		"140;corona 2.6;1 bloque;;David Sandoval;Listo;;;01/03/2024;10/03/2024;PMMA;Juan Pérez;Sucursal Vitacura;Sasha U.\n"

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "registro_lab.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(export))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(server.URL+"/api/v1/admin/reload", writer.FormDataContentType(), body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reload struct {
		Success bool `json:"success"`
		Data    struct {
			RowsLoaded        int `json:"rows_loaded"`
			DuplicatesRemoved int `json:"duplicates_removed"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reload))
	assert.True(t, reload.Success)
	assert.Equal(t, 2, reload.Data.RowsLoaded)
	assert.Equal(t, 1, reload.Data.DuplicatesRemoved)

	searchResp, err := client.Get(server.URL + "/api/v1/jobs?q=P%C3%A9rez")
	require.NoError(t, err)
	defer searchResp.Body.Close()
	var search struct {
		Count int                `json:"count"`
		Data  []models.JobRecord `json:"data"`
	}
	require.NoError(t, json.NewDecoder(searchResp.Body).Decode(&search))
	assert.Equal(t, 2, search.Count, "matches the patient name and the notes")
	assert.Equal(t, "Listo", models.Value(search.Data[1].State), "the last duplicate row wins")

	exportResp, err := client.Get(server.URL + "/api/v1/reports/export?format=csv&state=Listo")
	require.NoError(t, err)
	defer exportResp.Body.Close()
	data, err := io.ReadAll(exportResp.Body)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("\xef\xbb\xbf")))

	rows, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "140", rows[1][0])
	assert.Equal(t, "01/03/2024", rows[1][1], "ingested values are stored as exported")
}

// TestHealthEndpointResponseTime tests that the endpoint responds quickly
func TestHealthEndpointResponseTime(t *testing.T) {
	router, _ := setupApp(t)

	start := time.Now()
	w, _ := doJSON(t, router, http.MethodGet, "/api/v1/health", nil)
	duration := time.Since(start)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Less(t, duration, 100*time.Millisecond, "Health endpoint should respond in less than 100ms")
}

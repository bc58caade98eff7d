package utils

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMaxSize = 10 * 1024 * 1024

// createTestFileHeader creates a multipart.FileHeader for testing
func createTestFileHeader(filename string, size int64, content []byte) *multipart.FileHeader {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", "text/csv")
	part, _ := writer.CreatePart(h)
	part.Write(content)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, _ := reader.ReadForm(int64(len(content)) + 1024)
	defer form.RemoveAll()

	if len(form.File["file"]) > 0 {
		fileHeader := form.File["file"][0]
		// Override size for testing purposes
		fileHeader.Size = size
		return fileHeader
	}

	return nil
}

func TestValidateSpreadsheetFile_Success(t *testing.T) {
	for _, name := range []string{"registro_lab.csv", "registro_lab.xlsx", "REGISTRO.CSV"} {
		content := []byte("a;b\n1;2\n")
		fileHeader := createTestFileHeader(name, int64(len(content)), content)
		require.NotNil(t, fileHeader)

		assert.NoError(t, ValidateSpreadsheetFile(fileHeader, testMaxSize), name)
	}
}

func TestValidateSpreadsheetFile_FileTooLarge(t *testing.T) {
	content := []byte("a;b\n")
	fileHeader := createTestFileHeader("large.csv", 11*1024*1024, content)
	require.NotNil(t, fileHeader)

	err := ValidateSpreadsheetFile(fileHeader, testMaxSize)
	assert.Error(t, err)

	fileErr, ok := err.(*FileUploadError)
	require.True(t, ok, "Error should be of type FileUploadError")
	assert.Equal(t, "FILE_TOO_LARGE", fileErr.Code)
	assert.Contains(t, fileErr.Message, "File size exceeds maximum allowed size")
}

func TestValidateSpreadsheetFile_InvalidFormat(t *testing.T) {
	tests := []string{"export.xls", "export.txt", "export"}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			content := []byte("a;b\n")
			fileHeader := createTestFileHeader(name, int64(len(content)), content)
			require.NotNil(t, fileHeader)

			err := ValidateSpreadsheetFile(fileHeader, testMaxSize)
			fileErr, ok := err.(*FileUploadError)
			require.True(t, ok, "Error should be of type FileUploadError")
			assert.Equal(t, "INVALID_FILE_FORMAT", fileErr.Code)
		})
	}
}

func TestFileUploadError_Error(t *testing.T) {
	err := &FileUploadError{
		Code:    "TEST_CODE",
		Message: "Test error message",
	}

	assert.Equal(t, "Test error message", err.Error())
}

package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// AllowedSpreadsheetFormats are the extensions a reload upload may carry.
var AllowedSpreadsheetFormats = []string{".csv", ".xlsx"}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateSpreadsheetFile validates the uploaded file format and size
func ValidateSpreadsheetFile(fileHeader *multipart.FileHeader, maxSize int64) error {
	if fileHeader.Size > maxSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", maxSize/(1024*1024)),
		}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	for _, allowed := range AllowedSpreadsheetFormats {
		if ext == allowed {
			return nil
		}
	}
	return &FileUploadError{
		Code:    "INVALID_FILE_FORMAT",
		Message: fmt.Sprintf("Only %s files are allowed", strings.Join(AllowedSpreadsheetFormats, ", ")),
	}
}

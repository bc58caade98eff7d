package utils

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Table is a decoded spreadsheet: the header row and the data rows below it.
type Table struct {
	Header    []string
	Rows      [][]string
	Delimiter rune
}

// ReadSpreadsheet decodes a spreadsheet export. Files ending in .xlsx are read as
// workbooks; anything else is treated as delimited text.
func ReadSpreadsheet(filename string, r io.Reader) (*Table, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return ReadXLSX(r)
	}
	return ReadCSV(r)
}

// ReadCSV decodes UTF-8 text with an optional byte-order mark, sniffing whether
// fields are separated by commas or semicolons.
func ReadCSV(r io.Reader) (*Table, error) {
	decoded, err := io.ReadAll(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	if err != nil {
		return nil, fmt.Errorf("failed to decode spreadsheet: %w", err)
	}

	delimiter := DetectDelimiter(firstLine(decoded))
	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse spreadsheet: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("spreadsheet is empty")
	}

	return &Table{Header: records[0], Rows: records[1:], Delimiter: delimiter}, nil
}

// ReadXLSX reads the first sheet of a workbook.
func ReadXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("spreadsheet is empty")
	}

	// GetRows drops trailing empty cells; pad data rows back to the header width.
	width := len(rows[0])
	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		for len(row) < width {
			row = append(row, "")
		}
		data = append(data, row)
	}
	return &Table{Header: rows[0], Rows: data}, nil
}

// DetectDelimiter picks ';' when the line has more semicolons than commas outside
// quoted text, and ',' otherwise.
func DetectDelimiter(line string) rune {
	commas, semicolons := 0, 0
	quoted := false
	for _, c := range line {
		switch c {
		case '"':
			quoted = !quoted
		case ',':
			if !quoted {
				commas++
			}
		case ';':
			if !quoted {
				semicolons++
			}
		}
	}
	if semicolons > commas {
		return ';'
	}
	return ','
}

func firstLine(data []byte) string {
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

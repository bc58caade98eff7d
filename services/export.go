package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/kendall-kelly/lab-digital-api/models"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Report formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	ReportSheet = "Registros"
)

// DisplayColumn is one column as users see it in listings and exports.
type DisplayColumn struct {
	Header string
	Value  func(models.JobRecord) string
}

func textColumn(header string, get func(models.JobRecord) *string) DisplayColumn {
	return DisplayColumn{Header: header, Value: func(r models.JobRecord) string { return models.Value(get(r)) }}
}

// DisplayColumns is the fixed column order of listings, searches and exports.
var DisplayColumns = []DisplayColumn{
	{Header: "N° Identificador", Value: func(r models.JobRecord) string { return strconv.Itoa(r.Identifier) }},
	textColumn("Fecha de ingreso", func(r models.JobRecord) *string { return r.IntakeDate }),
	textColumn("Estado", func(r models.JobRecord) *string { return r.State }),
	textColumn("Nombre paciente", func(r models.JobRecord) *string { return r.PatientName }),
	textColumn("Doctor", func(r models.JobRecord) *string { return r.Doctor }),
	textColumn("Tons a cargo", func(r models.JobRecord) *string { return r.Technician }),
	textColumn("Fecha de diseño", func(r models.JobRecord) *string { return r.DesignDate }),
	textColumn("Fecha de fresado", func(r models.JobRecord) *string { return r.MillingDate }),
	textColumn("Fecha de entrega", func(r models.JobRecord) *string { return r.DeliveryDate }),
	textColumn("Sucursal", func(r models.JobRecord) *string { return r.Branch }),
	textColumn("Asunto / Detalles", func(r models.JobRecord) *string { return r.Notes }),
	textColumn("Material", func(r models.JobRecord) *string { return r.Material }),
	textColumn("Diseño", func(r models.JobRecord) *string { return r.DesignMode }),
	textColumn("Bloques usados", func(r models.JobRecord) *string { return r.BlockBucket }),
}

// DisplayHeaders returns the header row of an export.
func DisplayHeaders() []string {
	headers := make([]string, len(DisplayColumns))
	for i, c := range DisplayColumns {
		headers[i] = c.Header
	}
	return headers
}

// DisplayRow renders a record in DisplayColumns order. NULL renders as "".
func DisplayRow(r models.JobRecord) []string {
	row := make([]string, len(DisplayColumns))
	for i, c := range DisplayColumns {
		row[i] = c.Value(r)
	}
	return row
}

// RenderCSV writes records as comma-separated UTF-8 with a byte-order mark, so that
// spreadsheet tools keep accented characters intact.
func RenderCSV(records []models.JobRecord) ([]byte, error) {
	var buf bytes.Buffer
	bom := transform.NewWriter(&buf, unicode.UTF8BOM.NewEncoder())
	w := csv.NewWriter(bom)

	if err := w.Write(DisplayHeaders()); err != nil {
		return nil, fmt.Errorf("csv write: %w", err)
	}
	for _, r := range records {
		if err := w.Write(DisplayRow(r)); err != nil {
			return nil, fmt.Errorf("csv write: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv write: %w", err)
	}
	if err := bom.Close(); err != nil {
		return nil, fmt.Errorf("csv write: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderXLSX writes records to a single-sheet workbook with a header row. Cell
// values are the same strings RenderCSV writes.
func RenderXLSX(records []models.JobRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ReportSheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}

	headers := DisplayHeaders()
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("xlsx write: %w", err)
		}
		if err := f.SetCellStr(ReportSheet, cell, h); err != nil {
			return nil, fmt.Errorf("xlsx write: %w", err)
		}
		if err := f.SetCellStyle(ReportSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("xlsx style: %w", err)
		}
	}

	for rowIdx, r := range records {
		for colIdx, v := range DisplayRow(r) {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("xlsx write: %w", err)
			}
			if err := f.SetCellStr(ReportSheet, cell, v); err != nil {
				return nil, fmt.Errorf("xlsx write: %w", err)
			}
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return nil, fmt.Errorf("xlsx layout: %w", err)
	}
	if err := f.SetColWidth(ReportSheet, "A", lastCol, 18); err != nil {
		return nil, fmt.Errorf("xlsx layout: %w", err)
	}
	if err := f.SetColWidth(ReportSheet, "K", "K", 48); err != nil { // notes
		return nil, fmt.Errorf("xlsx layout: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// Render produces an export in the requested format together with its content type
// and file extension.
func Render(format string, records []models.JobRecord) ([]byte, string, string, error) {
	switch format {
	case FormatCSV:
		data, err := RenderCSV(records)
		return data, "text/csv; charset=utf-8", ".csv", err
	case FormatXLSX:
		data, err := RenderXLSX(records)
		return data, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ".xlsx", err
	default:
		return nil, "", "", validationError("unknown report format %q, use %s or %s", format, FormatCSV, FormatXLSX)
	}
}

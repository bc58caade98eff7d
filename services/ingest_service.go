package services

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kendall-kelly/lab-digital-api/models"
	"github.com/kendall-kelly/lab-digital-api/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	reloadBatchSize = 200
	// reloadLockKey names the PostgreSQL advisory lock held for the length of a reload.
	reloadLockKey int64 = 0x72656769737472
)

// IngestionReport summarises one ingestion run.
type IngestionReport struct {
	RowsRead                  int  `json:"rows_read"`
	EmptyRowsDropped          int  `json:"empty_rows_dropped"`
	InvalidIdentifiersDropped int  `json:"invalid_identifiers_dropped"`
	DuplicatesRemoved         int  `json:"duplicates_removed"`
	RowsLoaded                int  `json:"rows_loaded"`
	DryRun                    bool `json:"dry_run"`
}

// IngestService rebuilds the registros table from a spreadsheet export.
// Reloads are destructive and exclusive: a second concurrent run is rejected.
type IngestService struct {
	db     *gorm.DB
	logger *zap.Logger
	mu     sync.Mutex
}

var ingestServiceInstance *IngestService

// NewIngestService creates an ingestion service writing to db.
func NewIngestService(db *gorm.DB, logger *zap.Logger) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{db: db, logger: logger}
}

// InitIngestService creates the service and registers it as the shared instance
func InitIngestService(db *gorm.DB, logger *zap.Logger) *IngestService {
	ingestServiceInstance = NewIngestService(db, logger)
	return ingestServiceInstance
}

// GetIngestService returns the shared ingestion service
func GetIngestService() *IngestService {
	return ingestServiceInstance
}

// SetIngestService sets the shared ingestion service (primarily for testing)
func SetIngestService(service *IngestService) {
	ingestServiceInstance = service
}

// Ingest decodes a spreadsheet, cleans it and, unless dryRun is set, replaces the
// whole table with the result. Every validation happens before the table is touched.
func (s *IngestService) Ingest(ctx context.Context, filename string, r io.Reader, dryRun bool) (IngestionReport, error) {
	table, err := utils.ReadSpreadsheet(filename, r)
	if err != nil {
		return IngestionReport{}, newError(CodeSchemaMismatch, err, "could not read %s", filename)
	}

	records, report, err := ParseRecords(table)
	if err != nil {
		return report, err
	}
	if report.DuplicatesRemoved > 0 {
		s.logger.Warn("duplicate identifiers removed", zap.String("file", filename), zap.Int("duplicates_removed", report.DuplicatesRemoved))
	}

	if dryRun {
		report.DryRun = true
		return report, nil
	}

	if err := s.Reload(ctx, records); err != nil {
		return report, err
	}
	report.RowsLoaded = len(records)
	return report, nil
}

// Reload drops and recreates the registros table and inserts records, all in one
// transaction. On failure the transaction rolls back and the prior rows remain.
func (s *IngestService) Reload(ctx context.Context, records []models.JobRecord) error {
	if !s.mu.TryLock() {
		return ErrIngestionInProgress
	}
	defer s.mu.Unlock()

	start := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			var locked bool
			if err := tx.Raw("SELECT pg_try_advisory_xact_lock(?)", reloadLockKey).Scan(&locked).Error; err != nil {
				return unavailable(err, "reload lock")
			}
			if !locked {
				return ErrIngestionInProgress
			}
		}

		if err := tx.Migrator().DropTable(&models.JobRecord{}); err != nil {
			return unavailable(err, "drop table")
		}
		if err := tx.Migrator().CreateTable(&models.JobRecord{}); err != nil {
			return unavailable(err, "create table")
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, reloadBatchSize).Error; err != nil {
			return unavailable(err, "bulk insert")
		}
		return nil
	})
	if err != nil {
		s.logger.Error("reload failed, table left as before", zap.Error(err))
		return err
	}

	s.logger.Info("reload completed", zap.Int("rows", len(records)), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// ParseRecords maps a decoded spreadsheet onto job records. Columns are assigned by
// position, never by header text. Blank rows and rows without a numeric identifier are
// dropped, later rows win over earlier rows with the same identifier, and blank cells
// become NULL.
func ParseRecords(table *utils.Table) ([]models.JobRecord, IngestionReport, error) {
	var report IngestionReport
	width := len(models.Columns)

	if len(table.Header) != width {
		return nil, report, newError(CodeSchemaMismatch, nil,
			"spreadsheet has %d columns, expected %d", len(table.Header), width)
	}

	parsed := make([]models.JobRecord, 0, len(table.Rows))
	for i, row := range table.Rows {
		report.RowsRead++
		if len(row) > width {
			return nil, report, newError(CodeSchemaMismatch, nil,
				"row %d has %d fields, expected %d", i+2, len(row), width)
		}
		if isBlankRow(row) {
			report.EmptyRowsDropped++
			continue
		}

		id, ok := parseIdentifier(cell(row, 0))
		if !ok {
			report.InvalidIdentifiersDropped++
			continue
		}

		record := models.JobRecord{Identifier: id}
		for col := 1; col < width; col++ {
			record.SetColumn(models.Columns[col], models.Text(strings.TrimSpace(cell(row, col))))
		}
		parsed = append(parsed, record)
	}

	deduped := dedupeKeepLast(parsed)
	report.DuplicatesRemoved = len(parsed) - len(deduped)
	return deduped, report, nil
}

// dedupeKeepLast keeps the final occurrence of each identifier, at that occurrence's position.
func dedupeKeepLast(records []models.JobRecord) []models.JobRecord {
	seen := make(map[int]bool, len(records))
	kept := make([]models.JobRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		if seen[records[i].Identifier] {
			continue
		}
		seen[records[i].Identifier] = true
		kept = append(kept, records[i])
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}

// parseIdentifier accepts positive integers and integral-looking decimals such as
// "12.0", which spreadsheet tools write for numeric cells. Zero and negative numbers
// are rejected like any other identifier the store cannot address.
func parseIdentifier(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		if n < 1 {
			return 0, false
		}
		return int(n), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < 1 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// String renders the report the way the loader prints it.
func (r IngestionReport) String() string {
	return fmt.Sprintf("read=%d loaded=%d empty=%d invalid_id=%d duplicates=%d dry_run=%t",
		r.RowsRead, r.RowsLoaded, r.EmptyRowsDropped, r.InvalidIdentifiersDropped, r.DuplicatesRemoved, r.DryRun)
}

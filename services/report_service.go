package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kendall-kelly/lab-digital-api/models"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// ReportService is the read-only view layer over the job store used by listings,
// the delivery schedule, dashboards and exports.
type ReportService struct {
	store         *JobStore
	storage       S3Interface
	archivePrefix string
	logger        *zap.Logger
}

var reportServiceInstance *ReportService

// NewReportService creates the facade. storage may be nil when archiving is not configured.
func NewReportService(store *JobStore, storage S3Interface, archivePrefix string, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		store:         store,
		storage:       storage,
		archivePrefix: archivePrefix,
		logger:        logger,
	}
}

// InitReportService creates the facade and registers it as the shared instance
func InitReportService(store *JobStore, storage S3Interface, archivePrefix string, logger *zap.Logger) *ReportService {
	reportServiceInstance = NewReportService(store, storage, archivePrefix, logger)
	return reportServiceInstance
}

// GetReportService returns the shared report service
func GetReportService() *ReportService {
	return reportServiceInstance
}

// SetReportService sets the shared report service (primarily for testing)
func SetReportService(service *ReportService) {
	reportServiceInstance = service
}

// Search returns the records where any displayed column contains term, ignoring
// case. Order follows List. An empty term matches everything.
func (s *ReportService) Search(ctx context.Context, term string) ([]models.JobRecord, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return records, err
	}
	if term == "" {
		return records, nil
	}

	caser := cases.Fold()
	needle := caser.String(term)
	matches := []models.JobRecord{}
	for _, r := range records {
		for _, v := range DisplayRow(r) {
			if strings.Contains(caser.String(v), needle) {
				matches = append(matches, r)
				break
			}
		}
	}
	return matches, nil
}

// PendingDeliveries returns every record not in the delivered state, soonest
// delivery date first. Missing or unreadable dates sort last, keeping List order among ties.
func (s *ReportService) PendingDeliveries(ctx context.Context) ([]models.JobRecord, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return records, err
	}

	delivered := s.store.Taxonomy().DeliveredState()
	type pending struct {
		record models.JobRecord
		due    time.Time
		known  bool
	}
	var rows []pending
	for _, r := range records {
		if models.Value(r.State) == delivered {
			continue
		}
		due, ok := models.ParseDatePtr(r.DeliveryDate)
		rows = append(rows, pending{record: r, due: due, known: ok})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.known != b.known {
			return a.known
		}
		return a.known && a.due.Before(b.due)
	})

	out := make([]models.JobRecord, len(rows))
	for i, p := range rows {
		out[i] = p.record
	}
	return out, nil
}

// FilterForExport keeps the records whose branch is one of branches and whose state
// is one of states. Records with no branch or state never match.
func (s *ReportService) FilterForExport(ctx context.Context, branches, states []string) ([]models.JobRecord, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return records, err
	}

	branchSet := toSet(branches)
	stateSet := toSet(states)
	out := []models.JobRecord{}
	for _, r := range records {
		if r.Branch == nil || r.State == nil {
			continue
		}
		if branchSet[*r.Branch] && stateSet[*r.State] {
			out = append(out, r)
		}
	}
	return out, nil
}

// ValueCount is how many records carry a value.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Summary is the dashboard data set.
type Summary struct {
	TotalJobs         int          `json:"total_jobs"`
	ByState           []ValueCount `json:"by_state"`
	ByMaterial        []ValueCount `json:"by_material"`
	ByTechnician      []ValueCount `json:"by_technician"`
	ByIntakeDate      []ValueCount `json:"by_intake_date"`
	TopTechnician     string       `json:"top_technician"`
	TopMaterial       string       `json:"top_material"`
	BusiestIntakeDate string       `json:"busiest_intake_date"`
}

// Summary counts records per state, material, technician and intake date.
// Count lists are ordered by count, highest first; the intake list is chronological.
func (s *ReportService) Summary(ctx context.Context) (*Summary, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return &Summary{}, err
	}

	summary := &Summary{
		TotalJobs:    len(records),
		ByState:      countBy(records, func(r models.JobRecord) *string { return r.State }),
		ByMaterial:   countBy(records, func(r models.JobRecord) *string { return r.Material }),
		ByTechnician: countBy(records, func(r models.JobRecord) *string { return r.Technician }),
		ByIntakeDate: countBy(records, func(r models.JobRecord) *string { return r.IntakeDate }),
	}
	summary.TopTechnician = mode(summary.ByTechnician)
	summary.TopMaterial = mode(summary.ByMaterial)
	summary.BusiestIntakeDate = mode(summary.ByIntakeDate)

	sort.SliceStable(summary.ByIntakeDate, func(i, j int) bool {
		return summary.ByIntakeDate[i].Value < summary.ByIntakeDate[j].Value
	})
	return summary, nil
}

// ArchivedReport points at an export stored in object storage.
type ArchivedReport struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Rows int    `json:"rows"`
}

// ArchiveReport renders records and uploads them to object storage.
func (s *ReportService) ArchiveReport(ctx context.Context, format string, records []models.JobRecord) (*ArchivedReport, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("report archive is not configured")
	}

	data, contentType, ext, err := Render(format, records)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%sreporte_lab_%s%s", s.archivePrefix, time.Now().UTC().Format("20060102T150405"), ext)
	if err := s.storage.UploadObject(ctx, key, data, contentType); err != nil {
		return nil, fmt.Errorf("failed to archive report: %w", err)
	}
	url, err := s.storage.GetPresignedURL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign report URL: %w", err)
	}

	s.logger.Info("report archived", zap.String("key", key), zap.Int("rows", len(records)))
	return &ArchivedReport{Key: key, URL: url, Rows: len(records)}, nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// countBy tallies non-null values, highest count first, ties by value.
func countBy(records []models.JobRecord, get func(models.JobRecord) *string) []ValueCount {
	counts := map[string]int{}
	for _, r := range records {
		if v := get(r); v != nil {
			counts[*v]++
		}
	}
	out := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, ValueCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

func mode(counts []ValueCount) string {
	if len(counts) == 0 {
		return ""
	}
	return counts[0].Value
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/kendall-kelly/lab-digital-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// JobStore owns the registros table. It is safe for concurrent use; each write is a
// single statement, so concurrent updates of one identifier are last-writer-wins.
type JobStore struct {
	db       *gorm.DB
	taxonomy models.Taxonomy
	floor    int
	logger   *zap.Logger
}

var jobStoreInstance *JobStore

// NewJobStore creates a store over db. floor is the lowest identifier NextIdentifier suggests.
func NewJobStore(db *gorm.DB, taxonomy models.Taxonomy, floor int, logger *zap.Logger) *JobStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobStore{
		db:       db,
		taxonomy: taxonomy,
		floor:    floor,
		logger:   logger,
	}
}

// InitJobStore creates the store and registers it as the shared instance
func InitJobStore(db *gorm.DB, taxonomy models.Taxonomy, floor int, logger *zap.Logger) *JobStore {
	jobStoreInstance = NewJobStore(db, taxonomy, floor, logger)
	return jobStoreInstance
}

// GetJobStore returns the shared store instance
func GetJobStore() *JobStore {
	return jobStoreInstance
}

// SetJobStore sets the shared store instance (primarily for testing)
func SetJobStore(store *JobStore) {
	jobStoreInstance = store
}

// Taxonomy returns the taxonomy the store validates against.
func (s *JobStore) Taxonomy() models.Taxonomy {
	return s.taxonomy
}

// Floor returns the lowest identifier NextIdentifier will suggest.
func (s *JobStore) Floor() int {
	return s.floor
}

// EnsureSchema creates the registros table when it does not exist yet.
func (s *JobStore) EnsureSchema(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&models.JobRecord{}); err != nil {
		return unavailable(err, "schema check")
	}
	return nil
}

// List returns every record, highest identifier first.
func (s *JobStore) List(ctx context.Context) ([]models.JobRecord, error) {
	records := []models.JobRecord{}
	if err := s.db.WithContext(ctx).Order("identifier DESC").Find(&records).Error; err != nil {
		s.logger.Warn("failed to list job records", zap.Error(err))
		return []models.JobRecord{}, unavailable(err, "list")
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *JobStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.JobRecord{}).Count(&count).Error; err != nil {
		return 0, unavailable(err, "count")
	}
	return count, nil
}

// Get returns the record with the given identifier.
func (s *JobStore) Get(ctx context.Context, id int) (*models.JobRecord, error) {
	var record models.JobRecord
	err := s.db.WithContext(ctx).Where("identifier = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(CodeNotFound, nil, "job record %d not found", id)
	}
	if err != nil {
		return nil, unavailable(err, "get")
	}
	return &record, nil
}

// NextIdentifier suggests the identifier for a new record: the highest stored identifier
// plus one, never below the floor. When the store cannot be read it still returns the
// floor, together with an ErrStoreUnavailable error the caller may ignore.
func (s *JobStore) NextIdentifier(ctx context.Context) (int, error) {
	var highest sql.NullInt64
	row := s.db.WithContext(ctx).Model(&models.JobRecord{}).Select("MAX(identifier)").Row()
	if err := row.Scan(&highest); err != nil {
		s.logger.Warn("falling back to identifier floor", zap.Int("floor", s.floor), zap.Error(err))
		return s.floor, unavailable(err, "next identifier")
	}

	next := s.floor
	if highest.Valid && int(highest.Int64)+1 > next {
		next = int(highest.Int64) + 1
	}
	return next, nil
}

// Create inserts a new record under the caller-chosen identifier.
// An identifier already in use fails with ErrConstraintViolation and leaves the stored row untouched.
func (s *JobStore) Create(ctx context.Context, record models.JobRecord) (*models.JobRecord, error) {
	normalized, err := s.Normalize(record, nil)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&normalized).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, newError(CodeConstraintViolation, err, "identifier %d is already in use", normalized.Identifier)
		}
		s.logger.Error("failed to create job record", zap.Int("identifier", normalized.Identifier), zap.Error(err))
		return nil, unavailable(err, "create")
	}

	s.logger.Info("job record created", zap.Int("identifier", normalized.Identifier))
	return &normalized, nil
}

// Update replaces every mutable column of the record with the given identifier.
// Columns left nil in record are written as NULL; nothing of the previous row is kept.
// The stored row is read first so that values it already holds pass validation.
func (s *JobStore) Update(ctx context.Context, id int, record models.JobRecord) (*models.JobRecord, error) {
	stored, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	record.Identifier = id
	normalized, err := s.Normalize(record, stored)
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).
		Model(&models.JobRecord{}).
		Where("identifier = ?", id).
		Updates(normalized.MutableValues())
	if result.Error != nil {
		s.logger.Error("failed to update job record", zap.Int("identifier", id), zap.Error(result.Error))
		return nil, unavailable(result.Error, "update")
	}
	if result.RowsAffected == 0 {
		return nil, newError(CodeNotFound, nil, "job record %d not found", id)
	}

	s.logger.Info("job record updated", zap.Int("identifier", id))
	return &normalized, nil
}

// Delete removes the record with the given identifier and returns the rows removed.
// Deleting an identifier that does not exist removes nothing and is not an error.
func (s *JobStore) Delete(ctx context.Context, id int) (int64, error) {
	result := s.db.WithContext(ctx).Where("identifier = ?", id).Delete(&models.JobRecord{})
	if result.Error != nil {
		s.logger.Error("failed to delete job record", zap.Int("identifier", id), zap.Error(result.Error))
		return 0, unavailable(result.Error, "delete")
	}

	s.logger.Info("job record deleted", zap.Int("identifier", id), zap.Int64("rows", result.RowsAffected))
	return result.RowsAffected, nil
}

// Normalize trims every column, turns blank values into NULL, stores dates as
// YYYY-MM-DD and checks required fields and taxonomy membership.
//
// stored is nil on create. On update it is the current row: unreadable dates become
// NULL instead of failing, and a value outside the taxonomy is accepted when the
// stored row already holds it, so rows loaded from spreadsheets stay editable.
func (s *JobStore) Normalize(record models.JobRecord, stored *models.JobRecord) (models.JobRecord, error) {
	creating := stored == nil
	if creating {
		stored = &models.JobRecord{}
	}

	out := models.JobRecord{Identifier: record.Identifier}
	for column, v := range record.MutableValues() {
		out.SetColumn(column, trimmed(v.(*string)))
	}

	if out.Identifier < 1 {
		return out, validationError("identifier must be a positive number")
	}
	if out.PatientName == nil {
		return out, validationError("patient name is required")
	}
	if out.State == nil {
		return out, validationError("state is required")
	}

	dates := []struct {
		label string
		value **string
	}{
		{"intake date", &out.IntakeDate},
		{"design date", &out.DesignDate},
		{"milling date", &out.MillingDate},
		{"delivery date", &out.DeliveryDate},
	}
	for _, d := range dates {
		if *d.value == nil {
			continue
		}
		if models.IsNullDate(**d.value) {
			*d.value = nil
			continue
		}
		t, ok := models.ParseDate(**d.value)
		if !ok && creating {
			return out, validationError("%s %q is not a valid date", d.label, **d.value)
		}
		if !ok {
			s.logger.Warn("unreadable date cleared", zap.Int("identifier", out.Identifier),
				zap.String("column", d.label), zap.String("value", **d.value))
			*d.value = nil
			continue
		}
		formatted := t.Format(models.DateLayout)
		*d.value = &formatted
	}
	if creating && out.IntakeDate == nil {
		return out, validationError("intake date is required")
	}

	enums := []struct {
		field  models.Field
		value  *string
		stored *string
	}{
		{models.FieldState, out.State, stored.State},
		{models.FieldDoctor, out.Doctor, stored.Doctor},
		{models.FieldTechnician, out.Technician, stored.Technician},
		{models.FieldBranch, out.Branch, stored.Branch},
		{models.FieldMaterial, out.Material, stored.Material},
		{models.FieldDesignMode, out.DesignMode, stored.DesignMode},
		{models.FieldBlockBucket, out.BlockBucket, stored.BlockBucket},
	}
	for _, e := range enums {
		if e.value == nil || s.taxonomy.Contains(e.field, *e.value) {
			continue
		}
		if e.stored != nil && strings.TrimSpace(*e.stored) == *e.value {
			continue
		}
		return out, validationError("%q is not an allowed value for %s", *e.value, e.field)
	}

	return out, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	return models.Text(strings.TrimSpace(*v))
}

// isDuplicateKey recognises primary-key conflicts from either driver.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "primary key")
}

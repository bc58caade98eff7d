package testutil

import (
	"os"
	"testing"

	"github.com/kendall-kelly/lab-digital-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// NewTestDB opens a private in-memory SQLite database with the registros table migrated.
// The pool is pinned to one connection so every query sees the same database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "Failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.JobRecord{}), "Failed to migrate test database")
	return db
}

// Ptr returns a pointer to s.
func Ptr(s string) *string {
	return &s
}

// NewJob returns a record that passes validation against the default taxonomy.
func NewJob(id int, patient string) models.JobRecord {
	return models.JobRecord{
		Identifier:   id,
		PatientName:  Ptr(patient),
		State:        Ptr("Solicitado"),
		IntakeDate:   Ptr("2024-03-01"),
		Doctor:       Ptr("David Sandoval"),
		Technician:   Ptr("Sasha U."),
		Branch:       Ptr("Sucursal Vitacura"),
		Material:     Ptr("Disilicato A2"),
		DesignMode:   Ptr("Modalidad Chairside"),
		BlockBucket:  Ptr("1 bloque"),
		DeliveryDate: Ptr("2024-03-10"),
	}
}

// SeedJobs inserts records directly, bypassing store validation.
func SeedJobs(t *testing.T, db *gorm.DB, records ...models.JobRecord) {
	t.Helper()
	for i := range records {
		require.NoError(t, db.Create(&records[i]).Error)
	}
}

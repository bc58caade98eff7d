package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite://lab.db")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("IDENTIFIER_FLOOR", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("AWS_S3_BUCKET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite://lab.db", cfg.DatabaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultIdentifierFloor, cfg.IdentifierFloor)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IngestUploadEnabled)
	assert.False(t, cfg.S3Enabled())
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadSize())
	assert.True(t, cfg.IsTest())
	assert.Same(t, cfg, GetConfig())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lab")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("IDENTIFIER_FLOOR", "500")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("INGEST_UPLOAD_ENABLED", "true")
	t.Setenv("AWS_S3_BUCKET", "lab-reports")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 500, cfg.IdentifierFloor)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.IngestUploadEnabled)
	assert.True(t, cfg.S3Enabled())
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{DatabaseURL: "x", IdentifierFloor: 138, MaxUploadSizeMB: 10, LogLevel: "info"}
	assert.NoError(t, base.Validate())

	bad := base
	bad.IdentifierFloor = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.LogLevel = "verbose"
	assert.Error(t, bad.Validate())

	bad = base
	bad.MaxUploadSizeMB = 0
	assert.Error(t, bad.Validate())
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := NewLogger("warn", format)
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(-1), "debug should be disabled at warn level")
	}
}

func TestTestEnvProblem(t *testing.T) {
	assert.Empty(t, testEnvProblem("test"))

	for _, env := range []string{"", "development", "production"} {
		msg := testEnvProblem(env)
		assert.Contains(t, msg, "SAFETY CHECK FAILED", env)
		assert.Contains(t, msg, "GO_ENV=test go test ./...", env)
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultIdentifierFloor keeps new job numbers above the paper-ledger sequence.
const DefaultIdentifierFloor = 138

// Config holds all application configuration
type Config struct {
	DatabaseURL         string
	Port                string
	GoEnv               string
	LogLevel            string
	LogFormat           string
	IdentifierFloor     int
	TaxonomyFile        string
	CORSAllowedOrigins  []string
	IngestUploadEnabled bool
	MaxUploadSizeMB     int
	AWSRegion           string
	AWSS3Bucket         string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	ReportArchivePrefix string

	// EnvFile is the dotenv file the values were read from, empty when none was found.
	EnvFile string
}

var current *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first, then .env.
	// Deployed hosts set variables directly, so neither file is required.
	envFile := fmt.Sprintf(".env.%s", env)
	loadedFrom := ""
	if err := godotenv.Load(envFile); err == nil {
		loadedFrom = envFile
	} else if err := godotenv.Load(); err == nil {
		loadedFrom = ".env"
	}

	config := &Config{
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		Port:                getEnv("PORT", "8080"),
		GoEnv:               getEnv("GO_ENV", "development"),
		LogLevel:            strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:           strings.ToLower(getEnv("LOG_FORMAT", "console")),
		IdentifierFloor:     getEnvAsInt("IDENTIFIER_FLOOR", DefaultIdentifierFloor),
		TaxonomyFile:        getEnv("TAXONOMY_FILE", ""),
		CORSAllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		IngestUploadEnabled: getEnvAsBool("INGEST_UPLOAD_ENABLED", false),
		MaxUploadSizeMB:     getEnvAsInt("MAX_UPLOAD_SIZE_MB", 10),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:         getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		ReportArchivePrefix: getEnv("REPORT_ARCHIVE_PREFIX", "reports/"),
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.EnvFile = loadedFrom
	current = config
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IdentifierFloor < 1 {
		return fmt.Errorf("IDENTIFIER_FLOOR must be positive, got %d", c.IdentifierFloor)
	}
	if c.MaxUploadSizeMB < 1 {
		return fmt.Errorf("MAX_UPLOAD_SIZE_MB must be positive, got %d", c.MaxUploadSizeMB)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// S3Enabled reports whether report archiving has a bucket to write to.
func (c *Config) S3Enabled() bool {
	return c.AWSS3Bucket != ""
}

// MaxUploadSize returns the upload limit in bytes.
func (c *Config) MaxUploadSize() int64 {
	return int64(c.MaxUploadSizeMB) * 1024 * 1024
}

// GetConfig returns the configuration loaded last
func GetConfig() *Config {
	return current
}

// SetConfig sets the configuration instance (primarily for testing)
func SetConfig(cfg *Config) {
	current = cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

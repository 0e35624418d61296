package config

import (
	"fmt"
	"os"
	"strconv"

	"invoicing/internal/logger"
	"invoicing/internal/store"
)

type Config struct {
	// Storage
	DBDriver    string
	DatabaseURL string

	// HTTP
	HTTPAddr        string
	CORSOrigin      string
	RateLimitWrites int

	// Reports
	ReportTitle string

	// Google Cloud Configuration
	GoogleCloudProject      string
	GoogleCloudLocation     string
	DocumentAIProcessorID   string
	GoogleServiceAccountKey string

	// Google Sheets Configuration
	GoogleSheetURL string

	// OpenAI Configuration
	OpenAIAPIKey string
	OpenAIModel  string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		DBDriver:                getEnv("DB_DRIVER", store.DriverSQLite),
		DatabaseURL:             getEnv("DATABASE_URL", "invoicing.db"),
		HTTPAddr:                getEnv("HTTP_ADDR", ":8080"),
		CORSOrigin:              getEnv("CORS_ORIGIN", "*"),
		ReportTitle:             getEnv("REPORT_TITLE", "Financial Report"),
		GoogleCloudProject:      getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:     getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:   getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		GoogleServiceAccountKey: getEnv("GOOGLE_SERVICE_ACCOUNT_KEY", ""),
		GoogleSheetURL:          getEnv("GOOGLE_SHEET_URL", ""),
		OpenAIAPIKey:            getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:             getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:           getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:               getEnv("LOG_OUTPUT", "stderr"),
	}

	limit, err := strconv.Atoi(getEnv("RATE_LIMIT_WRITES", "60"))
	if err != nil {
		return nil, fmt.Errorf("config validation failed: RATE_LIMIT_WRITES: %w", err)
	}
	config.RateLimitWrites = limit

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case store.DriverSQLite, store.DriverPostgres:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", store.DriverSQLite, store.DriverPostgres, c.DBDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.RateLimitWrites < 0 {
		return fmt.Errorf("RATE_LIMIT_WRITES must not be negative")
	}
	return nil
}

// RequireSheets checks the settings the spreadsheet export needs.
func (c *Config) RequireSheets() error {
	if c.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL is required")
	}
	return nil
}

// RequireDocumentAI checks the settings the purchase invoice import needs.
func (c *Config) RequireDocumentAI() error {
	if c.GoogleCloudProject == "" {
		return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required")
	}
	if c.DocumentAIProcessorID == "" {
		return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required")
	}
	return nil
}

// RequireOpenAI checks the settings the receipt import needs.
func (c *Config) RequireOpenAI() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	return nil
}

// StoreConfig returns the database settings.
func (c *Config) StoreConfig() store.Config {
	return store.Config{Driver: c.DBDriver, DSN: c.DatabaseURL}
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

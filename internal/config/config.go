package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// OCR engine selectors accepted by OCR_ENGINE.
const (
	EngineAuto      = "auto"
	EngineTesseract = "tesseract"
	EngineDocAI     = "docai"
)

// Config holds CLI and worker configuration
type Config struct {
	// OCR configuration
	OCREngine     string
	OCRLanguages  []string
	TesseractPath string

	// Google Document AI configuration (only needed for the docai engine)
	DocAIProjectID   string
	DocAILocation    string
	DocAIProcessorID string

	// Input handling
	MaxFileSizeMB int
	PDFRasterDPI  int

	// Extraction / validation thresholds
	LowConfThreshold float64
	MinAgeYears      int
	MaxAgeYears      int

	// Retry behaviour
	RetryLowConfidence bool
	RetryMissingFields bool
	RetryRotations     bool
	MaxDeskewAngle     float64

	// Redis configuration
	RedisURL  string
	QueueName string

	// PostgreSQL configuration
	DatabaseURL string

	// Worker configuration
	WorkerConcurrency int
	ProcessingTimeout int // milliseconds
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		OCREngine:          getEnvOrDefault("OCR_ENGINE", EngineAuto),
		OCRLanguages:       splitList(getEnvOrDefault("OCR_LANGUAGES", "eng,ara")),
		TesseractPath:      getEnvOrDefault("TESSERACT_PATH", "/usr/bin/tesseract"),
		DocAIProjectID:     getEnvOrDefault("DOCAI_PROJECT_ID", ""),
		DocAILocation:      getEnvOrDefault("DOCAI_LOCATION", "eu"),
		DocAIProcessorID:   getEnvOrDefault("DOCAI_PROCESSOR_ID", ""),
		MaxFileSizeMB:      getEnvAsIntOrDefault("MAX_FILE_SIZE_MB", 12),
		PDFRasterDPI:       getEnvAsIntOrDefault("PDF_RASTER_DPI", 220),
		LowConfThreshold:   getEnvAsFloatOrDefault("LOW_CONF_THRESHOLD", 0.55),
		MinAgeYears:        getEnvAsIntOrDefault("MIN_AGE_YEARS", 16),
		MaxAgeYears:        getEnvAsIntOrDefault("MAX_AGE_YEARS", 110),
		RetryLowConfidence: getEnvAsBoolOrDefault("RETRY_LOW_CONFIDENCE", true),
		RetryMissingFields: getEnvAsBoolOrDefault("RETRY_MISSING_FIELDS", true),
		RetryRotations:     getEnvAsBoolOrDefault("RETRY_ROTATIONS", true),
		MaxDeskewAngle:     getEnvAsFloatOrDefault("MAX_DESKEW_ANGLE", 12.0),
		RedisURL:           getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
		QueueName:          getEnvOrDefault("QUEUE_NAME", "identity-verification"),
		DatabaseURL:        getEnvOrDefault("DATABASE_URL", ""),
		WorkerConcurrency:  getEnvAsIntOrDefault("WORKER_CONCURRENCY", 4),
		ProcessingTimeout:  getEnvAsIntOrDefault("PROCESSING_TIMEOUT", 300000), // 5 minutes
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	switch c.OCREngine {
	case EngineAuto, EngineTesseract, EngineDocAI:
	default:
		return fmt.Errorf("OCR_ENGINE must be one of auto, tesseract, docai, got %q", c.OCREngine)
	}

	if len(c.OCRLanguages) == 0 {
		return fmt.Errorf("OCR_LANGUAGES must name at least one language")
	}

	if c.LowConfThreshold <= 0 || c.LowConfThreshold > 1 {
		return fmt.Errorf("LOW_CONF_THRESHOLD must be in (0, 1], got %g", c.LowConfThreshold)
	}

	if c.MaxFileSizeMB < 1 || c.MaxFileSizeMB > 512 {
		return fmt.Errorf("MAX_FILE_SIZE_MB must be between 1 and 512, got %d", c.MaxFileSizeMB)
	}

	if c.PDFRasterDPI < 72 || c.PDFRasterDPI > 600 {
		return fmt.Errorf("PDF_RASTER_DPI must be between 72 and 600, got %d", c.PDFRasterDPI)
	}

	if c.MinAgeYears < 0 || c.MaxAgeYears <= c.MinAgeYears {
		return fmt.Errorf("age bounds are invalid: min=%d max=%d", c.MinAgeYears, c.MaxAgeYears)
	}

	if c.MaxDeskewAngle < 0 || c.MaxDeskewAngle > 45 {
		return fmt.Errorf("MAX_DESKEW_ANGLE must be between 0 and 45, got %g", c.MaxDeskewAngle)
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 100 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 100, got %d", c.WorkerConcurrency)
	}

	return nil
}

// ValidateWorker checks the additional settings the queue worker needs.
func (c *Config) ValidateWorker() error {
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.QueueName == "" {
		return fmt.Errorf("QUEUE_NAME is required")
	}

	return nil
}

// MaxFileSizeBytes returns the input size cap in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsFloatOrDefault gets environment variable as float64 or returns default
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBoolOrDefault gets environment variable as bool or returns default
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

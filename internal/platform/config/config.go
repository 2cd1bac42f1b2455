package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	Addr                 string
	Environment          string
	DatabaseURL          string
	DataDir              string
	ReportsDir           string
	BackupDir            string
	JWTSecret            string
	TokenTTL             time.Duration
	DataEncryptionKey    string
	SeedAdminUsername    string
	SeedAdminPassword    string
	RunMigrations        bool
	RunSeed              bool
	MaxBodyBytes         int64
	MaxUploadBytes       int64
	RateLimitPerMinute   int
	AnnualLeaveAllotment int
	StorageBackend       string
	S3Bucket             string
	S3Region             string
	S3Endpoint           string
	S3AccessKey          string
	S3SecretKey          string
	OCRTesseractPath     string
	OCRPdftoppmPath      string
	OCRLanguage          string
	OCRTimeout           time.Duration
	BackupInterval       time.Duration
	LogFormat            string
	LogLevel             string
	MetricsEnabled       bool
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("load .env failed", "err", err)
	}
	dataDir := getEnv("DATA_DIR", "data")
	return Config{
		Addr:                 getEnv("APP_ADDR", "127.0.0.1:8080"),
		Environment:          getEnv("APP_ENV", "development"),
		DatabaseURL:          getEnv("DATABASE_URL", "sqlite:"+filepath.Join(dataDir, "hr_management.db")),
		DataDir:              dataDir,
		ReportsDir:           getEnv("REPORTS_DIR", filepath.Join(dataDir, "reports")),
		BackupDir:            getEnv("BACKUP_DIR", filepath.Join(dataDir, "backups")),
		JWTSecret:            getEnv("JWT_SECRET", "dev-secret"),
		TokenTTL:             getEnvDuration("TOKEN_TTL", 8*time.Hour),
		DataEncryptionKey:    getEnv("DATA_ENCRYPTION_KEY", ""),
		SeedAdminUsername:    getEnv("SEED_ADMIN_USERNAME", "admin"),
		SeedAdminPassword:    getEnv("SEED_ADMIN_PASSWORD", "admin123"),
		RunMigrations:        getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:              getEnvBool("RUN_SEED", true),
		MaxBodyBytes:         int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		MaxUploadBytes:       int64(getEnvInt("MAX_UPLOAD_BYTES", 20*1024*1024)),
		RateLimitPerMinute:   getEnvInt("RATE_LIMIT_PER_MINUTE", 300),
		AnnualLeaveAllotment: getEnvInt("ANNUAL_LEAVE_ALLOTMENT", 30),
		StorageBackend:       getEnv("STORAGE_BACKEND", StorageLocal),
		S3Bucket:             getEnv("S3_BUCKET", ""),
		S3Region:             getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:           getEnv("S3_ENDPOINT", ""),
		S3AccessKey:          getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:          getEnv("S3_SECRET_KEY", ""),
		OCRTesseractPath:     getEnv("OCR_TESSERACT_PATH", "tesseract"),
		OCRPdftoppmPath:      getEnv("OCR_PDFTOPPM_PATH", "pdftoppm"),
		OCRLanguage:          getEnv("OCR_LANGUAGE", "fra"),
		OCRTimeout:           getEnvDuration("OCR_TIMEOUT", 2*time.Minute),
		BackupInterval:       getEnvDuration("BACKUP_INTERVAL", 0),
		LogFormat:            getEnv("LOG_FORMAT", "json"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		MetricsEnabled:       getEnvBool("METRICS_ENABLED", true),
	}
}

// LoadEnvFile loads path into the process environment without overriding
// variables that are already set.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// IsSQLite reports whether the store is the embedded single-file database.
func (c Config) IsSQLite() bool {
	return !strings.HasPrefix(c.DatabaseURL, "postgres://") && !strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

// SQLitePath returns the database file path for sqlite URLs.
func (c Config) SQLitePath() string {
	path := strings.TrimPrefix(c.DatabaseURL, "sqlite://")
	path = strings.TrimPrefix(path, "sqlite:")
	path = strings.TrimPrefix(path, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	return path
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsSQLite() && strings.TrimSpace(c.SQLitePath()) == "" {
		return fmt.Errorf("DATABASE_URL must name a database file")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" || c.JWTSecret == "dev-secret" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && c.SeedAdminPassword == "admin123" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.MaxUploadBytes < c.MaxBodyBytes {
		return fmt.Errorf("MAX_UPLOAD_BYTES must not be smaller than MAX_BODY_BYTES")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.AnnualLeaveAllotment < 0 {
		return fmt.Errorf("ANNUAL_LEAVE_ALLOTMENT must not be negative")
	}
	switch c.StorageBackend {
	case StorageLocal:
	case StorageS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET must be set when STORAGE_BACKEND is s3")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q", StorageLocal, StorageS3)
	}
	if c.OCRTimeout <= 0 {
		return fmt.Errorf("OCR_TIMEOUT must be positive")
	}
	return nil
}

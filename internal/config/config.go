// Package config loads runtime configuration from .env files and UPVC_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Env        string
	Storage    StorageConfig
	Blob       BlobConfig
	Log        LogConfig
	Metrics    MetricsConfig
	Validation ValidationConfig
	Orders     OrderConfig
}

// StorageConfig selects the Entity Store backend.
type StorageConfig struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
}

// BlobConfig selects where backups are written.
type BlobConfig struct {
	Driver string
	FSRoot string
	Prefix string
	S3     S3Config
	GCS    GCSConfig
}

// S3Config holds S3 / MinIO settings.
type S3Config struct {
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
	UsePathStyle bool
}

// GCSConfig holds Google Cloud Storage settings.
type GCSConfig struct {
	Bucket          string
	CredentialsFile string
	Endpoint        string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Namespace    string
	TextfilePath string
}

// ValidationConfig holds input validation settings.
type ValidationConfig struct {
	PhoneRegion string
}

// OrderConfig holds order defaults.
type OrderConfig struct {
	DeliveryLeadDays int
}

// Load reads .env.<UPVC_ENV> and .env when present, then the process
// environment. Values already set in the environment win over file values.
func Load() (*Config, error) {
	env := getEnv("UPVC_ENV", "development")
	_ = godotenv.Load(".env." + env)
	_ = godotenv.Load()

	cfg := &Config{
		Env: env,
		Storage: StorageConfig{
			Driver:      getEnv("UPVC_STORAGE_DRIVER", "sqlite"),
			SQLitePath:  getEnv("UPVC_SQLITE_PATH", "upvc-erp.db"),
			PostgresDSN: getEnv("UPVC_POSTGRES_DSN", ""),
		},
		Blob: BlobConfig{
			Driver: getEnv("UPVC_BLOB_DRIVER", "fs"),
			FSRoot: getEnv("UPVC_BLOB_FS_ROOT", "./blobdata"),
			Prefix: getEnv("UPVC_BLOB_PREFIX", ""),
			S3: S3Config{
				Bucket:       getEnv("UPVC_BLOB_S3_BUCKET", ""),
				Region:       getEnv("UPVC_BLOB_S3_REGION", "us-east-1"),
				Endpoint:     getEnv("UPVC_BLOB_S3_ENDPOINT", ""),
				AccessKey:    getEnv("UPVC_BLOB_S3_ACCESS_KEY", ""),
				SecretKey:    getEnv("UPVC_BLOB_S3_SECRET_KEY", ""),
				SessionToken: getEnv("UPVC_BLOB_S3_SESSION_TOKEN", ""),
				UsePathStyle: getEnvAsBool("UPVC_BLOB_S3_PATH_STYLE", false),
			},
			GCS: GCSConfig{
				Bucket:          getEnv("UPVC_BLOB_GCS_BUCKET", ""),
				CredentialsFile: getEnv("UPVC_BLOB_GCS_CREDENTIALS", ""),
				Endpoint:        getEnv("UPVC_BLOB_GCS_ENDPOINT", ""),
			},
		},
		Log: LogConfig{
			Level:  getEnv("UPVC_LOG_LEVEL", "info"),
			Format: getEnv("UPVC_LOG_FORMAT", ""),
		},
		Metrics: MetricsConfig{
			Namespace:    getEnv("UPVC_METRICS_NAMESPACE", "upvcerp"),
			TextfilePath: getEnv("UPVC_METRICS_TEXTFILE", ""),
		},
		Validation: ValidationConfig{
			PhoneRegion: getEnv("UPVC_PHONE_REGION", "IN"),
		},
		Orders: OrderConfig{
			DeliveryLeadDays: getEnvAsInt("UPVC_DELIVERY_LEAD_DAYS", 14),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is set: sqlite storage,
// filesystem blobs, info logging.
func Default() *Config {
	return &Config{
		Env:        "development",
		Storage:    StorageConfig{Driver: "sqlite", SQLitePath: "upvc-erp.db"},
		Blob:       BlobConfig{Driver: "fs", FSRoot: "./blobdata", S3: S3Config{Region: "us-east-1"}},
		Log:        LogConfig{Level: "info"},
		Metrics:    MetricsConfig{Namespace: "upvcerp"},
		Validation: ValidationConfig{PhoneRegion: "IN"},
		Orders:     OrderConfig{DeliveryLeadDays: 14},
	}
}

// Validate checks driver names and required driver settings.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case "memory", "sqlite":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("UPVC_POSTGRES_DSN is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	switch c.Blob.Driver {
	case "fs", "memory":
	case "s3":
		if c.Blob.S3.Bucket == "" {
			errs = append(errs, errors.New("UPVC_BLOB_S3_BUCKET is required for the s3 driver"))
		}
	case "gcs":
		if c.Blob.GCS.Bucket == "" {
			errs = append(errs, errors.New("UPVC_BLOB_GCS_BUCKET is required for the gcs driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown blob driver %q", c.Blob.Driver))
	}
	if c.Orders.DeliveryLeadDays < 0 {
		errs = append(errs, errors.New("UPVC_DELIVERY_LEAD_DAYS must not be negative"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the production profile is active.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

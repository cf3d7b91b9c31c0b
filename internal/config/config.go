package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendLocal      = "local"
	BackendS3         = "s3"
	BackendCloudinary = "cloudinary"
)

type Config struct {
	AppPort       string `mapstructure:"APP_PORT"`
	AppEnv        string `mapstructure:"APP_ENV"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`

	// --- uploads ---
	BlobBackend    string `mapstructure:"BLOB_BACKEND"`
	UploadDir      string `mapstructure:"UPLOAD_DIR"`
	StagingDir     string `mapstructure:"STAGING_DIR"`
	UploadMaxBytes int64  `mapstructure:"UPLOAD_MAX_BYTES"`

	// --- S3 ---
	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3Region    string `mapstructure:"S3_REGION"`
	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	S3UseSSL    bool   `mapstructure:"S3_USE_SSL"`
	S3PublicURL string `mapstructure:"S3_PUBLIC_URL"`

	// --- Cloudinary ---
	CloudinaryURL       string `mapstructure:"CLOUDINARY_URL"`
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`
	CloudinaryFolder    string `mapstructure:"CLOUDINARY_FOLDER"`

	// --- Redis ---
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`

	// --- Kafka ---
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`

	// --- OpenTelemetry ---
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `mapstructure:"OTEL_SERVICE_NAME"`
}

var keys = []string{
	"APP_PORT", "APP_ENV", "DATABASE_URL", "PUBLIC_BASE_URL",
	"BLOB_BACKEND", "UPLOAD_DIR", "STAGING_DIR", "UPLOAD_MAX_BYTES",
	"S3_ENDPOINT", "S3_REGION", "S3_BUCKET", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_USE_SSL", "S3_PUBLIC_URL",
	"CLOUDINARY_URL", "CLOUDINARY_CLOUD_NAME", "CLOUDINARY_API_KEY", "CLOUDINARY_API_SECRET", "CLOUDINARY_FOLDER",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "CACHE_TTL",
	"KAFKA_BROKERS", "KAFKA_TOPIC",
	"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SERVICE_NAME",
}

// Load reads the environment (and .env for local development) into a Config.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.New("failed to load .env")
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("BLOB_BACKEND", BackendLocal)
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("STAGING_DIR", os.TempDir())
	v.SetDefault("UPLOAD_MAX_BYTES", 5<<20)
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("CLOUDINARY_FOLDER", "uploads")
	v.SetDefault("CACHE_TTL", 5*time.Minute)
	v.SetDefault("KAFKA_TOPIC", "media-events")
	v.SetDefault("OTEL_SERVICE_NAME", "mediashelf")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://localhost:" + cfg.AppPort
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the keys the selected blob backend cannot start without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	switch c.BlobBackend {
	case BackendLocal:
		if c.UploadDir == "" {
			return errors.New("UPLOAD_DIR is not set")
		}
	case BackendS3:
		if c.S3Endpoint == "" || c.S3Bucket == "" {
			return errors.New("S3_ENDPOINT and S3_BUCKET are required for the s3 backend")
		}
	case BackendCloudinary:
		if c.CloudinaryURL == "" &&
			(c.CloudinaryCloudName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "") {
			return errors.New("CLOUDINARY_URL or CLOUDINARY_CLOUD_NAME/API_KEY/API_SECRET are required for the cloudinary backend")
		}
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend)
	}
	if c.UploadMaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be positive")
	}
	return nil
}

func (c *Config) Brokers() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// String masks every secret.
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  AppPort: %s\n", c.AppPort))
	sb.WriteString(fmt.Sprintf("  AppEnv: %s\n", c.AppEnv))
	sb.WriteString(fmt.Sprintf("  DatabaseURL: %s\n", mask(c.DatabaseURL)))
	sb.WriteString(fmt.Sprintf("  PublicBaseURL: %s\n", c.PublicBaseURL))
	sb.WriteString(fmt.Sprintf("  BlobBackend: %s\n", c.BlobBackend))
	sb.WriteString(fmt.Sprintf("  UploadDir: %s\n", c.UploadDir))
	sb.WriteString(fmt.Sprintf("  StagingDir: %s\n", c.StagingDir))
	sb.WriteString(fmt.Sprintf("  UploadMaxBytes: %d\n", c.UploadMaxBytes))

	sb.WriteString(fmt.Sprintf("  S3Endpoint: %s\n", c.S3Endpoint))
	sb.WriteString(fmt.Sprintf("  S3Region: %s\n", c.S3Region))
	sb.WriteString(fmt.Sprintf("  S3Bucket: %s\n", c.S3Bucket))
	sb.WriteString(fmt.Sprintf("  S3AccessKey: %s\n", mask(c.S3AccessKey)))
	sb.WriteString(fmt.Sprintf("  S3SecretKey: %s\n", mask(c.S3SecretKey)))
	sb.WriteString(fmt.Sprintf("  S3UseSSL: %v\n", c.S3UseSSL))
	sb.WriteString(fmt.Sprintf("  S3PublicURL: %s\n", c.S3PublicURL))

	sb.WriteString(fmt.Sprintf("  CloudinaryURL: %s\n", mask(c.CloudinaryURL)))
	sb.WriteString(fmt.Sprintf("  CloudinaryCloudName: %s\n", c.CloudinaryCloudName))
	sb.WriteString(fmt.Sprintf("  CloudinaryAPIKey: %s\n", mask(c.CloudinaryAPIKey)))
	sb.WriteString(fmt.Sprintf("  CloudinaryAPISecret: %s\n", mask(c.CloudinaryAPISecret)))
	sb.WriteString(fmt.Sprintf("  CloudinaryFolder: %s\n", c.CloudinaryFolder))

	sb.WriteString(fmt.Sprintf("  RedisAddr: %s\n", c.RedisAddr))
	sb.WriteString(fmt.Sprintf("  RedisPassword: %s\n", mask(c.RedisPassword)))
	sb.WriteString(fmt.Sprintf("  RedisDB: %d\n", c.RedisDB))
	sb.WriteString(fmt.Sprintf("  CacheTTL: %s\n", c.CacheTTL))

	sb.WriteString(fmt.Sprintf("  KafkaBrokers: %s\n", c.KafkaBrokers))
	sb.WriteString(fmt.Sprintf("  KafkaTopic: %s\n", c.KafkaTopic))
	sb.WriteString(fmt.Sprintf("  OTLPEndpoint: %s\n", c.OTLPEndpoint))
	sb.WriteString(fmt.Sprintf("  ServiceName: %s\n", c.ServiceName))
	return sb.String()
}

func mask(s string) string {
	if s == "" {
		return "(empty)"
	}
	return "********"
}

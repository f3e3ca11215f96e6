// Package config loads the service configuration from a YAML file, an
// optional .env file and environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yaml"

// Config struct for YAML configuration. Every key can be overridden by an
// environment variable of the same name.
type Config struct {
	AppEnv  string `yaml:"APP_ENV"`
	AppName string `yaml:"APP_NAME"`
	AppURL  string `yaml:"APP_URL"`

	HTTPPort        int   `yaml:"HTTP_PORT"`
	GRPCPort        int   `yaml:"GRPC_PORT"`
	MaxRequestBytes int64 `yaml:"MAX_REQUEST_BYTES"`

	DBDriver   string `yaml:"DB_DRIVER"`
	DBHost     string `yaml:"DB_HOST"`
	DBPort     int    `yaml:"DB_PORT"`
	DBUser     string `yaml:"DB_USER"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBName     string `yaml:"DB_NAME"`
	DBSSLMode  string `yaml:"DB_SSLMODE"`
	DBPath     string `yaml:"DB_PATH"`

	JWTSecret string        `yaml:"JWT_SECRET"`
	JWTTTL    time.Duration `yaml:"JWT_TTL"`
	JWTIssuer string        `yaml:"JWT_ISSUER"`

	RedisAddr     string `yaml:"REDIS_ADDR"`
	RedisPassword string `yaml:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"REDIS_DB"`

	StorageDriver    string `yaml:"STORAGE_DRIVER"`
	StorageRoot      string `yaml:"STORAGE_ROOT"`
	StoragePublicURL string `yaml:"STORAGE_PUBLIC_URL"`
	MinIOEndpoint    string `yaml:"MINIO_ENDPOINT"`
	MinIOAccessKey   string `yaml:"MINIO_ACCESS_KEY"`
	MinIOSecretKey   string `yaml:"MINIO_SECRET_KEY"`
	MinIOBucket      string `yaml:"MINIO_BUCKET"`
	MinIOUseSSL      bool   `yaml:"MINIO_USE_SSL"`
	UploadMaxBytes   int64  `yaml:"UPLOAD_MAX_BYTES"`
	OptimizeImages   bool   `yaml:"OPTIMIZE_IMAGES"`

	EventsDriver        string   `yaml:"EVENTS_DRIVER"`
	KafkaBrokers        []string `yaml:"KAFKA_BROKERS"`
	KafkaTopic          string   `yaml:"KAFKA_TOPIC"`
	KafkaGroupID        string   `yaml:"KAFKA_GROUP_ID"`
	EventQueueSize      int      `yaml:"EVENT_QUEUE_SIZE"`
	NotifyRetryAttempts int      `yaml:"NOTIFY_RETRY_ATTEMPTS"`

	MailDriver   string `yaml:"MAIL_DRIVER"`
	SMTPHost     string `yaml:"SMTP_HOST"`
	SMTPPort     int    `yaml:"SMTP_PORT"`
	SMTPUsername string `yaml:"SMTP_USERNAME"`
	SMTPPassword string `yaml:"SMTP_PASSWORD"`
	MailFrom     string `yaml:"MAIL_FROM"`
	MailFromName string `yaml:"MAIL_FROM_NAME"`

	CORSAllowedOrigins []string `yaml:"CORS_ALLOWED_ORIGINS"`
	LogFile            string   `yaml:"LOG_FILE"`
	TelemetryEndpoint  string   `yaml:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TelemetryInsecure  bool     `yaml:"OTEL_EXPORTER_OTLP_INSECURE"`
}

// Default returns the configuration used when no file or variable overrides a key.
func Default() Config {
	return Config{
		AppEnv:              "production",
		AppName:             "Mini CRM",
		AppURL:              "http://localhost:8080",
		HTTPPort:            8080,
		GRPCPort:            9090,
		MaxRequestBytes:     8 << 20,
		DBDriver:            "postgres",
		DBHost:              "localhost",
		DBPort:              5432,
		DBUser:              "postgres",
		DBName:              "minicrm",
		DBSSLMode:           "disable",
		DBPath:              "minicrm.db",
		JWTTTL:              24 * time.Hour,
		JWTIssuer:           "minicrm",
		StorageDriver:       "local",
		StorageRoot:         "storage/app/public",
		StoragePublicURL:    "http://localhost:8080",
		MinIOBucket:         "minicrm",
		UploadMaxBytes:      2 << 20,
		OptimizeImages:      true,
		EventsDriver:        "memory",
		KafkaTopic:          "company.events",
		KafkaGroupID:        "minicrm-notifications",
		EventQueueSize:      1000,
		NotifyRetryAttempts: 3,
		MailDriver:          "log",
		SMTPPort:            587,
		MailFrom:            "noreply@minicrm.local",
		MailFromName:        "Mini CRM",
		CORSAllowedOrigins:  []string{"http://localhost:5173"},
	}
}

// Load reads the YAML file named by CONFIG_PATH (a missing file is tolerated),
// then applies .env and process environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}
	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.StorageDriver {
	case "local", "minio":
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.EventsDriver {
	case "memory":
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when EVENTS_DRIVER=kafka")
		}
	default:
		return fmt.Errorf("unsupported EVENTS_DRIVER %q", c.EventsDriver)
	}
	switch c.MailDriver {
	case "smtp", "log":
	default:
		return fmt.Errorf("unsupported MAIL_DRIVER %q", c.MailDriver)
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development" || c.AppEnv == "local"
}

func applyEnv(c *Config) {
	setString(&c.AppEnv, "APP_ENV")
	setString(&c.AppName, "APP_NAME")
	setString(&c.AppURL, "APP_URL")
	setInt(&c.HTTPPort, "HTTP_PORT")
	setInt(&c.GRPCPort, "GRPC_PORT")
	setInt64(&c.MaxRequestBytes, "MAX_REQUEST_BYTES")

	setString(&c.DBDriver, "DB_DRIVER")
	setString(&c.DBHost, "DB_HOST")
	setInt(&c.DBPort, "DB_PORT")
	setString(&c.DBUser, "DB_USER")
	setString(&c.DBPassword, "DB_PASSWORD")
	setString(&c.DBName, "DB_NAME")
	setString(&c.DBSSLMode, "DB_SSLMODE")
	setString(&c.DBPath, "DB_PATH")

	setString(&c.JWTSecret, "JWT_SECRET")
	setDuration(&c.JWTTTL, "JWT_TTL")
	setString(&c.JWTIssuer, "JWT_ISSUER")

	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.RedisPassword, "REDIS_PASSWORD")
	setInt(&c.RedisDB, "REDIS_DB")

	setString(&c.StorageDriver, "STORAGE_DRIVER")
	setString(&c.StorageRoot, "STORAGE_ROOT")
	setString(&c.StoragePublicURL, "STORAGE_PUBLIC_URL")
	setString(&c.MinIOEndpoint, "MINIO_ENDPOINT")
	setString(&c.MinIOAccessKey, "MINIO_ACCESS_KEY")
	setString(&c.MinIOSecretKey, "MINIO_SECRET_KEY")
	setString(&c.MinIOBucket, "MINIO_BUCKET")
	setBool(&c.MinIOUseSSL, "MINIO_USE_SSL")
	setInt64(&c.UploadMaxBytes, "UPLOAD_MAX_BYTES")
	setBool(&c.OptimizeImages, "OPTIMIZE_IMAGES")

	setString(&c.EventsDriver, "EVENTS_DRIVER")
	setList(&c.KafkaBrokers, "KAFKA_BROKERS")
	setString(&c.KafkaTopic, "KAFKA_TOPIC")
	setString(&c.KafkaGroupID, "KAFKA_GROUP_ID")
	setInt(&c.EventQueueSize, "EVENT_QUEUE_SIZE")
	setInt(&c.NotifyRetryAttempts, "NOTIFY_RETRY_ATTEMPTS")

	setString(&c.MailDriver, "MAIL_DRIVER")
	setString(&c.SMTPHost, "SMTP_HOST")
	setInt(&c.SMTPPort, "SMTP_PORT")
	setString(&c.SMTPUsername, "SMTP_USERNAME")
	setString(&c.SMTPPassword, "SMTP_PASSWORD")
	setString(&c.MailFrom, "MAIL_FROM")
	setString(&c.MailFromName, "MAIL_FROM_NAME")

	setList(&c.CORSAllowedOrigins, "CORS_ALLOWED_ORIGINS")
	setString(&c.LogFile, "LOG_FILE")
	setString(&c.TelemetryEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&c.TelemetryInsecure, "OTEL_EXPORTER_OTLP_INSECURE")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			*dst = true
		case "0", "false", "f", "no", "n", "off":
			*dst = false
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			*dst = d
		}
	}
}

func setList(dst *[]string, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	var cleaned []string
	for _, p := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) > 0 {
		*dst = cleaned
	}
}

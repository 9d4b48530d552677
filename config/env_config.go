package config

import (
	"os"
	"strconv"
	"strings"
)

type EnvConfig struct {
	Postgres struct {
		Host     string
		Database string
		Username string
		Password string
		Port     string
	}
	Redis struct {
		Password string
		Database int
		Host     string
		Port     string
	}
	RabbitMQ struct {
		Host     string
		Port     string
		Username string
		Password string
	}
	Minio struct {
		Endpoint  string
		AccessKey string
		SecretKey string
		UseSSL    bool
		Bucket    string
		Region    string
	}
	Upload struct {
		MaxSizeBytes        int64
		AllowedContentTypes []string
		AssociationMode     string // "multi" or "single"
		PresignTTLSeconds   int
	}
	JWT struct {
		SecretKey string
	}
	Auth struct {
		Enabled bool
	}
	CORS struct {
		AllowDomains string
	}
	Reconcile struct {
		IntervalSeconds    int
		GracePeriodSeconds int
	}
	Grafana struct {
		OTLPEndpoint string
		ServiceName  string
	}
	Environment struct {
		Mode string
	}
	DomainName string
}

const (
	AssociationModeMulti  = "multi"
	AssociationModeSingle = "single"
)

func LoadEnvConfig() *EnvConfig {
	var config EnvConfig

	// Postgres
	config.Postgres.Host = getEnv("PG_HOST", "localhost")
	config.Postgres.Database = getEnv("PG_DB", "product_images")
	config.Postgres.Username = getEnv("PG_USER", "postgres")
	config.Postgres.Password = os.Getenv("PG_PASSWORD")
	config.Postgres.Port = getEnv("PG_PORT", "5432")

	// Redis
	config.Redis.Password = os.Getenv("REDIS_PASSWORD")
	config.Redis.Database, _ = strconv.Atoi(os.Getenv("REDIS_DB"))
	config.Redis.Host = getEnv("REDIS_HOST", "localhost")
	config.Redis.Port = getEnv("REDIS_PORT", "6379")

	// RabbitMQ
	config.RabbitMQ.Host = getEnv("RABBITMQ_HOST", "localhost")
	config.RabbitMQ.Port = getEnv("RABBITMQ_PORT", "5672")
	config.RabbitMQ.Username = getEnv("RABBITMQ_USER", "guest")
	config.RabbitMQ.Password = getEnv("RABBITMQ_PASSWORD", "guest")

	// MinIO
	config.Minio.Endpoint = getEnv("MINIO_ENDPOINT", "localhost:9000")
	config.Minio.AccessKey = getEnv("MINIO_ACCESS_KEY", "minioadmin")
	config.Minio.SecretKey = getEnv("MINIO_SECRET_KEY", "minioadmin")
	config.Minio.UseSSL = getEnv("MINIO_USE_SSL", "false") == "true"
	config.Minio.Bucket = getEnv("MINIO_BUCKET", "product-images")
	config.Minio.Region = getEnv("MINIO_REGION", "us-east-1")

	// Upload limits
	if sizeStr := os.Getenv("UPLOAD_MAX_SIZE_BYTES"); sizeStr != "" {
		if size, err := strconv.ParseInt(sizeStr, 10, 64); err == nil && size > 0 {
			config.Upload.MaxSizeBytes = size
		}
	}
	if config.Upload.MaxSizeBytes == 0 {
		config.Upload.MaxSizeBytes = 10 * 1024 * 1024 // 10MiB
	}

	typesStr := getEnv("UPLOAD_ALLOWED_CONTENT_TYPES", "image/jpeg,image/jpg,image/png,image/gif")
	for _, t := range strings.Split(typesStr, ",") {
		if t = strings.TrimSpace(t); t != "" {
			config.Upload.AllowedContentTypes = append(config.Upload.AllowedContentTypes, t)
		}
	}

	config.Upload.AssociationMode = getEnv("UPLOAD_ASSOCIATION_MODE", AssociationModeMulti)
	if config.Upload.AssociationMode != AssociationModeSingle {
		config.Upload.AssociationMode = AssociationModeMulti
	}

	config.Upload.PresignTTLSeconds, _ = strconv.Atoi(os.Getenv("UPLOAD_PRESIGN_TTL_SECONDS"))
	if config.Upload.PresignTTLSeconds <= 0 {
		config.Upload.PresignTTLSeconds = 3600
	}

	// Auth
	config.JWT.SecretKey = os.Getenv("JWT_SECRET_KEY")
	config.Auth.Enabled = getEnv("AUTH_ENABLED", "false") == "true"

	config.CORS.AllowDomains = os.Getenv("ALLOWED_DOMAINS")

	// Reconcile worker
	config.Reconcile.IntervalSeconds, _ = strconv.Atoi(os.Getenv("RECONCILE_INTERVAL_SECONDS"))
	if config.Reconcile.IntervalSeconds <= 0 {
		config.Reconcile.IntervalSeconds = 3600
	}
	config.Reconcile.GracePeriodSeconds, _ = strconv.Atoi(os.Getenv("RECONCILE_GRACE_PERIOD_SECONDS"))
	if config.Reconcile.GracePeriodSeconds <= 0 {
		config.Reconcile.GracePeriodSeconds = 600
	}

	// OpenTelemetry
	otlpEndpoint := os.Getenv("GRAFANA_OTLP_ENDPOINT")
	otlpEndpoint = strings.TrimPrefix(otlpEndpoint, "https://")
	otlpEndpoint = strings.TrimPrefix(otlpEndpoint, "http://")
	config.Grafana.OTLPEndpoint = otlpEndpoint
	config.Grafana.ServiceName = getEnv("SERVICE_NAME", "product-image-service")

	config.Environment.Mode = getEnv("DEPLOY_ENV", "development")

	config.DomainName = getEnv("DOMAIN_NAME", "localhost:8080")

	return &config
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	MediaBackendCloudinary = "cloudinary"
	MediaBackendS3         = "s3"
	MediaBackendMinIO      = "minio"
	MediaBackendLocal      = "local"

	IndexBackendDynamoDB = "dynamodb"
	IndexBackendPostgres = "postgres"
)

type Config struct {
	Server     ServerConfig
	Gallery    GalleryConfig
	MediaStore MediaStoreConfig
	Cloudinary CloudinaryConfig
	S3         S3Config
	MinIO      MinIOConfig
	Local      LocalConfig
	Dynamo     DynamoConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	NATS       NATSConfig
	CloudWatch CloudWatchConfig
	Telemetry  TelemetryConfig
	Security   SecurityConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type GalleryConfig struct {
	Folder              string
	DefaultPageSize     int
	MaxPageSize         int
	MaxPayloadBytes     int64
	UploadRatePerMinute int
	UploadRateBurst     int
	ListCacheTTL        time.Duration
	EventSubject        string
	EventStream         string
}

type MediaStoreConfig struct {
	Backend string
	Index   string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	URLMode         string
	PresignedTTL    time.Duration
}

type MinIOConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	PublicBase string
	UseSSL     bool
}

type LocalConfig struct {
	Dir           string
	PublicBaseURL string
}

type DynamoConfig struct {
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	StrongReads     bool
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type NATSConfig struct {
	Enabled bool
	URL     string
}

type CloudWatchConfig struct {
	MetricsEnabled       bool
	LogsEnabled          bool
	Region               string
	Endpoint             string
	AccessKeyID          string
	SecretAccessKey      string
	MetricsNamespace     string
	MetricsDimensions    map[string]string
	MetricsBufferSize    int
	MetricsFlushInterval time.Duration
	LogGroupName         string
	LogStreamName        string
	LogsBufferSize       int
	LogsFlushInterval    time.Duration
}

type TelemetryConfig struct {
	TracingEnabled bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	OTLPInsecure   bool
}

type SecurityConfig struct {
	AllowedOrigins []string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	presignedTTL, err := parseDuration(getEnv("S3_PRESIGNED_TTL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid S3_PRESIGNED_TTL: %w", err)
	}

	listCacheTTL, err := parseDuration(getEnv("GALLERY_LIST_CACHE_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GALLERY_LIST_CACHE_TTL: %w", err)
	}

	metricsFlushInterval, err := parseDuration(getEnv("CLOUDWATCH_METRICS_FLUSH_INTERVAL", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_METRICS_FLUSH_INTERVAL: %w", err)
	}

	logsFlushInterval, err := parseDuration(getEnv("CLOUDWATCH_LOGS_FLUSH_INTERVAL", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_LOGS_FLUSH_INTERVAL: %w", err)
	}

	var (
		defaultPageSize, maxPageSize, maxPayloadMB int
		uploadRatePerMinute, uploadRateBurst       int
		redisDB, redisPoolSize, redisMinIdle       int
		metricsBufferSize, logsBufferSize          int
	)
	intVars := []struct {
		key      string
		fallback string
		target   *int
	}{
		{"GALLERY_DEFAULT_PAGE_SIZE", "30", &defaultPageSize},
		{"GALLERY_MAX_PAGE_SIZE", "100", &maxPageSize},
		{"GALLERY_MAX_PAYLOAD_MB", "25", &maxPayloadMB},
		{"GALLERY_UPLOAD_RATE_PER_MINUTE", "60", &uploadRatePerMinute},
		{"GALLERY_UPLOAD_RATE_BURST", "20", &uploadRateBurst},
		{"REDIS_DB", "0", &redisDB},
		{"REDIS_POOL_SIZE", "10", &redisPoolSize},
		{"REDIS_MIN_IDLE_CONNS", "2", &redisMinIdle},
		{"CLOUDWATCH_METRICS_BUFFER_SIZE", "100", &metricsBufferSize},
		{"CLOUDWATCH_LOGS_BUFFER_SIZE", "50", &logsBufferSize},
	}
	for _, v := range intVars {
		parsed, err := strconv.Atoi(getEnv(v.key, v.fallback))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", v.key, err)
		}
		*v.target = parsed
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Gallery: GalleryConfig{
			Folder:              strings.Trim(getEnv("GALLERY_FOLDER", "gallery_uploads"), "/"),
			DefaultPageSize:     defaultPageSize,
			MaxPageSize:         maxPageSize,
			MaxPayloadBytes:     int64(maxPayloadMB) * 1024 * 1024,
			UploadRatePerMinute: uploadRatePerMinute,
			UploadRateBurst:     uploadRateBurst,
			ListCacheTTL:        listCacheTTL,
			EventSubject:        getEnv("GALLERY_EVENT_SUBJECT", "gallery.photo.uploaded"),
			EventStream:         getEnv("GALLERY_EVENT_STREAM", "GALLERY"),
		},
		MediaStore: MediaStoreConfig{
			Backend: strings.ToLower(getEnv("MEDIA_STORE_BACKEND", MediaBackendCloudinary)),
			Index:   strings.ToLower(getEnv("MEDIA_STORE_INDEX", IndexBackendDynamoDB)),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		},
		S3: S3Config{
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", "ru-central1"),
			Endpoint:        getEnv("S3_ENDPOINT", "https://storage.yandexcloud.net"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", true),
			URLMode:         getEnv("S3_URL_MODE", "presigned"),
			PresignedTTL:    presignedTTL,
		},
		MinIO: MinIOConfig{
			Endpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:  getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:  getEnv("MINIO_SECRET_KEY", ""),
			Bucket:     getEnv("MINIO_BUCKET", "gallery"),
			PublicBase: getEnv("MINIO_PUBLIC_BASE", "http://localhost:9000/gallery"),
			UseSSL:     getEnvBool("MINIO_USE_SSL", false),
		},
		Local: LocalConfig{
			Dir:           getEnv("LOCAL_MEDIA_DIR", "./data/media"),
			PublicBaseURL: getEnv("LOCAL_MEDIA_PUBLIC_BASE_URL", "http://localhost:8080/media"),
		},
		Dynamo: DynamoConfig{
			TableName:       getEnv("DYNAMODB_TABLE_PHOTOS", "gallery_photos"),
			Region:          getEnv("DYNAMODB_REGION", "us-east-1"),
			Endpoint:        getEnv("DYNAMODB_ENDPOINT", ""),
			AccessKeyID:     getEnv("DYNAMODB_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("DYNAMODB_SECRET_ACCESS_KEY", ""),
			StrongReads:     getEnvBool("DYNAMODB_STRONG_READS", false),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Database:        getEnv("DB_NAME", "gallery"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,
		},
		Redis: RedisConfig{
			Enabled:      getEnvBool("REDIS_ENABLED", false),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           redisDB,
			PoolSize:     redisPoolSize,
			MinIdleConns: redisMinIdle,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		NATS: NATSConfig{
			Enabled: getEnvBool("NATS_ENABLED", false),
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
		},
		CloudWatch: CloudWatchConfig{
			MetricsEnabled:       getEnvBool("CLOUDWATCH_METRICS_ENABLED", false),
			LogsEnabled:          getEnvBool("CLOUDWATCH_LOGS_ENABLED", false),
			Region:               getEnv("CLOUDWATCH_REGION", "us-east-1"),
			Endpoint:             getEnv("CLOUDWATCH_ENDPOINT", ""),
			AccessKeyID:          getEnv("CLOUDWATCH_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("CLOUDWATCH_SECRET_ACCESS_KEY", ""),
			MetricsNamespace:     getEnv("CLOUDWATCH_METRICS_NAMESPACE", "EventGallery/API"),
			MetricsDimensions:    parseDimensions(getEnv("CLOUDWATCH_METRICS_DIMENSIONS", "")),
			MetricsBufferSize:    metricsBufferSize,
			MetricsFlushInterval: metricsFlushInterval,
			LogGroupName:         getEnv("CLOUDWATCH_LOG_GROUP", "/event-gallery/api"),
			LogStreamName:        getEnv("CLOUDWATCH_LOG_STREAM", hostnameOr("gallery-api")),
			LogsBufferSize:       logsBufferSize,
			LogsFlushInterval:    logsFlushInterval,
		},
		Telemetry: TelemetryConfig{
			TracingEnabled: getEnvBool("OTEL_TRACING_ENABLED", false),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "gallery-api"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			Environment:    getEnv("APP_ENV", "development"),
			OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			OTLPInsecure:   getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		},
		Security: SecurityConfig{
			AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:8080,http://127.0.0.1:8080")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет согласованность выбранных backend'ов.
func (c *Config) Validate() error {
	if c.Gallery.Folder == "" {
		return fmt.Errorf("GALLERY_FOLDER must not be empty")
	}
	if c.Gallery.DefaultPageSize <= 0 || c.Gallery.MaxPageSize <= 0 {
		return fmt.Errorf("gallery page sizes must be positive")
	}
	if c.Gallery.DefaultPageSize > c.Gallery.MaxPageSize {
		return fmt.Errorf("GALLERY_DEFAULT_PAGE_SIZE must not exceed GALLERY_MAX_PAGE_SIZE")
	}

	switch c.MediaStore.Backend {
	case MediaBackendCloudinary:
		if c.Cloudinary.CloudName == "" || c.Cloudinary.APIKey == "" || c.Cloudinary.APISecret == "" {
			return fmt.Errorf("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required for the cloudinary backend")
		}
		return nil
	case MediaBackendS3, MediaBackendMinIO, MediaBackendLocal:
	default:
		return fmt.Errorf("unsupported MEDIA_STORE_BACKEND: %s", c.MediaStore.Backend)
	}

	switch c.MediaStore.Index {
	case IndexBackendDynamoDB:
		if c.Dynamo.TableName == "" {
			return fmt.Errorf("DYNAMODB_TABLE_PHOTOS is required for the dynamodb index")
		}
	case IndexBackendPostgres:
	default:
		return fmt.Errorf("unsupported MEDIA_STORE_INDEX: %s", c.MediaStore.Index)
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// URL возвращает DSN в формате URL для golang-migrate.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnv exposes the env lookup to binaries that do not need the full server config.
func GetEnv(key, defaultValue string) string {
	return getEnv(key, defaultValue)
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func splitCSV(raw string) []string {
	items := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// parseDimensions разбирает "Env=prod,Service=gallery".
func parseDimensions(raw string) map[string]string {
	dimensions := make(map[string]string)
	for _, pair := range splitCSV(raw) {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			continue
		}
		dimensions[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return dimensions
}

func hostnameOr(fallback string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return fallback
	}
	return host
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}

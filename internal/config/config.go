package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreBackendBolt     = "bolt"
	StoreBackendSQLite   = "sqlite"
	StoreBackendPostgres = "postgres"
	StoreBackendRedis    = "redis"
	StoreBackendMinio    = "minio"
	StoreBackendMongo    = "mongo"
	StoreBackendMemory   = "memory"
)

type Config struct {
	Env      string
	HTTPPort string

	StoreBackend string
	StorageKey   string
	BoltPath     string
	DatabaseURL  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	MongoURI      string
	MongoDatabase string

	SortLocale string
	NoticeTTL  time.Duration

	APIRateLimitPerMin     int
	RateLimitRedisEnabled  bool
	RateLimitRedisPrefix   string
	RateLimitRedisFailOpen bool
	CORSAllowedOrigins     []string
	HTMLUIEnabled          bool

	ReadinessProbeTimeout        time.Duration
	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string
}

func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")
	cfg := &Config{
		Env:      env,
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		StoreBackend: strings.ToLower(strings.TrimSpace(getEnv("CATALOG_STORE_BACKEND", StoreBackendBolt))),
		StorageKey:   getEnv("CATALOG_STORAGE_KEY", "products"),
		BoltPath:     getEnv("CATALOG_BOLT_PATH", "data/catalog.db"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPrefix:   getEnv("CATALOG_REDIS_PREFIX", "catalog"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("CATALOG_MINIO_BUCKET", "catalog"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "catalog"),

		SortLocale: getEnv("CATALOG_SORT_LOCALE", "en"),

		APIRateLimitPerMin:     getEnvInt("API_RATE_LIMIT_PER_MIN", 120),
		RateLimitRedisEnabled:  getEnvBool("RATE_LIMIT_REDIS_ENABLED", false),
		RateLimitRedisPrefix:   getEnv("RATE_LIMIT_REDIS_PREFIX", "rl"),
		RateLimitRedisFailOpen: getEnvBool("RATE_LIMIT_REDIS_FAIL_OPEN", true),
		CORSAllowedOrigins:     splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		HTMLUIEnabled:          getEnvBool("CATALOG_HTML_UI_ENABLED", true),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "catalog-editor"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", false),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", false),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", false),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"CATALOG_NOTICE_TTL", "3s", &cfg.NoticeTTL},
		{"READINESS_PROBE_TIMEOUT", "1s", &cfg.ReadinessProbeTimeout},
		{"SHUTDOWN_TIMEOUT", "20s", &cfg.ShutdownTimeout},
		{"SHUTDOWN_HTTP_DRAIN_TIMEOUT", "10s", &cfg.ShutdownHTTPDrainTimeout},
		{"SHUTDOWN_OBSERVABILITY_TIMEOUT", "8s", &cfg.ShutdownObservabilityTimeout},
		{"OTEL_METRICS_EXPORT_INTERVAL", "10s", &cfg.OTELMetricsExportInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	switch c.StoreBackend {
	case StoreBackendBolt:
		if strings.TrimSpace(c.BoltPath) == "" {
			errs = append(errs, "CATALOG_BOLT_PATH is required when CATALOG_STORE_BACKEND=bolt")
		}
	case StoreBackendSQLite, StoreBackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required when CATALOG_STORE_BACKEND="+c.StoreBackend)
		}
	case StoreBackendRedis:
		if c.RedisAddr == "" {
			errs = append(errs, "REDIS_ADDR is required when CATALOG_STORE_BACKEND=redis")
		}
		if c.RedisDB < 0 {
			errs = append(errs, "REDIS_DB must be >= 0")
		}
	case StoreBackendMinio:
		if c.MinioEndpoint == "" || c.MinioBucket == "" {
			errs = append(errs, "MINIO_ENDPOINT and CATALOG_MINIO_BUCKET are required when CATALOG_STORE_BACKEND=minio")
		}
		if c.MinioAccessKey == "" || c.MinioSecretKey == "" {
			errs = append(errs, "MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when CATALOG_STORE_BACKEND=minio")
		}
	case StoreBackendMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			errs = append(errs, "MONGO_URI and MONGO_DATABASE are required when CATALOG_STORE_BACKEND=mongo")
		}
	case StoreBackendMemory:
	default:
		errs = append(errs, "CATALOG_STORE_BACKEND must be one of bolt, sqlite, postgres, redis, minio, mongo, memory")
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		errs = append(errs, "CATALOG_STORAGE_KEY must not be empty")
	}
	if c.NoticeTTL <= 0 {
		errs = append(errs, "CATALOG_NOTICE_TTL must be > 0")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.RateLimitRedisEnabled && c.RedisAddr == "" {
		errs = append(errs, "REDIS_ADDR is required when RATE_LIMIT_REDIS_ENABLED=true")
	}
	if c.ReadinessProbeTimeout <= 0 {
		errs = append(errs, "READINESS_PROBE_TIMEOUT must be > 0")
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, "SHUTDOWN_TIMEOUT must be > 0")
	}
	if c.ShutdownHTTPDrainTimeout > c.ShutdownTimeout {
		errs = append(errs, "SHUTDOWN_HTTP_DRAIN_TIMEOUT must not exceed SHUTDOWN_TIMEOUT")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if c.OTELMetricsExportInterval <= 0 {
		errs = append(errs, "OTEL_METRICS_EXPORT_INTERVAL must be > 0")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// NeedsRedis reports whether a shared redis client must be opened, either for
// the catalog slot or for the distributed rate limiter.
func (c *Config) NeedsRedis() bool {
	return c.StoreBackend == StoreBackendRedis || c.RateLimitRedisEnabled
}

// UsesSQL reports whether the slot lives in a gorm-managed table.
func (c *Config) UsesSQL() bool {
	return c.StoreBackend == StoreBackendSQLite || c.StoreBackend == StoreBackendPostgres
}

func isValidLogLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}

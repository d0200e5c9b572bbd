package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig encapsulates all runtime configuration knobs.
type AppConfig struct {
	App       AppSettings
	HTTP      HTTPSettings
	Auth      AuthSettings
	Log       LogSettings
	Database  DatabaseSettings
	Audit     AuditSettings
	Storage   StorageSettings
	OCR       OCRSettings
	Ingestion IngestionSettings
	Taxpayer  TaxpayerSettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	WriteTimeoutBatch time.Duration // Extended timeout for batch uploads
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxUploadBytes    int64
}

type AuthSettings struct {
	Enabled     bool
	IssuerURI   string
	JWKSetURI   string
	Audience    string
	ClockSkew   time.Duration
	BypassPaths []string
	// DevUserHeader names a header trusted as the user id when auth is disabled.
	DevUserHeader string
}

type LogSettings struct {
	Level  string
	Format string
}

type DatabaseSettings struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	RunMigrations   bool
}

type AuditSettings struct {
	Enabled         bool
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodySize     int
}

// StorageSettings configures the MinIO bucket that keeps original uploads.
type StorageSettings struct {
	Enabled    bool
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	UseSSL     bool
	PresignTTL time.Duration
}

// OCRSettings selects and tunes the recognition backend.
type OCRSettings struct {
	Engine                string // tesseract, paddle or vision
	Language              string
	TessdataPrefix        string
	PaddleURL             string
	PaddleMinConfidence   float64
	VisionCredentialsJSON string
	VisionCredentialsFile string
	MaxConcurrent         int
	Timeout               time.Duration
	BreakerMaxFailures    int
	BreakerThreshold      float64
	BreakerCooldown       time.Duration
	MaxPDFImages          int
}

type IngestionSettings struct {
	DedupFallbackFields string
	DedupOCRFields      string
	BatchWorkers        int
	BatchQueueSize      int
	BatchMaxFiles       int
}

type TaxpayerSettings struct {
	CacheTTL time.Duration
}

const (
	EngineTesseract = "tesseract"
	EnginePaddle    = "paddle"
	EngineVision    = "vision"
)

// Load resolves the application configuration from environment variables.
// Values from a .env file are used when present; real environment variables win.
func Load() (AppConfig, error) {
	_ = godotenv.Load()

	cfg := AppConfig{
		App: AppSettings{
			Name:        getEnv("APP_NAME", "facturas_sri"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Environment: getEnv("APP_ENV", "local"),
		},
		HTTP: HTTPSettings{
			Port:              getEnvAsInt("APP_PORT", 8080),
			ReadTimeout:       getEnvAsDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:      getEnvAsDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
			WriteTimeoutBatch: getEnvAsDuration("HTTP_WRITE_TIMEOUT_BATCH", 10*time.Minute),
			IdleTimeout:       getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout:   getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
			MaxUploadBytes:    int64(getEnvAsInt("HTTP_MAX_UPLOAD_BYTES", 20<<20)),
		},
		Auth: AuthSettings{
			Enabled:       getEnvAsBool("AUTH_ENABLED", true),
			IssuerURI:     strings.TrimSpace(os.Getenv("JWT_ISSUER_URI")),
			JWKSetURI:     strings.TrimSpace(os.Getenv("JWT_JWK_SET_URI")),
			Audience:      strings.TrimSpace(os.Getenv("JWT_AUDIENCE")),
			ClockSkew:     getEnvAsDuration("AUTH_CLOCK_SKEW", 2*time.Minute),
			BypassPaths:   getEnvAsCSV("AUTH_BYPASS_PATHS", []string{"/health"}),
			DevUserHeader: getEnv("AUTH_DEV_USER_HEADER", "X-User-ID"),
		},
		Log: LogSettings{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "auto"),
		},
		Database: DatabaseSettings{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", "facturas_sri"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			RunMigrations:   getEnvAsBool("DB_RUN_MIGRATIONS", true),
		},
		Audit: AuditSettings{
			Enabled:         getEnvAsBool("AUDIT_ENABLED", true),
			LogRequestBody:  getEnvAsBool("AUDIT_LOG_REQUEST_BODY", true),
			LogResponseBody: getEnvAsBool("AUDIT_LOG_RESPONSE_BODY", true),
			MaxBodySize:     getEnvAsInt("AUDIT_MAX_BODY_SIZE", 102400),
		},
		Storage: StorageSettings{
			Enabled:    getEnvAsBool("STORAGE_ENABLED", false),
			Endpoint:   strings.TrimSpace(os.Getenv("MINIO_ENDPOINT")),
			AccessKey:  strings.TrimSpace(os.Getenv("MINIO_ACCESS_KEY")),
			SecretKey:  strings.TrimSpace(os.Getenv("MINIO_SECRET_KEY")),
			Bucket:     getEnv("MINIO_BUCKET", "facturas"),
			UseSSL:     getEnvAsBool("MINIO_USE_SSL", false),
			PresignTTL: getEnvAsDuration("MINIO_PRESIGN_TTL", 15*time.Minute),
		},
		OCR: OCRSettings{
			Engine:                strings.ToLower(getEnv("OCR_ENGINE", EngineTesseract)),
			Language:              getEnv("OCR_LANGUAGE", "spa"),
			TessdataPrefix:        strings.TrimSpace(os.Getenv("TESSDATA_PREFIX")),
			PaddleURL:             strings.TrimSpace(os.Getenv("PADDLE_OCR_URL")),
			PaddleMinConfidence:   getEnvAsFloat("PADDLE_MIN_CONFIDENCE", 0.5),
			VisionCredentialsJSON: strings.TrimSpace(os.Getenv("GOOGLE_VISION_CREDENTIALS_JSON")),
			VisionCredentialsFile: strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
			MaxConcurrent:         getEnvAsInt("OCR_MAX_CONCURRENT", 4),
			Timeout:               getEnvAsDuration("OCR_TIMEOUT", 60*time.Second),
			BreakerMaxFailures:    getEnvAsInt("OCR_BREAKER_MAX_FAILURES", 5),
			BreakerThreshold:      getEnvAsFloat("OCR_BREAKER_THRESHOLD", 0.5),
			BreakerCooldown:       getEnvAsDuration("OCR_BREAKER_COOLDOWN", 30*time.Second),
			MaxPDFImages:          getEnvAsInt("OCR_MAX_PDF_IMAGES", 10),
		},
		Ingestion: IngestionSettings{
			DedupFallbackFields: getEnv("DEDUP_FALLBACK_FIELDS", "tax_id,number,date,total"),
			DedupOCRFields:      getEnv("DEDUP_OCR_FIELDS", "tax_id,number,total"),
			BatchWorkers:        getEnvAsInt("BATCH_WORKERS", 4),
			BatchQueueSize:      getEnvAsInt("BATCH_QUEUE_SIZE", 32),
			BatchMaxFiles:       getEnvAsInt("BATCH_MAX_FILES", 50),
		},
		Taxpayer: TaxpayerSettings{
			CacheTTL: getEnvAsDuration("TAXPAYER_CACHE_TTL", 24*time.Hour),
		},
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c AppConfig) validate() error {
	if c.Auth.Enabled {
		if c.Auth.IssuerURI == "" {
			return errors.New("invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true")
		}
		if c.Auth.JWKSetURI == "" {
			return errors.New("invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true")
		}
	}

	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case "auto", "json", "text":
	default:
		return fmt.Errorf("invalid config: LOG_FORMAT must be one of auto, json, text (got %q)", c.Log.Format)
	}

	if c.HTTP.MaxUploadBytes <= 0 {
		return errors.New("invalid config: HTTP_MAX_UPLOAD_BYTES must be greater than 0")
	}

	switch c.OCR.Engine {
	case EngineTesseract:
	case EnginePaddle:
		if c.OCR.PaddleURL == "" {
			return errors.New("invalid config: PADDLE_OCR_URL is required when OCR_ENGINE=paddle")
		}
	case EngineVision:
		if c.OCR.VisionCredentialsJSON == "" && c.OCR.VisionCredentialsFile == "" {
			return errors.New("invalid config: GOOGLE_VISION_CREDENTIALS_JSON or GOOGLE_APPLICATION_CREDENTIALS is required when OCR_ENGINE=vision")
		}
	default:
		return fmt.Errorf("invalid config: OCR_ENGINE must be one of tesseract, paddle, vision (got %q)", c.OCR.Engine)
	}
	if c.OCR.MaxConcurrent <= 0 {
		return errors.New("invalid config: OCR_MAX_CONCURRENT must be greater than 0")
	}
	if c.OCR.BreakerThreshold <= 0 || c.OCR.BreakerThreshold > 1 {
		return errors.New("invalid config: OCR_BREAKER_THRESHOLD must be in (0, 1]")
	}

	if c.Storage.Enabled {
		if c.Storage.Endpoint == "" {
			return errors.New("invalid config: MINIO_ENDPOINT is required when STORAGE_ENABLED=true")
		}
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			return errors.New("invalid config: MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when STORAGE_ENABLED=true")
		}
	}

	if c.Ingestion.BatchWorkers <= 0 {
		return errors.New("invalid config: BATCH_WORKERS must be greater than 0")
	}
	if c.Ingestion.BatchQueueSize <= 0 {
		return errors.New("invalid config: BATCH_QUEUE_SIZE must be greater than 0")
	}
	if c.Ingestion.BatchMaxFiles <= 0 {
		return errors.New("invalid config: BATCH_MAX_FILES must be greater than 0")
	}
	if strings.TrimSpace(c.Ingestion.DedupFallbackFields) == "" {
		return errors.New("invalid config: DEDUP_FALLBACK_FIELDS must name at least one field")
	}
	if strings.TrimSpace(c.Ingestion.DedupOCRFields) == "" {
		return errors.New("invalid config: DEDUP_OCR_FIELDS must name at least one field")
	}

	return nil
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsCSV(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Auth           AuthConfig
	RateLimit      RateLimitConfig
	AdminBootstrap AdminBootstrapConfig
	Jobs           JobsConfig
	Email          EmailConfig
	Push           PushConfig
	Storage        StorageConfig
	Logging        LoggingConfig
	Tracing        TracingConfig
	Environment    string
}

type ServerConfig struct {
	Host    string
	Port    int
	BaseURL string
	// CSRFKey authenticates the double-submit cookie on HTML forms. 32 bytes.
	CSRFKey string
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MaxIdle        int
}

type AuthConfig struct {
	JWTSecret  string
	JWTExpiry  time.Duration
	JWTIssuer  string
	CookieName string
}

type RateLimitConfig struct {
	PublicPerMinute        int
	AuthenticatedPerMinute int
	LoginPer15Minutes      int
	TrustedProxyCIDRs      []string
}

type AdminBootstrapConfig struct {
	Name     string
	Password string
	Email    string
}

type JobsConfig struct {
	AlertCheckInterval time.Duration
	AlertLookback      time.Duration
	ImportInterval     time.Duration
	SourcesDir         string
	Workers            int
}

type EmailConfig struct {
	Enabled      bool
	Provider     string // "smtp" or "resend"
	From         string
	FromName     string
	ResendAPIKey string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
}

type PushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string
	TTL             int
}

// Enabled reports whether both VAPID keys are configured.
func (c PushConfig) Enabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

type StorageConfig struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	MaxUploadSize int64
}

// Enabled reports whether resume uploads can be stored.
func (c StorageConfig) Enabled() bool {
	return c.Bucket != ""
}

type LoggingConfig struct {
	Level  string
	Format string
}

type TracingConfig struct {
	Enabled      bool
	Exporter     string
	ServiceName  string
	OTLPEndpoint string
	SampleRate   float64
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvInt("SERVER_PORT", 8080),
			BaseURL: strings.TrimRight(getEnv("SERVER_BASE_URL", "http://localhost:8080"), "/"),
			CSRFKey: getEnv("CSRF_KEY", ""),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
			MaxIdle:        getEnvInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", ""),
			JWTExpiry:  time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24*7)) * time.Hour,
			JWTIssuer:  getEnv("JWT_ISSUER", "mrintern"),
			CookieName: getEnv("SESSION_COOKIE_NAME", "mrintern_session"),
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute:        getEnvInt("RATE_LIMIT_PUBLIC", 60),
			AuthenticatedPerMinute: getEnvInt("RATE_LIMIT_AUTHENTICATED", 300),
			LoginPer15Minutes:      getEnvInt("RATE_LIMIT_LOGIN", 5),
			TrustedProxyCIDRs:      getEnvList("TRUSTED_PROXY_CIDRS"),
		},
		AdminBootstrap: AdminBootstrapConfig{
			Name:     getEnv("ADMIN_NAME", "Admin"),
			Password: getEnv("ADMIN_PASSWORD", ""),
			Email:    getEnv("ADMIN_EMAIL", ""),
		},
		Jobs: JobsConfig{
			AlertCheckInterval: getEnvDuration("ALERT_CHECK_INTERVAL", 24*time.Hour),
			AlertLookback:      getEnvDuration("ALERT_LOOKBACK", 24*time.Hour),
			ImportInterval:     getEnvDuration("IMPORT_INTERVAL", 0),
			SourcesDir:         getEnv("IMPORT_SOURCES_DIR", "configs/sources"),
			Workers:            getEnvInt("JOB_WORKERS", 5),
		},
		Email: EmailConfig{
			Enabled:      getEnvBool("EMAIL_ENABLED", false),
			Provider:     getEnv("EMAIL_PROVIDER", "smtp"),
			From:         getEnv("EMAIL_FROM", ""),
			FromName:     getEnv("EMAIL_FROM_NAME", "Mr.Intern"),
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getEnvInt("SMTP_PORT", 587),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", getEnv("SMTP_PASS", "")),
		},
		Push: PushConfig{
			VAPIDPublicKey:  getEnv("VAPID_PUBLIC_KEY", ""),
			VAPIDPrivateKey: getEnv("VAPID_PRIVATE_KEY", ""),
			VAPIDSubject:    getEnv("VAPID_SUBJECT", "mailto:admin@example.com"),
			TTL:             getEnvInt("PUSH_TTL_SECONDS", 24*60*60),
		},
		Storage: StorageConfig{
			Bucket:        getEnv("S3_BUCKET", ""),
			Region:        getEnv("S3_REGION", "auto"),
			Endpoint:      getEnv("S3_ENDPOINT", ""),
			AccessKey:     getEnv("S3_ACCESS_KEY", ""),
			SecretKey:     getEnv("S3_SECRET_KEY", ""),
			PublicBaseURL: strings.TrimRight(getEnv("S3_PUBLIC_BASE_URL", ""), "/"),
			MaxUploadSize: int64(getEnvInt("RESUME_MAX_UPLOAD_BYTES", 5<<20)),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvBool("TRACING_ENABLED", false),
			Exporter:     getEnv("TRACING_EXPORTER", "stdout"),
			ServiceName:  getEnv("TRACING_SERVICE_NAME", "mrintern-server"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:   getEnvFloat("TRACING_SAMPLE_RATE", 1.0),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Email.From == "" {
		cfg.Email.From = cfg.Email.SMTPUser
	}
	if cfg.Email.Enabled && cfg.Email.Provider != "smtp" && cfg.Email.Provider != "resend" {
		return Config{}, fmt.Errorf("EMAIL_PROVIDER must be smtp or resend, got %q", cfg.Email.Provider)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
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

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
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
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

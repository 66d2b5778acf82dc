package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultCreatorCode gates admin registration until an admin stores a different one.
const DefaultCreatorCode = "wc_create_admin"

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	AWS      AWSConfig
	Email    EmailConfig
	Maps     MapsConfig
	Auth     AuthConfig
	Cleanup  CleanupConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	// RunWorker starts the email worker and cleanup scheduler inside the API process.
	RunWorker bool
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// AWSConfig holds AWS credentials and the flyer bucket.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	FlyersBucket    string
	Endpoint        string
}

// EmailConfig for SendGrid.
type EmailConfig struct {
	APIKey      string
	FromAddress string
	FromName    string
	// AdminInbox receives private community questions. Empty disables those notices.
	AdminInbox string
}

// MapsConfig holds the Google Maps key used for geocoding and distance queries.
type MapsConfig struct {
	APIKey string
}

// AuthConfig holds registration and login policy.
type AuthConfig struct {
	DefaultCreatorCode string
	// RateLimitPerMinute caps login and registration attempts per client IP. Zero disables.
	RateLimitPerMinute int
}

// CleanupConfig controls expired event removal.
type CleanupConfig struct {
	RetentionMonths int
	Interval        time.Duration
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			RunWorker:          getEnvBool("RUN_WORKER", true),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "epost_hub"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", ""),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 4),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			FlyersBucket:    getEnv("AWS_S3_FLYERS_BUCKET", ""),
			Endpoint:        getEnv("AWS_S3_ENDPOINT", ""),
		},
		Email: EmailConfig{
			APIKey:      getEnv("SENDGRID_API_KEY", ""),
			FromAddress: getEnv("EMAIL_FROM", "noreply@example.com"),
			FromName:    getEnv("EMAIL_FROM_NAME", "Veteran e-Post Hub"),
			AdminInbox:  getEnv("ADMIN_INBOX_EMAIL", ""),
		},
		Maps: MapsConfig{
			APIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		},
		Auth: AuthConfig{
			DefaultCreatorCode: getEnv("DEFAULT_CREATOR_CODE", DefaultCreatorCode),
			RateLimitPerMinute: getEnvInt("AUTH_RATE_LIMIT_PER_MINUTE", 10),
		},
		Cleanup: CleanupConfig{
			RetentionMonths: getEnvInt("CLEANUP_RETENTION_MONTHS", 1),
			Interval:        getEnvDuration("CLEANUP_INTERVAL", 24*time.Hour),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run safely with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWT.ExpireHours <= 0 {
		return fmt.Errorf("JWT_EXPIRE_HOURS must be positive, got %d", c.JWT.ExpireHours)
	}
	if c.Cleanup.RetentionMonths < 1 {
		return fmt.Errorf("CLEANUP_RETENTION_MONTHS must be at least 1, got %d", c.Cleanup.RetentionMonths)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

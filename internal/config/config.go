package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxUploadBytes is the largest accepted ZIP upload (50 MiB).
const DefaultMaxUploadBytes int64 = 50 * 1024 * 1024

// DatabaseConfig holds PostgreSQL database connection settings.
// The index and user registry issue single-row statements, so the pool stays small.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	// AppName is reported to the server as application_name.
	AppName            string
	ConnectTimeoutSec  int
	StatementTimeoutMs int
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	ConnMaxIdleTimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// UploadConfig controls the content store and the upload policy.
type UploadConfig struct {
	// Backend is "disk" or "minio".
	Backend      string
	Dir          string
	MaxBytes     int64
	AllowedTypes []string
}

// IndexConfig selects where the email to archive mapping is persisted.
type IndexConfig struct {
	// Backend is "json", "bolt" or "postgres".
	Backend  string
	Path     string
	BoltPath string
}

// UsersConfig selects the user registry backend ("memory" or "postgres").
type UsersConfig struct {
	Backend string
}

// AuthConfig holds the settings used to verify sessions issued by the identity provider.
// An empty JWTSecret disables verification.
type AuthConfig struct {
	JWTSecret  string
	CookieName string
}

// HTTPConfig holds server limits and timeouts.
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level    string
	Timezone string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	HTTP     HTTPConfig
	Log      LogConfig
	Upload   UploadConfig
	Index    IndexConfig
	Users    UsersConfig
	Auth     AuthConfig
	Database DatabaseConfig
	MinIO    MinIOConfig
}

// UsesPostgres reports whether any configured backend needs a database connection.
func (c *AppConfig) UsesPostgres() bool {
	return c.Index.Backend == "postgres" || c.Users.Backend == "postgres"
}

// Location resolves the logging timezone, falling back to UTC when unknown.
func (c *AppConfig) Location() *time.Location {
	if c.Log.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Log.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:3000"),
		Port:    getEnv("PORT", "3000"),
		HTTP: HTTPConfig{
			ReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT", 60*time.Second),
			WriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Timezone: getEnv("LOG_TIMEZONE", "UTC"),
		},
		Upload: UploadConfig{
			Backend:      strings.ToLower(getEnv("STORAGE_BACKEND", "disk")),
			Dir:          getEnv("UPLOAD_DIR", "uploads"),
			MaxBytes:     getEnvInt64("UPLOAD_MAX_BYTES", DefaultMaxUploadBytes),
			AllowedTypes: getEnvList("UPLOAD_ALLOWED_TYPES", []string{"application/zip", "application/x-zip-compressed"}),
		},
		Index: IndexConfig{
			Backend:  strings.ToLower(getEnv("INDEX_BACKEND", "json")),
			Path:     getEnv("INDEX_PATH", "data/email_index.json"),
			BoltPath: getEnv("INDEX_BOLT_PATH", "data/email_index.db"),
		},
		Users: UsersConfig{
			Backend: strings.ToLower(getEnv("USERS_BACKEND", "memory")),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("AUTH_JWT_SECRET", ""),
			CookieName: getEnv("AUTH_COOKIE_NAME", "sAccessToken"),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			AppName:            getEnv("DB_APP_NAME", "qiblaapi"),
			ConnectTimeoutSec:  getEnvInt("DB_CONNECT_TIMEOUT_SEC", 5),
			StatementTimeoutMs: getEnvInt("DB_STATEMENT_TIMEOUT_MS", 5000),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 4),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			ConnMaxIdleTimeSec: getEnvInt("DB_CONN_MAX_IDLE_TIME_SEC", 60),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil && i > 0 {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

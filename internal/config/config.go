package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// EngineConfig tunes the compliance engine itself.
type EngineConfig struct {
	// WarningWindowMonths is the expiring-soon threshold (calendar months).
	WarningWindowMonths int
	// SweepIntervalMinutes is the cadence of the background expiry sweep.
	SweepIntervalMinutes int
	// RejectedArchiveDays > 0 enables auto-archiving of rejected records
	// after that many days. Disabled by default.
	RejectedArchiveDays int
	// DownloadURLExpiryMinutes bounds presigned download links.
	DownloadURLExpiryMinutes int
}

// AppConfig is the centralized configuration, populated from environment
// variables. A .env file is auto-loaded when main imports godotenv/autoload;
// real environment variables take precedence.
type AppConfig struct {
	Port     string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Engine   EngineConfig
}

func Load() *AppConfig {
	return &AppConfig{
		Port: getEnv("PORT", "8080"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Engine: EngineConfig{
			WarningWindowMonths:      getEnvInt("EXPIRY_WARNING_WINDOW_MONTHS", 3),
			SweepIntervalMinutes:     getEnvInt("SWEEP_INTERVAL_MINUTES", 1440),
			RejectedArchiveDays:      getEnvInt("REJECTED_ARCHIVE_DAYS", 0),
			DownloadURLExpiryMinutes: getEnvInt("DOWNLOAD_URL_EXPIRY_MINUTES", 15),
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

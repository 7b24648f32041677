package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	Export   ExportConfig
	Ingest   IngestConfig
}

// IngestConfig holds the optional watch-directory settings. An empty
// WatchDir disables the watcher.
type IngestConfig struct {
	WatchDir   string
	UploadUser string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
	UploadDir       string
}

// OCRConfig holds OCR engine configuration
type OCRConfig struct {
	Engine       string
	TesseractBin string
	TessdataDir  string
	Languages    string
	BaiduAPIKey  string
	BaiduSecret  string
	Timeout      time.Duration
}

// ExportConfig holds spreadsheet export configuration
type ExportConfig struct {
	SheetName string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", "sqlite://orders.db"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
		},
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
			MaxUploadBytes:  getEnvAsInt64("MAX_UPLOAD_BYTES", 10<<20),
			UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),
		},
		OCR: OCRConfig{
			Engine:       getEnv("OCR_ENGINE", "tesseract"),
			TesseractBin: getEnv("TESSERACT_BIN", "tesseract"),
			TessdataDir:  getEnv("TESSDATA_PREFIX", ""),
			Languages:    getEnv("OCR_LANGUAGES", "chi_sim+eng"),
			BaiduAPIKey:  getEnv("BAIDU_OCR_API_KEY", ""),
			BaiduSecret:  getEnv("BAIDU_OCR_SECRET_KEY", ""),
			Timeout:      getEnvAsDuration("OCR_TIMEOUT", 30*time.Second),
		},
		Export: ExportConfig{
			SheetName: getEnv("EXPORT_SHEET_NAME", "订单数据"),
		},
		Ingest: IngestConfig{
			WatchDir:   getEnv("WATCH_DIR", ""),
			UploadUser: getEnv("WATCH_UPLOAD_USER", "watcher"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.OCR.Engine == "baidu" && (c.OCR.BaiduAPIKey == "" || c.OCR.BaiduSecret == "") {
		return NewAppError("CONFIG_ERROR", "BAIDU_OCR_API_KEY and BAIDU_OCR_SECRET_KEY are required for the baidu engine", ErrInvalidInput)
	}
	return nil
}

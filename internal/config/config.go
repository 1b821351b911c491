package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port          string
	DBConn        string
	LogLevel      string
	CORSOrigin    string
	UploadDir     string
	MaxUploadSize int64
	TokenTTL      time.Duration
	StagedMaxAge  time.Duration
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	SenderEmail   string
}

// NewConfig loads configuration from environment variables. A .env file is
// loaded first when present (development convenience, absent in production).
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DBConn:        getEnv("DB_CONN", "host=localhost port=5432 user=test password=test dbname=blog sslmode=disable"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		CORSOrigin:    getEnv("CORS_ORIGIN", "*"),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SenderEmail:   getEnv("SENDER_EMAIL", "no-reply@blog.local"),
		MaxUploadSize: 8 << 20,
	}

	tokenTTL, err := time.ParseDuration(getEnv("TOKEN_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	cfg.TokenTTL = tokenTTL

	stagedMaxAge, err := time.ParseDuration(getEnv("STAGED_MAX_AGE", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid STAGED_MAX_AGE: %w", err)
	}
	cfg.StagedMaxAge = stagedMaxAge

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.UploadDir == "" {
		return nil, fmt.Errorf("UPLOAD_DIR is required")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

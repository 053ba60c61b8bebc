package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Port            int
	Password        string
	ModelPath       string
	ConfigPath      string
	UploadDirectory string
	ResultDirectory string
	LogDirectory    string
	DatabasePath    string
	SMTPHost        string
	SMTPPort        int
	SenderEmail     string
	SenderPassword  string
	RecipientEmail  string
	SMTPTimeout     int // seconds
}

func Load() *Config {
	return &Config{
		Port:            getEnvAsInt("PORT", 8080),
		Password:        getEnv("PASSWORD", "roadwatch"),
		ModelPath:       getEnv("MODEL_PATH", filepath.Join(".", "model", "pothole_detector.pb")),
		ConfigPath:      getEnv("CONFIG_PATH", filepath.Join(".", "model", "pothole_detector.pbtxt")),
		UploadDirectory: getEnv("UPLOAD_DIR", filepath.Join(".", "static", "uploads")),
		ResultDirectory: getEnv("RESULT_DIR", filepath.Join(".", "static", "results")),
		LogDirectory:    getEnv("LOG_DIR", filepath.Join(".", "logs")),
		DatabasePath:    getEnv("DB_PATH", filepath.Join(".", "data", "roadwatch.db")),
		SMTPHost:        getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:        getEnvAsInt("SMTP_PORT", 587),
		SenderEmail:     getEnv("NOTIFY_SENDER_EMAIL", ""),
		SenderPassword:  getEnv("NOTIFY_APP_PASSWORD", ""),
		RecipientEmail:  getEnv("NOTIFY_RECIPIENT", ""),
		SMTPTimeout:     getEnvAsInt("SMTP_TIMEOUT", 10), // Bound on connect and send
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

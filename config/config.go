package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		// A missing .env is fine in development, the process env still applies
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	GO_ENV          string
	PORT            int
	APP_URL         string
	ALLOWED_ORIGINS string

	// Database
	DB_USER_NAME    string
	DB_PASSWORD     string
	DB_NAME         string
	DB_HOST         string
	DB_PORT         string
	DB_SSL_MODE     string
	DB_AUTO_MIGRATE bool

	// JWT
	JWT_SECRET string
	JWT_ISSUER string

	// Redis
	REDIS_URL string

	// Object storage (any S3 compatible endpoint)
	STORAGE_ENDPOINT          string
	STORAGE_REGION            string
	STORAGE_ACCESS_KEY        string
	STORAGE_SECRET_KEY        string
	STORAGE_CDN_URL           string
	STORAGE_FORCE_PATH_STYLE  bool
	STORAGE_COURSE_BUCKET     string
	STORAGE_SUBMISSION_BUCKET string

	// Mail
	MAIL_PROVIDER    string // sendgrid, smtp or empty for log only
	MAIL_FROM_EMAIL  string
	MAIL_FROM_NAME   string
	SENDGRID_API_KEY string
	SMTP_HOST        string
	SMTP_PORT        int
	SMTP_USERNAME    string
	SMTP_PASSWORD    string

	// Notification dispatcher
	NOTIFY_WORKERS      int
	NOTIFY_QUEUE_SIZE   int
	NOTIFY_MAX_ATTEMPTS int

	CRON_ENABLED bool
}

func Get() (*EnviornmentVariable, error) {
	envVariables := &EnviornmentVariable{
		GO_ENV:          os.Getenv("GO_ENV"),
		PORT:            getInt("PORT", 8080),
		APP_URL:         getOrDefault("APP_URL", "http://localhost:5173"),
		ALLOWED_ORIGINS: getOrDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"),
		// Database
		DB_USER_NAME:    os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:     os.Getenv("DB_PASSWORD"),
		DB_NAME:         os.Getenv("DB_NAME"),
		DB_HOST:         getOrDefault("DB_HOST", "localhost"),
		DB_PORT:         getOrDefault("DB_PORT", "5432"),
		DB_SSL_MODE:     getOrDefault("DB_SSL_MODE", "disable"),
		DB_AUTO_MIGRATE: getBool("DB_AUTO_MIGRATE", true),
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: getOrDefault("JWT_ISSUER", "eduplatform-api"),
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// Storage
		STORAGE_ENDPOINT:          os.Getenv("STORAGE_ENDPOINT"),
		STORAGE_REGION:            getOrDefault("STORAGE_REGION", "us-east-1"),
		STORAGE_ACCESS_KEY:        os.Getenv("STORAGE_ACCESS_KEY"),
		STORAGE_SECRET_KEY:        os.Getenv("STORAGE_SECRET_KEY"),
		STORAGE_CDN_URL:           os.Getenv("STORAGE_CDN_URL"),
		STORAGE_FORCE_PATH_STYLE:  getBool("STORAGE_FORCE_PATH_STYLE", false),
		STORAGE_COURSE_BUCKET:     getOrDefault("STORAGE_COURSE_BUCKET", "course-files"),
		STORAGE_SUBMISSION_BUCKET: getOrDefault("STORAGE_SUBMISSION_BUCKET", "submission-files"),
		// Mail
		MAIL_PROVIDER:    strings.ToLower(os.Getenv("MAIL_PROVIDER")),
		MAIL_FROM_EMAIL:  getOrDefault("MAIL_FROM_EMAIL", "onboarding@eduplatform.app"),
		MAIL_FROM_NAME:   getOrDefault("MAIL_FROM_NAME", "EduPlatform"),
		SENDGRID_API_KEY: os.Getenv("SENDGRID_API_KEY"),
		SMTP_HOST:        getOrDefault("SMTP_HOST", "smtp.gmail.com"),
		SMTP_PORT:        getInt("SMTP_PORT", 587),
		SMTP_USERNAME:    os.Getenv("SMTP_USERNAME"),
		SMTP_PASSWORD:    os.Getenv("SMTP_PASSWORD"),
		// Notifications
		NOTIFY_WORKERS:      getInt("NOTIFY_WORKERS", 4),
		NOTIFY_QUEUE_SIZE:   getInt("NOTIFY_QUEUE_SIZE", 256),
		NOTIFY_MAX_ATTEMPTS: getInt("NOTIFY_MAX_ATTEMPTS", 5),

		CRON_ENABLED: getBool("CRON_ENABLED", true),
	}

	return envVariables, nil
}

// IsProduction reports whether GO_ENV is production
func (e *EnviornmentVariable) IsProduction() bool {
	return e.GO_ENV == "production"
}

func getOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	val, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return val
}

func getBool(key string, defaultVal bool) bool {
	val, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return val
}

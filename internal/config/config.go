package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port         string
	AllowOrigins string
	GinMode      string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret   string
	JWTIssuer   string
	JWTTTLHours int
	AdminEmail  string

	Classifier             string // stub, remote
	ClassifierURL          string
	ClassifierTimeoutSec   int
	ClassifierStubPolicy   string // random, fixed
	ClassifierStubCategory string
	KnowledgeFile          string
	MaxUploadMB            int64
	ScanRateLimitPerMinute int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ImageStore          string // none, local, cloudinary
	UploadDir           string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func Load() *Config {
	return &Config{
		Port:         getenv("PORT", "5001"),
		AllowOrigins: getenv("ALLOW_ORIGINS", "*"),
		GinMode:      getenv("GIN_MODE", "release"),

		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBUser:     getenv("DB_USER", "postgres"),
		DBPassword: getenv("DB_PASSWORD", ""),
		DBName:     getenv("DB_NAME", "riy"),
		DBSSLMode:  getenv("DB_SSLMODE", "disable"),

		JWTSecret:   getenv("JWT_SECRET", ""),
		JWTIssuer:   getenv("JWT_ISSUER", "riy-server"),
		JWTTTLHours: atoi("JWT_TTL_HOURS", 24*30),
		AdminEmail:  getenv("ADMIN_EMAIL", ""),

		Classifier:             strings.ToLower(getenv("CLASSIFIER", "stub")),
		ClassifierURL:          getenv("CLASSIFIER_URL", "http://localhost:5002/api/analyze-waste"),
		ClassifierTimeoutSec:   atoi("CLASSIFIER_TIMEOUT_SECONDS", 15),
		ClassifierStubPolicy:   strings.ToLower(getenv("CLASSIFIER_STUB_POLICY", "random")),
		ClassifierStubCategory: getenv("CLASSIFIER_STUB_CATEGORY", "Plastic"),
		KnowledgeFile:          getenv("KNOWLEDGE_FILE", ""),
		MaxUploadMB:            int64(atoi("MAX_UPLOAD_MB", 50)),
		ScanRateLimitPerMinute: atoi("SCAN_RATE_LIMIT", 30),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),

		ImageStore:          strings.ToLower(getenv("IMAGE_STORE", "none")),
		UploadDir:           getenv("UPLOAD_DIR", "uploads"),
		CloudinaryCloudName: getenv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getenv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getenv("CLOUDINARY_API_SECRET", ""),
	}
}

// DSN builds the postgres connection string from the DB_* settings.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Validate reports every setting that would make the server fail later, in one error.
func (c *Config) Validate() error {
	var problems []string
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	switch c.Classifier {
	case "stub":
		if c.ClassifierStubPolicy != "random" && c.ClassifierStubPolicy != "fixed" {
			problems = append(problems, fmt.Sprintf("CLASSIFIER_STUB_POLICY must be random or fixed, got %q", c.ClassifierStubPolicy))
		}
	case "remote":
		if c.ClassifierURL == "" {
			problems = append(problems, "CLASSIFIER_URL is required when CLASSIFIER=remote")
		}
	default:
		problems = append(problems, fmt.Sprintf("CLASSIFIER must be stub or remote, got %q", c.Classifier))
	}
	if c.ClassifierTimeoutSec <= 0 {
		problems = append(problems, "CLASSIFIER_TIMEOUT_SECONDS must be positive")
	}
	if c.MaxUploadMB <= 0 {
		problems = append(problems, "MAX_UPLOAD_MB must be positive")
	}
	switch c.ImageStore {
	case "none", "local":
	case "cloudinary":
		if c.CloudinaryCloudName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "" {
			problems = append(problems, "CLOUDINARY_* settings are required when IMAGE_STORE=cloudinary")
		}
	default:
		problems = append(problems, fmt.Sprintf("IMAGE_STORE must be none, local or cloudinary, got %q", c.ImageStore))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

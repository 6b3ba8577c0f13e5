/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures the portal by reading operating system environment variables (optionally seeded
from a local .env file), including the running environment, port, CORS allowed origins,
the base URLs of the backend services and the optional S3 export bucket.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment   string
	Port          int
	PowDifficulty int

	// Security Settings
	AllowedOrigins []string
	SessionSecret  string

	// Backend Services
	EventsAPIBase          string
	BookingServiceURL      string
	NotificationServiceURL string
	AuthServiceURL         string
	BackendTimeout         time.Duration

	// View Settings
	SeatFetchConcurrency int
	PageIdleTimeout      time.Duration
	RegistrantsBatchSize int

	// S3 Export Settings (optional)
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// IsDevelopment reports whether the portal runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// ExportEnabled reports whether every S3 setting needed for registrant exports is present.
func (c *AppConfig) ExportEnabled() bool {
	return c.S3BucketName != "" && c.S3Endpoint != "" && c.S3AccessKeyID != "" && c.S3SecretAccessKey != ""
}

// LoadConfig reads and parses the application configuration from environment variables.
// A .env file in the working directory is loaded first when present; variables already set
// in the environment take precedence over it.
func LoadConfig() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = getenv("ENVIRONMENT", "development")

	port, err := strconv.Atoi(getenv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	difficulty, err := strconv.Atoi(getenv("POW_DIFFICULTY", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid POW_DIFFICULTY environment variable: %w", err)
	}
	cfg.PowDifficulty = difficulty

	// --- Security Settings ---
	cfg.AllowedOrigins = splitList(os.Getenv("ALLOWED_ORIGINS"))

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("SESSION_SECRET environment variable is required in %s environment for security", cfg.Environment)
		}
		sessionSecret = "your_default_insecure_secret_key_change_me"
	}
	cfg.SessionSecret = sessionSecret

	// --- Backend Services ---
	cfg.EventsAPIBase = NormalizeEventsBase(getenv("EVENTS_API_BASE", "http://localhost:8001/events"))
	cfg.BookingServiceURL = strings.TrimRight(getenv("BOOKING_SERVICE_URL", "http://localhost:8002"), "/")
	cfg.NotificationServiceURL = strings.TrimRight(getenv("NOTIFICATION_SERVICE_URL", "http://localhost:8003"), "/")
	cfg.AuthServiceURL = strings.TrimRight(getenv("AUTH_SERVICE_URL", "http://localhost:8000"), "/")

	if cfg.BackendTimeout, err = time.ParseDuration(getenv("BACKEND_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("invalid BACKEND_TIMEOUT environment variable: %w", err)
	}

	// --- View Settings ---
	if cfg.SeatFetchConcurrency, err = strconv.Atoi(getenv("SEAT_FETCH_CONCURRENCY", "8")); err != nil {
		return nil, fmt.Errorf("invalid SEAT_FETCH_CONCURRENCY environment variable: %w", err)
	}
	if cfg.SeatFetchConcurrency < 1 {
		return nil, fmt.Errorf("SEAT_FETCH_CONCURRENCY must be at least 1, got %d", cfg.SeatFetchConcurrency)
	}

	if cfg.PageIdleTimeout, err = time.ParseDuration(getenv("PAGE_IDLE_TIMEOUT", "15m")); err != nil {
		return nil, fmt.Errorf("invalid PAGE_IDLE_TIMEOUT environment variable: %w", err)
	}

	if cfg.RegistrantsBatchSize, err = strconv.Atoi(getenv("REGISTRANTS_BATCH_SIZE", "5")); err != nil {
		return nil, fmt.Errorf("invalid REGISTRANTS_BATCH_SIZE environment variable: %w", err)
	}
	if cfg.RegistrantsBatchSize < 1 {
		return nil, fmt.Errorf("REGISTRANTS_BATCH_SIZE must be at least 1, got %d", cfg.RegistrantsBatchSize)
	}

	// --- S3 Export Settings ---
	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")

	return cfg, nil
}

// NormalizeEventsBase makes sure the events base URL ends with the /events collection path.
func NormalizeEventsBase(raw string) string {
	base := strings.TrimRight(raw, "/")
	if strings.HasSuffix(base, "/events") {
		return base
	}
	return base + "/events"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	out := []string{}
	for _, item := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

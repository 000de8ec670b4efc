package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the helpdesk client.
type Config struct {
	App     AppConfig
	Backend BackendConfig
	Sync    SyncConfig
	Scroll  ScrollConfig
	Logger  LoggerConfig
}

// AppConfig identifies the client instance.
type AppConfig struct {
	Name string
	Env  string
}

// BackendConfig holds connection values for the helpdesk backend.
type BackendConfig struct {
	BaseURL        string
	Token          string
	TimeoutSeconds int
}

// SyncConfig controls the polling cadences.
type SyncConfig struct {
	MessageIntervalSeconds      int
	NotificationIntervalSeconds int
}

// ScrollConfig holds the attention thresholds, in pixels.
type ScrollConfig struct {
	PinThreshold        float64
	AffordanceThreshold float64
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	baseURL := strings.TrimRight(getEnv("HELPDESK_API_URL", "http://localhost:8080/api"), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("HELPDESK_API_URL must not be empty")
	}

	cfg := &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "helpdesk-client"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Backend: BackendConfig{
			BaseURL:        baseURL,
			Token:          os.Getenv("HELPDESK_TOKEN"),
			TimeoutSeconds: getEnvAsInt("HELPDESK_HTTP_TIMEOUT_SECONDS", 15),
		},
		Sync: SyncConfig{
			MessageIntervalSeconds:      getEnvAsInt("SYNC_MESSAGE_INTERVAL_SECONDS", 4),
			NotificationIntervalSeconds: getEnvAsInt("SYNC_NOTIFICATION_INTERVAL_SECONDS", 30),
		},
		Scroll: ScrollConfig{
			PinThreshold:        float64(getEnvAsInt("SCROLL_PIN_THRESHOLD_PX", 150)),
			AffordanceThreshold: float64(getEnvAsInt("SCROLL_AFFORDANCE_THRESHOLD_PX", 100)),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// Timeout returns the HTTP client timeout duration.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// MessageInterval returns the message poll cadence.
func (s SyncConfig) MessageInterval() time.Duration {
	if s.MessageIntervalSeconds <= 0 {
		return 4 * time.Second
	}
	return time.Duration(s.MessageIntervalSeconds) * time.Second
}

// NotificationInterval returns the unread-count poll cadence.
func (s SyncConfig) NotificationInterval() time.Duration {
	if s.NotificationIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.NotificationIntervalSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

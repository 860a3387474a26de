package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port    string
	TempDir string

	// Backend service
	BackendBaseURL string
	BackendTimeout time.Duration // 0 means no client timeout

	// Wizard behavior
	StepAdvanceDelay time.Duration

	// CORS
	AllowOrigins []string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:    getEnv("PORT", "3000"),
		TempDir: getEnv("TEMP_DIR", "./temp"),

		BackendBaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:8000/api"),
		BackendTimeout: time.Duration(getEnvAsInt("BACKEND_TIMEOUT_SECONDS", 0)) * time.Second,

		StepAdvanceDelay: time.Duration(getEnvAsInt("STEP_ADVANCE_DELAY_MS", 1200)) * time.Millisecond,

		AllowOrigins: parseOrigins(getEnv("ALLOW_ORIGINS", "http://localhost:5173,http://localhost:3000")),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.BackendBaseURL == "" {
		return errors.New("BACKEND_BASE_URL is required")
	}
	if _, err := url.Parse(c.BackendBaseURL); err != nil {
		return fmt.Errorf("BACKEND_BASE_URL is not a valid URL: %w", err)
	}
	if c.BackendTimeout < 0 {
		return errors.New("BACKEND_TIMEOUT_SECONDS must not be negative")
	}
	if c.StepAdvanceDelay < 0 {
		return errors.New("STEP_ADVANCE_DELAY_MS must not be negative")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseOrigins(originsStr string) []string {
	if originsStr == "" {
		return []string{}
	}
	origins := strings.Split(originsStr, ",")
	result := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %s, Backend: %s, AdvanceDelay: %s}",
		c.Port, c.BackendBaseURL, c.StepAdvanceDelay)
}

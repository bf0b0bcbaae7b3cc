package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	AppEnv        string
	Debug         bool
	Version       string
	BotToken      string
	AdminIDs      []int64
	SentryDSN     string
	Timezone      string
	ReportWeekday time.Weekday
	TriggerWord   string
	RegistryFile  string
	ArchiveFile   string
}

// LoadConfig loads configuration from environment variables.
// It attempts to load a .env file if present but prioritizes
// actual environment variables set in the system (e.g., by Docker).
func LoadConfig() (*Config, error) {
	// Load .env file if it exists (useful for development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	debug, _ := strconv.ParseBool(getEnv("DEBUG", "false"))

	adminIDs, err := parseAdminIDs(getEnv("ADMIN_IDS", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_IDS: %w", err)
	}

	weekdayStr := getEnv("REPORT_WEEKDAY", "5") // Friday
	weekdayNum, err := strconv.Atoi(weekdayStr)
	if err != nil || weekdayNum < 0 || weekdayNum > 6 {
		return nil, fmt.Errorf("invalid REPORT_WEEKDAY %q: must be 0 (Sunday) to 6 (Saturday)", weekdayStr)
	}

	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		Debug:         debug,
		Version:       getEnv("VERSION", "dev"),
		BotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
		AdminIDs:      adminIDs,
		SentryDSN:     getEnv("SENTRY_DSN", ""),
		Timezone:      getEnv("TIMEZONE", "Europe/Kiev"),
		ReportWeekday: time.Weekday(weekdayNum),
		TriggerWord:   getEnv("TRIGGER_WORD", "фотоотчет"),
		RegistryFile:  getEnv("REGISTRY_FILE", "registered_groups.json"),
		ArchiveFile:   getEnv("ARCHIVE_FILE", "archive_reports.json"),
	}

	// Basic validation for essential variables
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if len(cfg.AdminIDs) == 0 {
		return nil, fmt.Errorf("ADMIN_IDS is required")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	if cfg.SentryDSN == "" {
		log.Println("Warning: SENTRY_DSN is not set. Error tracking disabled.")
	}

	return cfg, nil
}

// Location resolves the configured timezone. LoadConfig validates it,
// so a failure here only happens when Config was built by hand.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("Warning: failed to load timezone %q, falling back to UTC: %v", c.Timezone, err)
		return time.UTC
	}
	return loc
}

// parseAdminIDs parses a comma-separated list of Telegram user IDs.
func parseAdminIDs(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad admin ID %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Package config loads runtime configuration from the environment, with an
// optional .env file for local runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the bot needs to run. Values come from the
// environment; sensible defaults cover all but the credentials.
type Config struct {
	TelegramToken   string
	ChatID          int64
	SpreadsheetID   string
	CredentialsFile string

	TasksSheet     string
	ThreadsSheet   string
	RemindersSheet string

	Timezone        string // IANA zone name
	DailySummaryAt  string // HH:MM in the configured zone
	OverdueReportAt string
	SummaryLabel    string

	LogLevel string
	LogJSON  bool
}

// Load reads .env (when present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		ChatID:          getEnvAsInt64("TELEGRAM_CHAT_ID", 0),
		SpreadsheetID:   os.Getenv("GSHEET_ID"),
		CredentialsFile: getEnv("GOOGLE_SA_JSON_PATH", "sa.json"),
		TasksSheet:      getEnv("GSHEET_WORKSHEET", "tasks"),
		ThreadsSheet:    getEnv("GSHEET_THREADS_SHEET", "threads"),
		RemindersSheet:  getEnv("GSHEET_REMINDERS_SHEET", "reminders"),
		Timezone:        getEnv("TZ", "Europe/Moscow"),
		DailySummaryAt:  getEnv("DAILY_SUMMARY_HHMM", "09:00"),
		OverdueReportAt: getEnv("OVERDUE_REMINDER_HHMM", "18:00"),
		SummaryLabel:    getEnv("SUMMARY_LABEL", "summary"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		LogJSON:         getEnvAsBool("LOG_JSON", false),
	}

	if cfg.TelegramToken == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("TELEGRAM_CHAT_ID is required")
	}
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("GSHEET_ID is required")
	}
	if _, _, err := ParseHHMM(cfg.DailySummaryAt); err != nil {
		return nil, err
	}
	if _, _, err := ParseHHMM(cfg.OverdueReportAt); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ParseHHMM splits a wall-clock "HH:MM" string.
func ParseHHMM(s string) (hour, minute int, err error) {
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return hour, minute, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"goal-planner/internal/planner"
)

// Config keeps runtime settings for the planner service.
type Config struct {
	TelegramToken    string
	DatabaseURL      string
	AnthropicAPIKey  string
	PlannerMode      planner.Mode
	GeneratorTimeout time.Duration
	ReportInterval   time.Duration
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken:    strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AnthropicAPIKey:  strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		GeneratorTimeout: parseSeconds(strings.TrimSpace(os.Getenv("GENERATOR_TIMEOUT_SECONDS"))),
		ReportInterval:   parseHours(strings.TrimSpace(os.Getenv("REPORT_INTERVAL_HOURS"))),
	}

	mode, err := parseMode(strings.TrimSpace(os.Getenv("PLANNER_MODE")))
	if err != nil {
		return cfg, err
	}
	cfg.PlannerMode = mode

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "goal_planner.db"
	}

	if cfg.GeneratorTimeout == 0 {
		cfg.GeneratorTimeout = 20 * time.Second
	}

	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = 5 * time.Hour
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

// GeneratorConfigured reports whether the external content generator can run.
// Without a key the composer works purely from fallback templates.
func (c Config) GeneratorConfigured() bool {
	return c.AnthropicAPIKey != ""
}

func parseMode(raw string) (planner.Mode, error) {
	switch strings.ToLower(raw) {
	case "", "adaptive":
		return planner.ModeAdaptive, nil
	case "legacy":
		return planner.ModeLegacy, nil
	default:
		return "", fmt.Errorf("PLANNER_MODE must be \"adaptive\" or \"legacy\", got %q", raw)
	}
}

func parseSeconds(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func parseHours(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

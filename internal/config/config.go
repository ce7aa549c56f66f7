package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables and .env file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.Reconciler.StatusInterval <= 0 || cfg.Reconciler.ReminderInterval <= 0 {
		return Config{}, fmt.Errorf("reconcile intervals must be positive")
	}
	if cfg.Reconciler.ReminderLead <= 0 {
		return Config{}, fmt.Errorf("REMINDER_LEAD must be positive")
	}
	return cfg, nil
}

// Level parses LOG_LEVEL, defaulting to info.
func (c Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warn("Unknown log level, using info", "level", c.LogLevel)
		return log.InfoLevel
	}
	return level
}

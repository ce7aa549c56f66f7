package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	DBName   string `env:"DB_NAME" envDefault:"prizeplay.db"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Turso    TursoConfig
	Slack    SlackConfig
	// GCP project for Pub/Sub domain events. Empty disables them.
	ProjectID  string `env:"GCP_PROJECT"`
	Reconciler ReconcilerConfig
}

// Enabled reports whether Slack notifications are configured.
func (c SlackConfig) Enabled() bool {
	return c.Token != "" && c.ChannelID != ""
}

type SlackConfig struct {
	Token     string `env:"SLACK_BOT_TOKEN"`
	ChannelID string `env:"SLACK_CHANNEL_ID"`
}

type TursoConfig struct {
	PrimaryURL string `env:"TURSO_PRIMARY_URL"`
	AuthToken  string `env:"TURSO_AUTH_TOKEN"`
}

type ReconcilerConfig struct {
	StatusInterval   time.Duration `env:"STATUS_INTERVAL" envDefault:"2m"`
	ReminderInterval time.Duration `env:"REMINDER_INTERVAL" envDefault:"1m"`
	ReminderLead     time.Duration `env:"REMINDER_LEAD" envDefault:"5m"`
}

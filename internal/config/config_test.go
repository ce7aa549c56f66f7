package config

import (
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "prizeplay.db", cfg.DBName)
	assert.Equal(t, 2*time.Minute, cfg.Reconciler.StatusInterval)
	assert.Equal(t, time.Minute, cfg.Reconciler.ReminderInterval)
	assert.Equal(t, 5*time.Minute, cfg.Reconciler.ReminderLead)
	assert.False(t, cfg.Slack.Enabled())
	assert.Equal(t, log.InfoLevel, cfg.Level())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-1")
	t.Setenv("SLACK_CHANNEL_ID", "C1")
	t.Setenv("TURSO_PRIMARY_URL", "libsql://db.turso.io")
	t.Setenv("REMINDER_LEAD", "10m")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.Slack.Enabled())
	assert.Equal(t, "libsql://db.turso.io", cfg.Turso.PrimaryURL)
	assert.Equal(t, 10*time.Minute, cfg.Reconciler.ReminderLead)
	assert.Equal(t, log.DebugLevel, cfg.Level())
}

func TestLoad_Rejects(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("STATUS_INTERVAL", "soon")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("zero lead", func(t *testing.T) {
		t.Setenv("REMINDER_LEAD", "0s")
		_, err := Load()
		assert.Error(t, err)
	})
}

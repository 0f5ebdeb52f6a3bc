package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 10*time.Minute, cfg.Payment.LockTimeout)
	assert.EqualValues(t, 300, cfg.Scheduler.CompletionSeconds)
	assert.Equal(t, 5, cfg.Scheduler.GraceMinutes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SLOT_LOCK_TIMEOUT", "15m")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("SCHEDULER_COMPLETION_SECONDS", "120")
	t.Setenv("SMTP_PORT", "not-a-number")

	cfg := Load()

	assert.Equal(t, 15*time.Minute, cfg.Payment.LockTimeout)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.EqualValues(t, 120, cfg.Scheduler.CompletionSeconds)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.False(t, cfg.SMTP.Enabled())
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvAsTimeDuration(t *testing.T) {
	t.Run("go duration syntax", func(t *testing.T) {
		t.Setenv("TEST_DURATION", "250ms")
		assert.Equal(t, 250*time.Millisecond, getEnvAsTimeDuration("TEST_DURATION", time.Second))
	})

	t.Run("bare seconds", func(t *testing.T) {
		t.Setenv("TEST_DURATION", "30")
		assert.Equal(t, 30*time.Second, getEnvAsTimeDuration("TEST_DURATION", time.Second))
	})

	t.Run("garbage falls back to default", func(t *testing.T) {
		t.Setenv("TEST_DURATION", "soon")
		assert.Equal(t, time.Second, getEnvAsTimeDuration("TEST_DURATION", time.Second))
	})

	t.Run("blank falls back to default", func(t *testing.T) {
		t.Setenv("TEST_DURATION", "  ")
		assert.Equal(t, time.Second, getEnvAsTimeDuration("TEST_DURATION", time.Second))
	})
}

func TestGetEnvAsSlice(t *testing.T) {
	t.Setenv("TEST_SLICE", " a.com, ,b.com ")
	assert.Equal(t, []string{"a.com", "b.com"}, getEnvAsSlice("TEST_SLICE", nil))
}

func TestLoad_NewsletterDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 32, cfg.Newsletter.TokenBytes)
	assert.Equal(t, "User requested", cfg.Newsletter.DefaultReason)
	assert.False(t, cfg.Newsletter.AllowAnonymousUnsubscribe)
	assert.True(t, cfg.Newsletter.StrictNotifications)
	assert.Equal(t, "pgdriver", cfg.Database.Driver)
}

func TestLoad_NewsletterOverrides(t *testing.T) {
	t.Setenv("NEWSLETTER_ALLOW_ANONYMOUS_UNSUBSCRIBE", "true")
	t.Setenv("NEWSLETTER_STRICT_NOTIFICATIONS", "false")
	t.Setenv("NEWSLETTER_TOKEN_BYTES", "16")

	cfg := Load()

	assert.True(t, cfg.Newsletter.AllowAnonymousUnsubscribe)
	assert.False(t, cfg.Newsletter.StrictNotifications)
	assert.Equal(t, 16, cfg.Newsletter.TokenBytes)
}

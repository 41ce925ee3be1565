package config

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "3.99", cfg.Delivery.Fee.StringFixed(2))
	assert.True(t, cfg.Delivery.FreeOver.IsZero())
	assert.Equal(t, 10*time.Second, cfg.Payment.Timeout)
	assert.Equal(t, 72*time.Hour, cfg.JWT.TTL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("DELIVERY_FEE", "2.50")
	t.Setenv("PAYMENT_TIMEOUT", "3s")
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_x")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "2.50", cfg.Delivery.Fee.StringFixed(2))
	assert.Equal(t, 3*time.Second, cfg.Payment.Timeout)
	assert.Equal(t, "sk_test_x", cfg.Payment.SecretKey)
}

func TestWarnings(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	if cfg.JWT.Secret == DevJWTSecret {
		assert.Contains(t, cfg.Warnings()[0], "JWT_SECRET")
	}

	cfg.JWT.Secret = DevJWTSecret
	cfg.Payment.SecretKey = ""
	assert.Len(t, cfg.Warnings(), 2)

	cfg.JWT.Secret = "a-long-random-secret"
	cfg.Payment.SecretKey = "sk_live_x"
	assert.Empty(t, cfg.Warnings())
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("JWT_TTL", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestConfigureLogging(t *testing.T) {
	defer log.SetLevel(log.GetLevel())
	defer log.SetFormatter(log.StandardLogger().Formatter)

	require.NoError(t, Config{LogLevel: "debug", LogFormat: "text"}.ConfigureLogging())
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	assert.IsType(t, &log.TextFormatter{}, log.StandardLogger().Formatter)

	require.NoError(t, Config{LogLevel: "warn", LogFormat: "json"}.ConfigureLogging())
	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	assert.Error(t, Config{LogLevel: "chatty"}.ConfigureLogging())
}

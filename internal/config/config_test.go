package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_STORAGE", "")
	t.Setenv("SMS_PROVIDER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "UniCarpool", cfg.App.Name)
	assert.Equal(t, StorageMongo, cfg.App.Storage)
	assert.Equal(t, "dal.ca", cfg.App.SchoolEmailDomain)
	assert.Equal(t, "unicarpool", cfg.Database.Database)
	assert.Equal(t, "carpool.events", cfg.RabbitMQ.Exchange)
	assert.Equal(t, SMSProviderNone, cfg.SMS.Provider)
	assert.Equal(t, 24*time.Hour, cfg.Security.JWTAccessTokenTTL)
	assert.False(t, cfg.SMTP.Configured())
	assert.False(t, cfg.Push.FCM.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_STORAGE", "Memory")
	t.Setenv("SCHOOL_EMAIL_DOMAIN", "SMU.ca")
	t.Setenv("EMERGENCY_NUMBERS", "+19025550100, ,+19025550101")
	t.Setenv("JWT_ACCESS_TOKEN_TTL", "2h")
	t.Setenv("APP_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.App.Storage)
	assert.Equal(t, "smu.ca", cfg.App.SchoolEmailDomain)
	assert.Equal(t, []string{"+19025550100", "+19025550101"}, cfg.Emergency.Numbers)
	assert.Equal(t, 2*time.Hour, cfg.Security.JWTAccessTokenTTL)
	assert.Equal(t, 8080, cfg.App.Port)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Run("unknown storage", func(t *testing.T) {
		t.Setenv("APP_STORAGE", "postgres")
		_, err := Load()
		assert.ErrorContains(t, err, "APP_STORAGE")
	})

	t.Run("default secret in production", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		assert.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("unknown sms provider", func(t *testing.T) {
		t.Setenv("SMS_PROVIDER", "pigeon")
		_, err := Load()
		assert.ErrorContains(t, err, "SMS_PROVIDER")
	})
}

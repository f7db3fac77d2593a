package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, 5*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 6, cfg.OTP.Length)
	assert.Equal(t, 30, cfg.Borrowing.MaxRenewalDays)
	assert.Equal(t, "mail:outbox", cfg.Redis.Stream)
	assert.Equal(t, "*", cfg.GetAllowedOrigins())
	assert.Same(t, AppConfig, cfg)
}

func TestLoad_envOverrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_PATH", "/tmp/lib.db")
	t.Setenv("JWT_ACCESS_TTL", "30m")
	t.Setenv("BORROWING_MAX_RENEWAL_DAYS", "14")
	t.Setenv("MAIL_DRIVER", "redis")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/lib.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 14, cfg.Borrowing.MaxRenewalDays)
	assert.Equal(t, "redis", cfg.Mail.Driver)
}

func TestLoad_rejectsBadValues(t *testing.T) {
	t.Run("app mode", func(t *testing.T) {
		t.Setenv("APP_MODE", "staging")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("driver", func(t *testing.T) {
		t.Setenv("DATABASE_DRIVER", "oracle")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("prod default secrets", func(t *testing.T) {
		t.Setenv("APP_MODE", "prod")
		_, err := Load()
		assert.Error(t, err)
	})
}

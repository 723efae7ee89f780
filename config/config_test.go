package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "test-secret")
	t.Setenv("ADMIN_EMAILS", "")
	t.Setenv("PROJECT_STAGES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.Server.CORSEnabled)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "session_token", cfg.Auth.CookieName)
	assert.Empty(t, cfg.Auth.AdminEmails)
	assert.Empty(t, cfg.Projects.StageNames)
	assert.Equal(t, StorePostgres, cfg.Projects.Store)
	assert.False(t, cfg.Auth.Google.Enabled())
}

func TestLoad_Lists(t *testing.T) {
	t.Setenv("AUTH_SECRET", "test-secret")
	t.Setenv("ADMIN_EMAILS", " admin@example.com, ,ops@example.com ")
	t.Setenv("PROJECT_STAGES", "Draft,Final")
	t.Setenv("SESSION_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"admin@example.com", "ops@example.com"}, cfg.Auth.AdminEmails)
	assert.Equal(t, []string{"Draft", "Final"}, cfg.Projects.StageNames)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
}

func TestValidate(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("AUTH_SECRET", "")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AUTH_SECRET")
	})

	t.Run("short secret in production", func(t *testing.T) {
		t.Setenv("AUTH_SECRET", "short")
		t.Setenv("APP_ENV", "production")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("cors without origin", func(t *testing.T) {
		t.Setenv("AUTH_SECRET", "test-secret")
		t.Setenv("CORS_ENABLED", "true")
		t.Setenv("CORS_ALLOWED_ORIGIN", "")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("cors origin without scheme", func(t *testing.T) {
		t.Setenv("AUTH_SECRET", "test-secret")
		t.Setenv("CORS_ENABLED", "true")
		t.Setenv("CORS_ALLOWED_ORIGIN", "example.com")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("unknown store", func(t *testing.T) {
		t.Setenv("AUTH_SECRET", "test-secret")
		t.Setenv("PROJECT_STORE", "mongo")
		_, err := Load()
		require.Error(t, err)
	})
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList("   "))
	assert.Equal(t, []string{"a", "b"}, splitList("a,,b,"))
}

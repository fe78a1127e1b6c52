package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kikite/backend-order/internal/config"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL": "postgres://localhost:5432/orders",
		"REDIS_URL":    "redis://localhost:6379/0",
		"JWT_SECRET":   "test-secret",
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 12*time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, "10-M", cfg.LoginRateLimit)
	require.Equal(t, 500, cfg.PostalImportBatchSize)
	require.Equal(t, "https://zipcloud.ibsnet.co.jp", cfg.ZipcloudBaseURL)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, float64(1), cfg.TraceSampleRatio)
}

func TestLoadRequiresConnectionStrings(t *testing.T) {
	env := baseEnv()
	env["DATABASE_URL"] = ""
	_, err := config.LoadForTests(env)
	require.Error(t, err)

	env = baseEnv()
	env["JWT_SECRET"] = ""
	_, err = config.LoadForTests(env)
	require.Error(t, err)
}

func TestLoadParsesOverrides(t *testing.T) {
	env := baseEnv()
	env["PORT"] = "9090"
	env["ACCESS_TOKEN_TTL"] = "30m"
	env["CORS_ALLOWED_ORIGINS"] = "https://desk.example.com, https://admin.example.com"
	env["ADMIN_EMAILS"] = "boss@example.com"

	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, []string{"https://desk.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
	require.True(t, cfg.IsAdmin("Boss@Example.com"))
	require.False(t, cfg.IsAdmin("intern@example.com"))
}

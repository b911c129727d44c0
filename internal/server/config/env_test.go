package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/ministry/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withDotenv(t *testing.T, content string) {
	t.Helper()
	orig := dotenvFile
	t.Cleanup(func() { dotenvFile = orig })

	dotenvFile = filepath.Join(t.TempDir(), ".env")
	if content != "" {
		require.NoError(t, os.WriteFile(dotenvFile, []byte(content), 0o600))
	}
}

func Test_parseEnv(t *testing.T) {
	withDotenv(t, "")
	t.Setenv("MINISTRY_HTTP_ADDR", ":9999")
	t.Setenv("MINISTRY_DATABASE_DRIVER", "pgx")
	t.Setenv("MINISTRY_REFRESH_TOKEN_TTL", "3d")
	t.Setenv("MINISTRY_CLEANUP_INTERVAL", "")

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, ":9999", cfg.EndpointAddrHTTP)
	assert.Equal(t, "pgx", cfg.DatabaseDriver)
	assert.Equal(t, 3*timex.Day, cfg.RefreshTokenTTL)
	assert.Equal(t, time.Hour, cfg.CleanupInterval, "empty variables are ignored")
}

func Test_parseEnv_Dotenv(t *testing.T) {
	withDotenv(t, "MINISTRY_LOG_FORMAT=zap\nMINISTRY_ENVIRONMENT=production\n")
	t.Setenv("MINISTRY_ENVIRONMENT", "development")

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, "zap", cfg.LogFormat)
	assert.Equal(t, EnvDevelopment, cfg.Environment, "process environment wins over .env")

	// godotenv.Load sets the variable for the whole process.
	_ = os.Unsetenv("MINISTRY_LOG_FORMAT")
}

func Test_parseEnv_BadDuration(t *testing.T) {
	withDotenv(t, "")
	t.Setenv("MINISTRY_ACCESS_TOKEN_TTL", "forever")

	cfg := &Config{}
	err := parseEnv(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MINISTRY_ACCESS_TOKEN_TTL")
}

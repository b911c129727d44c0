package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/dmitrijs2005/ministry/internal/timex"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by parseEnv.
const EnvPrefix = "MINISTRY_"

// dotenvFile is loaded before the environment is read. Variables already
// set in the process environment win over the file.
var dotenvFile = ".env"

// parseEnv overlays MINISTRY_* variables, e.g. MINISTRY_ACCESS_TOKEN_SECRET.
func parseEnv(config *Config) error {
	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", dotenvFile, err)
	}

	strs := map[string]*string{
		"HTTP_ADDR":            &config.EndpointAddrHTTP,
		"GRPC_ADDR":            &config.EndpointAddrGRPC,
		"DATABASE_DRIVER":      &config.DatabaseDriver,
		"DATABASE_DSN":         &config.DatabaseDSN,
		"ACCESS_TOKEN_SECRET":  &config.AccessTokenSecret,
		"REFRESH_TOKEN_SECRET": &config.RefreshTokenSecret,
		"REFRESH_COOKIE_NAME":  &config.RefreshCookieName,
		"ENVIRONMENT":          &config.Environment,
		"LOG_FORMAT":           &config.LogFormat,
		"LOG_LEVEL":            &config.LogLevel,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"ACCESS_TOKEN_TTL":  &config.AccessTokenTTL,
		"REFRESH_TOKEN_TTL": &config.RefreshTokenTTL,
		"CLEANUP_INTERVAL":  &config.CleanupInterval,
	}
	for name, dst := range durations {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok || v == "" {
			continue
		}
		d, err := timex.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
	}

	return nil
}

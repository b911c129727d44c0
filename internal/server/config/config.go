// Package config handles configuration for the server component:
// defaults, a JSON or YAML file overlay, .env and MINISTRY_* environment
// variables, and finally command-line flags.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ministry/internal/common"
	"github.com/dmitrijs2005/ministry/internal/timex"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"

	// Development signing secrets. Rejected when Environment is production.
	devAccessSecret  = "dev-access-secret-change-me"
	devRefreshSecret = "dev-refresh-secret-change-me"

	minProductionSecretLen = 32
)

// Config holds runtime settings for the ministry auth server.
//
// Fields:
//   - EndpointAddrHTTP / EndpointAddrGRPC: bind addresses for the REST API and
//     the gRPC health endpoint.
//   - DatabaseDriver / DatabaseDSN: "sqlite" (modernc) or "pgx" (PostgreSQL).
//   - AccessTokenSecret / RefreshTokenSecret: HS256 signing keys.
//   - AccessTokenTTL / RefreshTokenTTL: token lifetimes.
//   - RefreshCookieName: name of the HTTP-only refresh cookie.
//   - Environment: "production" turns on Secure cookies and strict secret checks.
//   - LogFormat / LogLevel: logger backend ("slog"|"zap") and level.
//   - CleanupInterval: how often expired refresh records are purged.
type Config struct {
	EndpointAddrHTTP   string
	EndpointAddrGRPC   string
	DatabaseDriver     string
	DatabaseDSN        string
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	RefreshCookieName  string
	Environment        string
	LogFormat          string
	LogLevel           string
	CleanupInterval    time.Duration
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secrets are insecure and Validate refuses them in production.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDriver = DriverSQLite
	c.DatabaseDSN = "file:data/ministry.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	c.AccessTokenSecret = devAccessSecret
	c.RefreshTokenSecret = devRefreshSecret
	c.AccessTokenTTL = 2 * time.Hour
	c.RefreshTokenTTL = 7 * timex.Day
	c.RefreshCookieName = common.DefaultRefreshCookieName
	c.Environment = EnvDevelopment
	c.LogFormat = "slog"
	c.LogLevel = "info"
	c.CleanupInterval = time.Hour
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Validate checks the settings that would otherwise fail late or insecurely.
func (c *Config) Validate() error {
	var errs []error

	if c.AccessTokenSecret == "" {
		errs = append(errs, errors.New("access token secret is empty"))
	}
	if c.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("refresh token secret is empty"))
	}

	if c.IsProduction() {
		if c.AccessTokenSecret == devAccessSecret || c.RefreshTokenSecret == devRefreshSecret {
			errs = append(errs, errors.New("development secrets are not allowed in production"))
		}
		if len(c.AccessTokenSecret) < minProductionSecretLen || len(c.RefreshTokenSecret) < minProductionSecretLen {
			errs = append(errs, fmt.Errorf("token secrets must be at least %d bytes in production", minProductionSecretLen))
		}
		if c.AccessTokenSecret != "" && c.AccessTokenSecret == c.RefreshTokenSecret {
			errs = append(errs, errors.New("access and refresh secrets must differ in production"))
		}
	}

	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("access token TTL must be positive"))
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		errs = append(errs, errors.New("refresh token TTL must be longer than access token TTL"))
	}
	if c.CleanupInterval <= 0 {
		errs = append(errs, errors.New("cleanup interval must be positive"))
	}

	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.DatabaseDriver))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database DSN is empty"))
	}
	if c.RefreshCookieName == "" {
		errs = append(errs, errors.New("refresh cookie name is empty"))
	}

	return errors.Join(errs...)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file, the environment and finally command-line
// flags. The result is validated before it is returned.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseFile(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/ministry/internal/flagx"
	"github.com/dmitrijs2005/ministry/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the config file. Empty fields leave the
// current value untouched. Durations accept "15m", "2h" or "7d".
type FileConfig struct {
	EndpointAddrHTTP   string          `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	EndpointAddrGRPC   string          `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDriver     string          `json:"database_driver" yaml:"database_driver"`
	DatabaseDSN        string          `json:"database_dsn" yaml:"database_dsn"`
	AccessTokenSecret  string          `json:"access_token_secret" yaml:"access_token_secret"`
	RefreshTokenSecret string          `json:"refresh_token_secret" yaml:"refresh_token_secret"`
	AccessTokenTTL     *timex.Duration `json:"access_token_ttl" yaml:"access_token_ttl"`
	RefreshTokenTTL    *timex.Duration `json:"refresh_token_ttl" yaml:"refresh_token_ttl"`
	RefreshCookieName  string          `json:"refresh_cookie_name" yaml:"refresh_cookie_name"`
	Environment        string          `json:"environment" yaml:"environment"`
	LogFormat          string          `json:"log_format" yaml:"log_format"`
	LogLevel           string          `json:"log_level" yaml:"log_level"`
	CleanupInterval    *timex.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
}

// parseFile overlays the file named by -c/-config, if any. ".yaml" and
// ".yml" files are decoded as YAML, everything else as JSON.
func parseFile(config *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	setString(&c.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	setString(&c.DatabaseDriver, fc.DatabaseDriver)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.AccessTokenSecret, fc.AccessTokenSecret)
	setString(&c.RefreshTokenSecret, fc.RefreshTokenSecret)
	setString(&c.RefreshCookieName, fc.RefreshCookieName)
	setString(&c.Environment, fc.Environment)
	setString(&c.LogFormat, fc.LogFormat)
	setString(&c.LogLevel, fc.LogLevel)

	if fc.AccessTokenTTL != nil {
		c.AccessTokenTTL = fc.AccessTokenTTL.Duration
	}
	if fc.RefreshTokenTTL != nil {
		c.RefreshTokenTTL = fc.RefreshTokenTTL.Duration
	}
	if fc.CleanupInterval != nil {
		c.CleanupInterval = fc.CleanupInterval.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

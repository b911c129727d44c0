package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/ministry/internal/flagx"
	"github.com/dmitrijs2005/ministry/internal/timex"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-D string   database driver ("sqlite" or "pgx")
//	-d string   database DSN
//	-s string   access token secret
//	-S string   refresh token secret
//	-t dur      access token TTL ("2h")
//	-r dur      refresh token TTL ("7d")
//	-n string   refresh cookie name
//	-e string   environment ("development" or "production")
//	-f string   log format ("slog" or "zap")
//	-l string   log level
//	-i dur      expired token cleanup interval
//
// os.Args is first filtered with flagx.FilterArgs so flags owned by other
// components (such as -c) do not break parsing.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-g", "-D", "-d", "-s", "-S", "-t", "-r", "-n", "-e", "-f", "-l", "-i",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDriver, "D", config.DatabaseDriver, "database driver (sqlite|pgx)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccessTokenSecret, "s", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "S", config.RefreshTokenSecret, "refresh token secret")
	fs.StringVar(&config.RefreshCookieName, "n", config.RefreshCookieName, "refresh cookie name")
	fs.StringVar(&config.Environment, "e", config.Environment, "environment (development|production)")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format (slog|zap)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	accessTTL := timex.Duration{Duration: config.AccessTokenTTL}
	refreshTTL := timex.Duration{Duration: config.RefreshTokenTTL}
	cleanup := timex.Duration{Duration: config.CleanupInterval}
	fs.Var(&accessTTL, "t", "access token TTL (e.g. 2h)")
	fs.Var(&refreshTTL, "r", "refresh token TTL (e.g. 7d)")
	fs.Var(&cleanup, "i", "expired token cleanup interval")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.AccessTokenTTL = accessTTL.Duration
	config.RefreshTokenTTL = refreshTTL.Duration
	config.CleanupInterval = cleanup.Duration
	return nil
}

package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/techstore/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-i string   identity API base URL
//	-p string   catalog API base URL
//	-d string   SQLite database path
//	-s string   session backend
//	-l string   log level
//
// Only these flags are passed to the FlagSet (see flagx.FilterArgs), so the
// -c flag handled by parseJson does not interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-i", "-p", "-d", "-s", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.IdentityBaseURL, "i", cfg.IdentityBaseURL, "identity API base URL")
	fs.StringVar(&cfg.CatalogBaseURL, "p", cfg.CatalogBaseURL, "catalog API base URL")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local SQLite database")
	fs.StringVar(&cfg.SessionBackend, "s", cfg.SessionBackend, "session backend: sqlite, redis or memory")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

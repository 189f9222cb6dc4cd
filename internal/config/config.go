// Package config resolves runtime settings from defaults, an optional .env
// file, F1BET_* environment variables and command-line flags, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names
const (
	EnvAPIURL    = "F1BET_API_URL"
	EnvHost      = "F1BET_HOST"
	EnvPort      = "F1BET_PORT"
	EnvDB        = "F1BET_DB"
	EnvLogLevel  = "F1BET_LOG_LEVEL"
	EnvWatchCron = "F1BET_WATCH_CRON"
)

// Config holds the resolved settings
type Config struct {
	APIURL      string
	Host        string
	Port        int
	DBPath      string
	LogLevel    string
	WatchCron   string
	NoKeyboard  bool
	NoBrowser   bool
	ShowVersion bool
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		APIURL:    "http://localhost:5000/api",
		Host:      "127.0.0.1",
		Port:      8081,
		DBPath:    "f1bet.db",
		LogLevel:  "info",
		WatchCron: "@every 1m",
	}
}

// Addr returns the listen address
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LookupFunc reads an environment variable
type LookupFunc func(key string) (string, bool)

// Load reads envFile (when present) into the process environment, then
// resolves the configuration from os.LookupEnv and args.
func Load(envFile string, args []string, output io.Writer) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}
	return Resolve(os.LookupEnv, args, output)
}

// Resolve applies environment values and then flags on top of the defaults
func Resolve(lookup LookupFunc, args []string, output io.Writer) (Config, error) {
	cfg := Default()
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	fset := flag.NewFlagSet("f1bet", flag.ContinueOnError)
	if output != nil {
		fset.SetOutput(output)
	}
	fset.StringVar(&cfg.APIURL, "api", cfg.APIURL, "Backend API base URL")
	fset.StringVar(&cfg.Host, "host", cfg.Host, "Interface to listen on (0.0.0.0 exposes the client to the network)")
	fset.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	fset.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fset.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fset.StringVar(&cfg.WatchCron, "watch", cfg.WatchCron, "Race status poll schedule (cron spec)")
	fset.BoolVar(&cfg.NoKeyboard, "nokeyboard", false, "Disable keyboard shortcuts")
	fset.BoolVar(&cfg.NoBrowser, "nobrowser", false, "Do not open the browser on start")
	fset.BoolVar(&cfg.ShowVersion, "version", false, "Show version and exit")
	fset.Usage = func() { usage(fset) }

	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config, lookup LookupFunc) error {
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		cfg.APIURL = v
	}
	if v, ok := lookup(EnvHost); ok && v != "" {
		cfg.Host = v
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		cfg.Port = port
	}
	if v, ok := lookup(EnvDB); ok && v != "" {
		cfg.DBPath = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := lookup(EnvWatchCron); ok && v != "" {
		cfg.WatchCron = v
	}
	return nil
}

// Validate checks the resolved values
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("api url %q must start with http:// or https://", c.APIURL)
	}
	if c.DBPath == "" {
		return errors.New("database path is required")
	}
	return nil
}

func usage(fset *flag.FlagSet) {
	fmt.Fprintf(fset.Output(), `f1bet - F1 race prediction contest client

Usage:
  f1bet [options]

Options:
`)
	fset.PrintDefaults()
	fmt.Fprintf(fset.Output(), `
Environment (overridden by flags, may be set in .env):
  %s, %s, %s, %s, %s, %s

Keyboard Shortcuts (when enabled):
  o              Open the client in the browser
  r              Print the race calendar
  k              Print the ranking
  p              Print my prediction history
  h              Toggle HTTP request logging
  l              Cycle log level (debug → info → warn → error)
  q              Quit
  ?              Show keyboard help
`, EnvAPIURL, EnvHost, EnvPort, EnvDB, EnvLogLevel, EnvWatchCron)
}

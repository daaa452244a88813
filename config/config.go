// Package config loads the library settings from defaults, an optional
// YAML file and LIBRARY_* environment variables. Command-line flags are
// applied on top by the cli package.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"library-rentals/library"
)

// Environment variables read by Load.
const (
	EnvConfig      = "LIBRARY_CONFIG"
	EnvBackend     = "LIBRARY_BACKEND"
	EnvDB          = "LIBRARY_DB"
	EnvPostgresDSN = "LIBRARY_POSTGRES_DSN"
	EnvLoanDays    = "LIBRARY_LOAN_DAYS"
	EnvLogLevel    = "LIBRARY_LOG_LEVEL"
)

const (
	DefaultDBPath   = "library.db"
	DefaultLoanDays = 14
)

// Config holds every setting of the application.
type Config struct {
	Backend     string `yaml:"backend"`
	DBPath      string `yaml:"db"`
	PostgresDSN string `yaml:"postgres_dsn"`
	LoanDays    int    `yaml:"loan_days"`
	LogLevel    string `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Backend:  library.BackendSQLite,
		DBPath:   DefaultDBPath,
		LoanDays: DefaultLoanDays,
		LogLevel: "warn",
	}
}

// Load reads path (or $LIBRARY_CONFIG when path is empty) over the defaults
// and then applies the environment. A missing file named only by the
// environment is ignored; a missing file named by path is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, err
			}
		}
	}
	if err := cfg.mergeEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() error {
	if v := os.Getenv(EnvBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvDB); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		c.PostgresDSN = v
	}
	if v := os.Getenv(EnvLoanDays); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLoanDays, err)
		}
		c.LoanDays = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate checks the settings for consistency.
func (c Config) Validate() error {
	switch c.Backend {
	case library.BackendSQLite:
		if c.DBPath == "" {
			return errors.New("db path is required for the sqlite backend")
		}
	case library.BackendMemory:
	case library.BackendPostgres:
		if c.PostgresDSN == "" {
			return errors.New("postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.LoanDays < 1 {
		return fmt.Errorf("loan days must be positive, got %d", c.LoanDays)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return lvl, nil
}

// Manager converts the settings into the library's backend configuration.
func (c Config) Manager() library.ManagerConfig {
	return library.ManagerConfig{
		Backend:     c.Backend,
		DBPath:      c.DBPath,
		PostgresDSN: c.PostgresDSN,
		LoanPeriod:  time.Duration(c.LoanDays) * 24 * time.Hour,
	}
}

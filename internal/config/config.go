// Package config loads docmirror settings from defaults, a config file,
// a .env file, DOCMIRROR_* environment variables and command-line flags.
package config

import (
	"errors"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrNoRoot is returned when a command needs a watched directory and none is configured.
var ErrNoRoot = errors.New("no directory to watch: pass one as an argument, set root in the config file, or set DOCMIRROR_ROOT")

// Config is the complete docmirror configuration.
type Config struct {
	Root        string          `mapstructure:"root"`
	Store       StoreConfig     `mapstructure:"store"`
	Sync        SyncConfig      `mapstructure:"sync"`
	Watch       WatchConfig     `mapstructure:"watch"`
	Log         LogConfig       `mapstructure:"log"`
	Dashboard   DashboardConfig `mapstructure:"dashboard"`
	PrintOnExit bool            `mapstructure:"print_on_exit"`
}

// StoreConfig selects and configures the relational store.
type StoreConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// SyncConfig tunes the sync engine.
type SyncConfig struct {
	InitialScan  bool   `mapstructure:"initial_scan"`
	MaxFileBytes int64  `mapstructure:"max_file_bytes"`
	DeleteScope  string `mapstructure:"delete_scope"`
}

// WatchConfig tunes the file watcher.
type WatchConfig struct {
	Ignore []string `mapstructure:"ignore"`
	Buffer int      `mapstructure:"buffer"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
	File   string `mapstructure:"file"`

	// Rotation of File.
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Caller     bool `mapstructure:"caller"`
}

// DashboardConfig configures the live dashboard server.
type DashboardConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:       "sqlite",
			DSN:          "documents.db",
			MaxOpenConns: 25,
		},
		Sync: SyncConfig{
			MaxFileBytes: 10 << 20,
			DeleteScope:  "filename",
		},
		Watch: WatchConfig{
			Ignore: []string{},
			Buffer: 100,
		},
		Log: LogConfig{
			Level:      "info",
			Pretty:     true,
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Dashboard: DashboardConfig{
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
		PrintOnExit: true,
	}
}

// Validate checks every section. The root is not required here; commands
// that watch call RequireRoot.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Store),
		validation.Field(&c.Sync),
		validation.Field(&c.Watch),
		validation.Field(&c.Log),
		validation.Field(&c.Dashboard),
	)
}

// RequireRoot returns ErrNoRoot when no root is configured and otherwise
// makes the root absolute.
func (c *Config) RequireRoot() error {
	if c.Root == "" {
		return ErrNoRoot
	}
	abs, err := filepath.Abs(c.Root)
	if err != nil {
		return err
	}
	c.Root = abs
	return nil
}

func (s StoreConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Driver, validation.Required, validation.In("sqlite", "postgres", "libsql")),
		validation.Field(&s.DSN, validation.Required),
		validation.Field(&s.MaxOpenConns, validation.Min(1)),
	)
}

func (s SyncConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.MaxFileBytes, validation.Min(int64(1))),
		validation.Field(&s.DeleteScope, validation.Required, validation.In("filename", "folder")),
	)
}

func (w WatchConfig) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.Ignore, validation.Each(validation.By(validGlob))),
		validation.Field(&w.Buffer, validation.Min(1)),
	)
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("trace", "debug", "info", "warn", "warning", "error", "disabled", "off")),
		validation.Field(&l.MaxSizeMB, validation.Min(1)),
		validation.Field(&l.MaxBackups, validation.Min(0)),
		validation.Field(&l.MaxAgeDays, validation.Min(0)),
	)
}

func (d DashboardConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Port, validation.Min(0), validation.Max(65535)),
	)
}

func validGlob(value interface{}) error {
	pattern, _ := value.(string)
	if _, err := filepath.Match(pattern, ""); err != nil {
		return errors.New("must be a valid glob pattern")
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable docmirror reads.
const EnvPrefix = "DOCMIRROR"

// LoadOptions controls where Load looks for settings.
type LoadOptions struct {
	// ConfigFile is an explicit config path. When empty, docmirror.yaml,
	// docmirror.yml or docmirror.toml in the working directory is used if present.
	ConfigFile string
	// EnvFile is loaded into the process environment if it exists (default ".env").
	EnvFile string
}

// NewViper returns a viper instance with defaults and environment binding
// in place. Callers bind their flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("root", cfg.Root)
	v.SetDefault("store.driver", cfg.Store.Driver)
	v.SetDefault("store.dsn", cfg.Store.DSN)
	v.SetDefault("store.max_open_conns", cfg.Store.MaxOpenConns)
	v.SetDefault("sync.initial_scan", cfg.Sync.InitialScan)
	v.SetDefault("sync.max_file_bytes", cfg.Sync.MaxFileBytes)
	v.SetDefault("sync.delete_scope", cfg.Sync.DeleteScope)
	v.SetDefault("watch.ignore", cfg.Watch.Ignore)
	v.SetDefault("watch.buffer", cfg.Watch.Buffer)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.pretty", cfg.Log.Pretty)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.max_size_mb", cfg.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", cfg.Log.MaxBackups)
	v.SetDefault("log.max_age_days", cfg.Log.MaxAgeDays)
	v.SetDefault("log.caller", cfg.Log.Caller)
	v.SetDefault("dashboard.enabled", cfg.Dashboard.Enabled)
	v.SetDefault("dashboard.port", cfg.Dashboard.Port)
	v.SetDefault("dashboard.allowed_origins", cfg.Dashboard.AllowedOrigins)
	v.SetDefault("print_on_exit", cfg.PrintOnExit)
}

// Load reads the config file and environment into a validated Config.
func Load(v *viper.Viper, opts LoadOptions) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("docmirror")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}


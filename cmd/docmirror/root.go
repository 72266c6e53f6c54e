package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/docmirror/docmirror/internal/config"
	"github.com/docmirror/docmirror/internal/logging"
	"github.com/docmirror/docmirror/internal/mirror/db"
)

var (
	cfgFile   string
	v         = config.NewViper()
	cfg       = config.DefaultConfig()
	logger    = zerolog.Nop()
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "docmirror",
	Short: "Mirror a directory of text files into a relational store",
	Long: `docmirror watches a directory tree and mirrors every text file into a
relational store as folders and documents. Creating or editing a file
upserts its document; deleting a file removes it.

Settings come from (lowest to highest precedence) built-in defaults, a
config file (docmirror.yaml or docmirror.toml in the working directory, or
--config), a .env file, DOCMIRROR_* environment variables and flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loaded, err := config.Load(v, config.LoadOptions{ConfigFile: cfgFile})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded

		logger, logCloser = logging.New(loggingConfig(cfg.Log))
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func init() {
	defaults := config.DefaultConfig()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default docmirror.yaml in the working directory)")
	rootCmd.PersistentFlags().String("driver", defaults.Store.Driver, "store driver: sqlite, postgres or libsql")
	rootCmd.PersistentFlags().String("db", defaults.Store.DSN, "store location (file path, or connection string for postgres)")
	rootCmd.PersistentFlags().String("log-level", defaults.Log.Level, "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-file", defaults.Log.File, "also write JSON logs to this file")

	mustBind("store.driver", rootCmd.PersistentFlags().Lookup("driver"))
	mustBind("store.dsn", rootCmd.PersistentFlags().Lookup("db"))
	mustBind("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	mustBind("log.file", rootCmd.PersistentFlags().Lookup("log-file"))
}

// loggingConfig translates the log section into logging.Config.
func loggingConfig(c config.LogConfig) logging.Config {
	return logging.Config{
		Level:      c.Level,
		Pretty:     c.Pretty,
		File:       c.File,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		WithCaller: c.Caller,
	}
}

// storeOptions translates the loaded config into db.Options.
func storeOptions() db.Options {
	return db.Options{
		Driver:       cfg.Store.Driver,
		DSN:          cfg.Store.DSN,
		MaxOpenConns: cfg.Store.MaxOpenConns,
		Logger:       &logger,
	}
}

// exitOnError prints err and exits with status 1.
func exitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

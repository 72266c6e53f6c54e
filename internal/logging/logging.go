// Package logging builds the zerolog logger shared by every component.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // human-readable console output
	Output io.Writer

	// File, when set, also writes JSON lines to a rotated log file.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	WithCaller bool
}

// ParseLevel maps a level name to a zerolog level. Unknown names yield info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New creates a structured logger. The returned closer releases the log
// file, if any, and is safe to call when no file is configured.
func New(cfg Config) (zerolog.Logger, io.Closer) {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	// Pretty printing for interactive use
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 50),
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     orDefault(cfg.MaxAgeDays, 28),
		}
		output = zerolog.MultiLevelWriter(output, rotator)
		closer = rotator
	}

	logger := zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", "docmirror").
		Logger()

	if cfg.WithCaller {
		logger = logger.With().Caller().Logger()
	}

	return logger, closer
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	mirror "github.com/docmirror/docmirror/internal/mirror/sync"
)

// Config holds configuration for the daemon.
type Config struct {
	// Root is the directory tree to watch.
	Root string

	// InitialScan upserts every existing file before watching starts.
	InitialScan bool

	// Watcher configures the underlying FileWatcher.
	Watcher WatcherOptions

	// Logger for daemon activity (nil = no logging)
	Logger *zerolog.Logger
}

// Daemon feeds filesystem changes under a root to a Syncer, one at a time.
type Daemon struct {
	syncer mirror.Syncer
	config Config
	logger zerolog.Logger

	handled atomic.Int64
	dropped atomic.Int64
}

// New creates a new Daemon instance. Use Run to begin watching.
func New(syncer mirror.Syncer, config Config) (*Daemon, error) {
	if syncer == nil {
		return nil, fmt.Errorf("syncer cannot be nil")
	}
	if config.Root == "" {
		return nil, fmt.Errorf("root cannot be empty")
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = config.Logger.With().Str("component", "daemon").Logger()
	}

	return &Daemon{
		syncer: syncer,
		config: config,
		logger: logger,
	}, nil
}

// Run watches the root and applies events until ctx is cancelled.
//
// Events are applied serially: each handler runs to completion before the
// next event is taken. On cancellation the watcher is stopped, events already
// buffered are applied, and Run returns nil. Handlers run detached from ctx's
// cancellation so a shutdown never aborts a write halfway.
func (d *Daemon) Run(ctx context.Context) error {
	work := context.WithoutCancel(ctx)

	fw, err := NewFileWatcher(d.config.Watcher)
	if err != nil {
		return err
	}
	if err := fw.Start(d.config.Root); err != nil {
		_ = fw.Close()
		return err
	}

	d.logger.Info().
		Str("root", d.config.Root).
		Int("directories", fw.WatchedDirs()).
		Msg("Starting to monitor directory")

	// Scan only once watches are in place: a file changed mid-scan then
	// shows up as an event too, and upserts are idempotent.
	if d.config.InitialScan {
		if _, err := d.syncer.FullSync(ctx); err != nil && !errors.Is(err, context.Canceled) {
			_ = fw.Stop()
			return fmt.Errorf("failed to perform initial sync: %w", err)
		}
	}

	events := fw.Events()
	errs := fw.Errors()
	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("Shutdown signal received, stopping watcher")
			if err := fw.Stop(); err != nil {
				d.logger.Error().Err(err).Msg("Failed to stop watcher")
			}
			drained := 0
			for ev := range events {
				d.apply(work, ev)
				drained++
			}
			d.logger.Info().
				Int("drained", drained).
				Int64("handled", d.handled.Load()).
				Int64("dropped", d.dropped.Load()).
				Msg("Watcher stopped")
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			d.apply(work, ev)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			d.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

func (d *Daemon) apply(ctx context.Context, ev mirror.Event) {
	if ev.IsDir {
		return
	}
	if d.syncer.Handle(ctx, ev) {
		d.handled.Add(1)
	} else {
		d.dropped.Add(1)
	}
}

// Handled returns the number of file events applied successfully.
func (d *Daemon) Handled() int64 {
	return d.handled.Load()
}

// Dropped returns the number of file events whose handler failed.
func (d *Daemon) Dropped() int64 {
	return d.dropped.Load()
}

package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docmirror/docmirror/internal/config"
	"github.com/docmirror/docmirror/internal/metrics"
	"github.com/docmirror/docmirror/internal/mirror/daemon"
	"github.com/docmirror/docmirror/internal/mirror/dashboard"
	"github.com/docmirror/docmirror/internal/mirror/db"
	"github.com/docmirror/docmirror/internal/mirror/query"
	mirror "github.com/docmirror/docmirror/internal/mirror/sync"
	"github.com/docmirror/docmirror/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Mirror a directory into the store and keep it in sync",
	Long: `Reset the store, then watch dir recursively and mirror every text file.

Each file is stored under the folder that contains it, and that folder
records its own parent folder. Creating or editing a file upserts its
document; deleting or renaming a file removes every document with that
filename (or only the one in its folder with --delete-scope folder).

The store is reset on start unless --keep is given. Files that already
exist are mirrored only with --scan. Ctrl+C stops the watcher, applies any
events still queued and prints the stored documents.

Examples:
  docmirror watch ./notes
  docmirror watch ./notes --scan --dashboard --port 9000
  docmirror watch ./notes --keep --ignore '*.swp' --ignore .git`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 1 {
			cfg.Root = args[0]
		}
		keep, _ := cmd.Flags().GetBool("keep")
		exitOnError(runWatch(keep))
	},
}

func init() {
	defaults := config.DefaultConfig()

	watchCmd.Flags().Bool("keep", false, "keep existing store contents instead of resetting")
	watchCmd.Flags().Bool("scan", defaults.Sync.InitialScan, "mirror files that already exist before watching")
	watchCmd.Flags().StringSlice("ignore", defaults.Watch.Ignore, "glob of file or directory names to skip (repeatable)")
	watchCmd.Flags().String("delete-scope", defaults.Sync.DeleteScope, "documents a delete removes: filename or folder")
	watchCmd.Flags().Bool("dashboard", defaults.Dashboard.Enabled, "serve the live dashboard")
	watchCmd.Flags().IntP("port", "p", defaults.Dashboard.Port, "dashboard port")
	watchCmd.Flags().Bool("print", defaults.PrintOnExit, "print stored documents on exit")

	mustBind("sync.initial_scan", watchCmd.Flags().Lookup("scan"))
	mustBind("watch.ignore", watchCmd.Flags().Lookup("ignore"))
	mustBind("sync.delete_scope", watchCmd.Flags().Lookup("delete-scope"))
	mustBind("dashboard.enabled", watchCmd.Flags().Lookup("dashboard"))
	mustBind("dashboard.port", watchCmd.Flags().Lookup("port"))
	mustBind("print_on_exit", watchCmd.Flags().Lookup("print"))

	rootCmd.AddCommand(watchCmd)
}

func runWatch(keep bool) error {
	if err := cfg.RequireRoot(); err != nil {
		return err
	}
	info, err := os.Stat(cfg.Root)
	if err != nil {
		return fmt.Errorf("failed to access %s: %w", cfg.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", cfg.Root)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	database, err := openStore(ctx, !keep)
	if err != nil {
		return err
	}
	defer database.Close()

	reader := query.New(database, &logger)
	m := metrics.New()
	listeners := mirror.Listeners{m}

	if cfg.Dashboard.Enabled {
		server := dashboard.NewServer(dashboard.Config{
			Port:           cfg.Dashboard.Port,
			AllowedOrigins: cfg.Dashboard.AllowedOrigins,
			Documents:      reader,
			Metrics:        m.Handler(),
			Logger:         &logger,
		})
		if err := server.Start(); err != nil {
			return fmt.Errorf("failed to start dashboard: %w", err)
		}
		defer server.Stop()
		listeners = append(listeners, dashboard.NewHandler(server, &logger))

		fmt.Printf("%s Dashboard on http://%s (ws: /ws, documents: /documents, metrics: /metrics)\n",
			ui.RenderAccent("📡"), displayAddr(server.GetAddr()))
	}

	engine := mirror.New(database, mirror.Options{
		Root:         cfg.Root,
		MaxFileBytes: cfg.Sync.MaxFileBytes,
		DeleteScope:  mirror.DeleteScope(cfg.Sync.DeleteScope),
		Ignore:       cfg.Watch.Ignore,
		Listener:     listeners,
		Logger:       &logger,
	})

	d, err := daemon.New(engine, daemon.Config{
		Root:        cfg.Root,
		InitialScan: cfg.Sync.InitialScan,
		Watcher: daemon.WatcherOptions{
			Ignore: cfg.Watch.Ignore,
			Buffer: cfg.Watch.Buffer,
		},
		Logger: &logger,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s Watching %s (store: %s)\n", ui.RenderAccent("👀"), cfg.Root, database.Location())
	fmt.Println("Press Ctrl+C to stop...")

	if err := d.Run(ctx); err != nil {
		return err
	}

	fmt.Printf("\n%s Stopped: %d events applied, %d dropped\n", ui.RenderPass("✓"), d.Handled(), d.Dropped())

	if cfg.PrintOnExit {
		fmt.Println()
		ui.PrintDocuments(os.Stdout, reader.ListDocuments(context.Background()))
	}
	return nil
}

// openStore resets the store when reset is set and otherwise opens it and
// creates any missing tables.
func openStore(ctx context.Context, reset bool) (*db.DB, error) {
	if reset {
		return db.Initialize(ctx, storeOptions())
	}

	database, err := db.Open(ctx, storeOptions())
	if err != nil {
		return nil, err
	}
	if err := database.InitSchemaContext(ctx); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database, nil
}

// displayAddr turns a wildcard listen address into one a browser can open.
func displayAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "::" || host == "0.0.0.0" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}

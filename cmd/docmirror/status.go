package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docmirror/docmirror/internal/mirror/db"
	"github.com/docmirror/docmirror/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store location, size and counts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runStatus())
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus() error {
	ctx := context.Background()

	// A missing file-based store is reported rather than created.
	if cfg.Store.Driver != db.DriverPostgres {
		path := db.FilePath(cfg.Store.DSN)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Printf("\n%s Store not initialized at %s\n", ui.RenderWarn("⚠"), path)
			fmt.Println("Run 'docmirror init' or 'docmirror watch <dir>' to create it.")
			return nil
		}
	}

	database, err := db.Open(ctx, storeOptions())
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.InitSchemaContext(ctx); err != nil {
		return err
	}

	folders, err := database.GetFolderCountContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to count folders: %w", err)
	}
	documents, err := database.GetDocumentCountContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to count documents: %w", err)
	}

	fmt.Printf("\n%s docmirror store\n\n", ui.RenderAccent("📊"))
	fmt.Printf("  Driver:    %s\n", database.Driver())
	fmt.Printf("  Location:  %s\n", database.Location())
	if cfg.Store.Driver != db.DriverPostgres {
		fmt.Printf("  Size:      %s\n", ui.FormatBytes(storeSize(database.Location())))
		if free, ok := diskFree(database.Location()); ok {
			fmt.Printf("  Free disk: %s\n", ui.FormatBytes(free))
		}
	}
	fmt.Printf("  Folders:   %d\n", folders)
	fmt.Printf("  Documents: %d\n", documents)
	if cfg.Root != "" {
		fmt.Printf("  Root:      %s\n", cfg.Root)
	}
	fmt.Println()
	return nil
}

// storeSize sums the database file and its WAL and shared-memory files.
func storeSize(path string) int64 {
	var total int64
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if info, err := os.Stat(p); err == nil {
			total += info.Size()
		}
	}
	return total
}

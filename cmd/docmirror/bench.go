package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docmirror/docmirror/internal/mirror/db"
	"github.com/docmirror/docmirror/internal/mirror/loadtest"
	"github.com/docmirror/docmirror/internal/ui"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure sync latency against a synthetic tree",
	Long: `Generate a temporary tree of text files, mirror it into a scratch
SQLite store while concurrent readers list documents, then delete every file
and verify the store is empty. Reports per-event latency percentiles.

The configured store is never touched.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		files, _ := cmd.Flags().GetInt("files")
		folders, _ := cmd.Flags().GetInt("folders")
		readers, _ := cmd.Flags().GetInt("readers")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		exitOnError(runBench(loadtest.Options{
			Files:   files,
			Folders: folders,
			Readers: readers,
		}, jsonOutput))
	},
}

func init() {
	benchCmd.Flags().Int("files", 500, "number of files to generate")
	benchCmd.Flags().Int("folders", 20, "number of folders to spread files over")
	benchCmd.Flags().Int("readers", 4, "concurrent readers listing documents during the run")
	benchCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(benchCmd)
}

func runBench(opts loadtest.Options, jsonOutput bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dir, err := os.MkdirTemp("", "docmirror-bench-*")
	if err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	database, err := db.Initialize(ctx, db.Options{
		DSN:    filepath.Join(dir, "bench.db"),
		Logger: &logger,
	})
	if err != nil {
		return err
	}
	defer database.Close()

	if !jsonOutput {
		fmt.Printf("%s Benchmarking sync with %d files...\n", ui.RenderAccent("⏱"), opts.Files)
	}

	report, err := loadtest.Run(ctx, database, dir, opts)
	if err != nil {
		return fmt.Errorf("benchmark failed: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	report.Print(os.Stdout)
	fmt.Printf("%s Store consistent after run\n", ui.RenderPass("✓"))
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/docmirror/docmirror/internal/mirror/db"
	"github.com/docmirror/docmirror/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Reset the store and create empty tables",
	Long: `Delete the configured store and recreate the folders and documents tables.

For SQLite and libSQL the database file and its -wal, -shm and -journal
files are removed; for PostgreSQL both tables are dropped. You are asked to
confirm when running in a terminal unless --yes is given.`,
	Run: func(cmd *cobra.Command, args []string) {
		yes, _ := cmd.Flags().GetBool("yes")
		exitOnError(runInit(yes))
	},
}

func init() {
	initCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(initCmd)
}

func runInit(yes bool) error {
	if !yes {
		if !ui.IsTerminal() {
			return errors.New("refusing to reset the store without --yes in a non-interactive session")
		}

		confirmed := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Reset store %s?", cfg.Store.DSN)).
			Description("All mirrored folders and documents will be deleted.").
			Affirmative("Reset").
			Negative("Cancel").
			Value(&confirmed).
			Run()
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return nil
		}
	}

	database, err := db.Initialize(context.Background(), storeOptions())
	if err != nil {
		return err
	}
	defer database.Close()

	fmt.Fprintf(os.Stdout, "%s Store %s initialized\n", ui.RenderPass("✓"), database.Location())
	return nil
}

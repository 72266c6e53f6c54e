package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/docmirror/docmirror/internal/mirror/query"
	"github.com/docmirror/docmirror/internal/mirror/schema"
	"github.com/docmirror/docmirror/internal/ui"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the stored documents",
	Long: `Print every stored document with its folder name.

Examples:
  docmirror list
  docmirror list --folder projects --format json
  docmirror list --since "2 hours ago"
  docmirror list --since 2026-01-02T15:04:05Z --format yaml`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		folder, _ := cmd.Flags().GetString("folder")
		since, _ := cmd.Flags().GetString("since")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := query.Filter{Folder: folder, Limit: limit}
		if since != "" {
			t, err := parseSince(since, time.Now())
			exitOnError(err)
			filter.Since = t
		}

		exitOnError(runList(os.Stdout, format, filter))
	},
}

func init() {
	listCmd.Flags().StringP("format", "f", "text", "output format: text, json, yaml or toml")
	listCmd.Flags().String("folder", "", "only documents in this folder")
	listCmd.Flags().String("since", "", `only documents updated since this time ("2 hours ago", "yesterday", RFC 3339)`)
	listCmd.Flags().Int("limit", 0, "maximum number of documents (0 = all)")
	rootCmd.AddCommand(listCmd)
}

func runList(w io.Writer, format string, filter query.Filter) error {
	ctx := context.Background()
	database, err := openStore(ctx, false)
	if err != nil {
		return err
	}
	defer database.Close()

	docs, err := query.New(database, &logger).Find(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	return writeDocuments(w, format, docs)
}

// writeDocuments renders docs in the requested format.
func writeDocuments(w io.Writer, format string, docs []schema.DocumentView) error {
	if docs == nil {
		docs = []schema.DocumentView{}
	}

	switch strings.ToLower(format) {
	case "", "text":
		ui.PrintDocuments(w, docs)
		return nil

	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)

	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return err
		}
		return enc.Close()

	case "toml":
		// TOML has no top-level arrays.
		return toml.NewEncoder(w).Encode(struct {
			Documents []schema.DocumentView `toml:"documents"`
		}{docs})

	default:
		return fmt.Errorf("unknown format %q (want text, json, yaml or toml)", format)
	}
}

var sinceParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// parseSince accepts an RFC 3339 timestamp or a natural-language time such
// as "2 hours ago" or "yesterday", resolved relative to now.
func parseSince(s string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	r, err := sinceParser.Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse --since %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("failed to parse --since %q: no time found", s)
	}
	return r.Time, nil
}

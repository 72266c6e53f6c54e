package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/docmirror/docmirror/internal/mirror/schema"
)

// PrintDocuments writes each document as a labelled block:
//
//	Filename: notes.txt
//	Folder: projects
//	Content:
//	...
func PrintDocuments(w io.Writer, docs []schema.DocumentView) {
	if len(docs) == 0 {
		fmt.Fprintln(w, RenderMuted("No documents stored."))
		return
	}

	for _, doc := range docs {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Filename:"), doc.Filename)
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Folder:"), doc.Folder)
		if !doc.UpdatedAt.IsZero() {
			fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Updated:"), RenderMuted(doc.UpdatedAt.Local().Format(time.RFC3339)))
		}
		fmt.Fprintf(w, "%s\n%s\n\n", labelStyle.Render("Content:"), doc.Content)
	}
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

package schema

import (
	"fmt"
	"strings"
	"time"
)

// Folder is a directory observed in the watched tree.
type Folder struct {
	ID   int64
	Name string
	// ParentID is nil for folders at the top of the tree, and for folders that
	// were first inserted as somebody's parent.
	ParentID *int64
}

// Validate checks if the Folder has valid field values.
func (f *Folder) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("folder name is required")
	}
	if f.ParentID != nil && *f.ParentID == f.ID && f.ID != 0 {
		return fmt.Errorf("folder %q cannot be its own parent", f.Name)
	}
	return nil
}

// Document is the latest text content of one file.
type Document struct {
	ID        int64
	Filename  string
	Content   string
	FolderID  int64
	UpdatedAt time.Time
}

// Validate checks if the Document has valid field values.
func (d *Document) Validate() error {
	if d.Filename == "" {
		return fmt.Errorf("filename is required")
	}
	if strings.ContainsAny(d.Filename, `/\`) {
		return fmt.Errorf("filename %q must not contain a path separator", d.Filename)
	}
	if d.FolderID <= 0 {
		return fmt.Errorf("folder_id is required")
	}
	if d.UpdatedAt.IsZero() {
		return fmt.Errorf("updated_at is required")
	}
	return nil
}

// DocumentView is a document joined with the name of its folder. It is the
// shape handed to readers of the store.
type DocumentView struct {
	Filename  string    `json:"filename" yaml:"filename" toml:"filename"`
	Content   string    `json:"content" yaml:"content" toml:"content"`
	Folder    string    `json:"folder" yaml:"folder" toml:"folder"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at" toml:"updated_at"`
}

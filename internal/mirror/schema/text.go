package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

var (
	// ErrNotText is returned for files whose content is not UTF-8 text.
	ErrNotText = errors.New("file is not text")
	// ErrTooLarge is returned for files above the configured size limit.
	ErrTooLarge = errors.New("file too large")
	// ErrNotRegular is returned for pipes, sockets, devices and directories.
	ErrNotRegular = errors.New("not a regular file")
)

// ReadText reads the whole file at path as text.
//
// maxBytes <= 0 disables the size limit.
func ReadText(path string, maxBytes int64) (string, error) {
	// Opening a FIFO blocks until a writer appears, so check before Open.
	pre, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !pre.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrNotRegular, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return "", fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrTooLarge, path, info.Size(), maxBytes)
	}

	var r io.Reader = f
	if maxBytes > 0 {
		// The file may grow between Stat and Read.
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, path, maxBytes)
	}

	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s", ErrNotText, path)
	}
	return string(data), nil
}

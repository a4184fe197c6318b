package share

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Target is a destination for the exported week summary.
type Target interface {
	Name() string
	Share(ctx context.Context, title, text string) error
}

// WriterTarget writes the summary to an io.Writer, e.g. stdout.
type WriterTarget struct {
	name string
	w    io.Writer
}

// NewWriterTarget creates a target writing to w.
func NewWriterTarget(name string, w io.Writer) *WriterTarget {
	return &WriterTarget{name: name, w: w}
}

func (t *WriterTarget) Name() string { return t.name }

func (t *WriterTarget) Share(_ context.Context, _, text string) error {
	if _, err := fmt.Fprintln(t.w, text); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// FileTarget writes the summary to a file, replacing previous content.
type FileTarget struct {
	path string
}

// NewFileTarget creates a target writing to path.
func NewFileTarget(path string) *FileTarget {
	return &FileTarget{path: path}
}

func (t *FileTarget) Name() string { return "file" }

func (t *FileTarget) Share(_ context.Context, _, text string) error {
	if dir := filepath.Dir(t.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(t.path, []byte(text+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	return nil
}

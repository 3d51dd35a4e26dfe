package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileWriter writes one indented JSON document per page into Dir.
type FileWriter struct {
	Dir string
	// PerRun nests the files in a subdirectory named after the run.
	PerRun bool
}

// NewFileWriter creates a FileWriter rooted at dir.
func NewFileWriter(dir string) *FileWriter {
	return &FileWriter{Dir: dir}
}

// Write implements Writer.
func (w *FileWriter) Write(ctx context.Context, runID string, a Artifacts) error {
	if a.Empty() {
		return ErrNoArtifacts
	}

	dir := w.Dir
	if w.PerRun {
		dir = filepath.Join(dir, runID)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, p := range a.pages() {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := marshalIndent(p.Doc)
		if err != nil {
			return fmt.Errorf("write %s: %w", p.File, err)
		}

		if err := os.WriteFile(filepath.Join(dir, p.File), append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", p.File, err)
		}
	}

	return nil
}

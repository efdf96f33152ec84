package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Qluxzz/swedish-books/internal/books"
)

// Writer persists one year's enriched works.
type Writer interface {
	WriteYear(year int, works []books.Work) error
}

// FileWriter writes one JSON file per year. Genre and instance sets are
// plain slices in insertion order, so the arrays are stable and consumable
// by the importer.
type FileWriter struct {
	dir string
}

// NewFileWriter returns a writer rooted at dir, creating it if needed.
func NewFileWriter(dir string) (*FileWriter, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return &FileWriter{dir: dir}, nil
}

// WriteYear serializes the works to <dir>/<year>.json. Years with no works
// write nothing.
func (w *FileWriter) WriteYear(year int, works []books.Work) error {
	if len(works) == 0 {
		return nil
	}
	payload, err := json.MarshalIndent(works, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal works for %d: %w", year, err)
	}
	target := filepath.Join(w.dir, strconv.Itoa(year)+".json")
	if err := os.WriteFile(target, payload, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}

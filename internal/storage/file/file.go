// Package file stores documents as JSON text files in a directory.
//
// Every write goes through atomicwriter, which writes a temporary file in
// the same directory, syncs it, and renames it over the target. A crash
// mid-write leaves the old file intact instead of a truncated one.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"

	"github.com/sakif/train-booking/internal/storage"
)

// compile-time check that *Store implements storage.Backend
var _ storage.Backend = (*Store)(nil)

// Store is a directory of <name>.json documents.
type Store struct {
	dir string
}

// New creates the directory if needed (like `mkdir -p`).
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file: creating data directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Document returns the document stored at <dir>/<name>.json.
func (s *Store) Document(name string) storage.Document {
	return &Document{
		name: name,
		path: filepath.Join(s.dir, name+".json"),
	}
}

// Close is a no-op; files are not held open between operations.
func (s *Store) Close() error { return nil }

// Document is one JSON file.
type Document struct {
	name string
	path string
}

func (d *Document) Name() string { return d.name }

// Path returns the file backing the document.
func (d *Document) Path() string { return d.path }

func (d *Document) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotExist
		}
		return nil, fmt.Errorf("file: reading %s: %w", d.path, err)
	}
	return data, nil
}

func (d *Document) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := atomicwriter.WriteFile(d.path, data, 0o644); err != nil {
		return fmt.Errorf("file: writing %s: %w", d.path, err)
	}
	return nil
}

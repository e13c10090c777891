package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sakif/train-booking/internal/storage"
	"github.com/sakif/train-booking/internal/storage/file"
)

var errDiskFull = errors.New("disk full")

// memDocument is an in-memory storage.Document whose reads and writes can
// be made to fail.
type memDocument struct {
	name     string
	data     []byte
	exists   bool
	writes   int
	readErr  error
	writeErr error
}

func (d *memDocument) Name() string { return d.name }

func (d *memDocument) Read(_ context.Context) ([]byte, error) {
	if d.readErr != nil {
		return nil, d.readErr
	}
	if !d.exists {
		return nil, storage.ErrNotExist
	}
	return append([]byte(nil), d.data...), nil
}

func (d *memDocument) Write(_ context.Context, data []byte) error {
	if d.writeErr != nil {
		return d.writeErr
	}
	d.data = append([]byte(nil), data...)
	d.exists = true
	d.writes++
	return nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newFileDocument returns a document in a fresh temporary directory along
// with the path of its backing file.
func newFileDocument(t *testing.T, name string) (storage.Document, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := file.New(dir)
	require.NoError(t, err)
	return s.Document(name), filepath.Join(dir, name+".json")
}

func writeRaw(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/train-booking/internal/storage"
)

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	_, err := New(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRead_MissingDocument(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Document("users").Read(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotExist)
}

func TestWriteRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	doc := s.Document("trains")

	require.NoError(t, doc.Write(context.Background(), []byte(`[{"train_id":"T1"}]`)))

	got, err := doc.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `[{"train_id":"T1"}]`, string(got))

	// The file lives where the JSON store has always kept it: <dir>/<name>.json
	_, err = os.Stat(filepath.Join(dir, "trains.json"))
	assert.NoError(t, err)
}

func TestWrite_ReplacesWholeContent(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	doc := s.Document("users")
	ctx := context.Background()

	require.NoError(t, doc.Write(ctx, []byte("a much longer first version")))
	require.NoError(t, doc.Write(ctx, []byte("short")))

	got, err := doc.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "short", string(got))
}

func TestWrite_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.Document("users").Write(context.Background(), []byte("[]")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "users.json", entries[0].Name())
}

func TestCancelledContext(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Document("users").Write(ctx, []byte("[]")), context.Canceled)
	_, err = s.Document("users").Read(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/steprelay/internal/adapters/file"
	"github.com/aretw0/steprelay/pkg/domain"
	"github.com/aretw0/steprelay/pkg/ports"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.TraceStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunTraceStoreContract(t, store)
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	trace := &domain.Trace{
		ID:        "run-1",
		CreatedAt: time.Now().UTC(),
		Steps: []domain.Snapshot{
			domain.Capture(0, nil),
			domain.Capture(1, []domain.TokenView{{ID: 1, Value: "x"}}),
		},
	}
	require.NoError(t, store.Save(ctx, "run-1", trace))

	raw, err := os.ReadFile(filepath.Join(dir, "run-1"+file.Ext))
	require.NoError(t, err)

	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	plain, err := dec.DecodeAll(raw, nil)
	require.NoError(t, err)

	lines := 0
	for _, b := range plain {
		if b == '\n' {
			lines++
		}
	}
	assert.Equal(t, 3, lines, "header plus one line per step")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileStore_Overwrite(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", &domain.Trace{ID: "a", Program: "one"}))
	require.NoError(t, store.Save(ctx, "a", &domain.Trace{ID: "a", Program: "two"}))

	loaded, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "two", loaded.Program)
	assert.Empty(t, loaded.Steps)
}

func TestFileStore_InvalidIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, "", &domain.Trace{}))
	assert.Error(t, store.Save(ctx, "../escape", &domain.Trace{}))
	_, err := store.Load(ctx, "a/b")
	assert.Error(t, err)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "nope"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad"+file.Ext), []byte("not zstd"), 0644))

	_, err := file.New(dir).Load(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrTraceNotFound)
}

package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHash = "ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12"

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	sqlStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlStore.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlStore,
	}
}

func TestStoreConformance(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			seen, err := store.Has(ctx, testHash)
			require.NoError(t, err)
			assert.False(t, seen, "fresh store knows nothing")

			require.NoError(t, store.Record(ctx, testHash, "/watch/asha_rao.pdf"))
			seen, err = store.Has(ctx, testHash)
			require.NoError(t, err)
			assert.True(t, seen)

			require.NoError(t, store.Record(ctx, testHash, "/watch/renamed.pdf"),
				"duplicate record is a no-op, not an error")

			seen, err = store.HasDriveFile(ctx, testHash)
			require.NoError(t, err)
			assert.False(t, seen, "drive ids and content hashes are separate namespaces")

			require.NoError(t, store.RecordDriveFile(ctx, "drive-file-1"))
			seen, err = store.HasDriveFile(ctx, "drive-file-1")
			require.NoError(t, err)
			assert.True(t, seen)
		})
	}
}

func TestStoreConcurrentRecord(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			errs := make(chan error, 32)
			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					errs <- store.Record(ctx, testHash, "/watch/a.pdf")
					errs <- store.Record(ctx, fmt.Sprintf("hash-%d", i), "/watch/b.pdf")
				}(i)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				assert.NoError(t, err)
			}

			seen, err := store.Has(ctx, testHash)
			require.NoError(t, err)
			assert.True(t, seen)
		})
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	store, err := NewSQLiteStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, testHash, "/watch/asha_rao.pdf"))
	require.NoError(t, store.RecordDriveFile(ctx, "drive-file-1"))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path, nil)
	require.NoError(t, err)
	defer store.Close()

	seen, err := store.Has(ctx, testHash)
	require.NoError(t, err)
	assert.True(t, seen)
	seen, err = store.HasDriveFile(ctx, "drive-file-1")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestSQLiteStoreCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "nested", "ledger.db")
	store, err := NewSQLiteStore(path, nil)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Record(context.Background(), testHash, "/watch/a.pdf"))
}

func TestSQLiteStoreRecoversFromCorruptDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not a sqlite database"), 0o644))

	store, err := NewSQLiteStore(path, nil)
	require.NoError(t, err, "corruption degrades to an empty ledger, never a startup failure")
	defer store.Close()

	seen, err := store.Has(context.Background(), testHash)
	require.NoError(t, err)
	assert.False(t, seen, "recovered ledger starts empty")

	aside, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	assert.Len(t, aside, 1, "the unreadable file is kept for inspection")
}

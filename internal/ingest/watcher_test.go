package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collect drains the event channel until want distinct paths arrived or the
// timeout lapses.
func collect(t *testing.T, ch <-chan string, want int, timeout time.Duration) []string {
	t.Helper()
	seen := map[string]struct{}{}
	deadline := time.After(timeout)
	for len(seen) < want {
		select {
		case p, ok := <-ch:
			if !ok {
				t.Fatalf("event channel closed early; got %d of %d paths", len(seen), want)
			}
			seen[p] = struct{}{}
		case <-deadline:
			t.Fatalf("timed out; got %d of %d paths", len(seen), want)
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	return out
}

func assertNoEvent(t *testing.T, ch <-chan string, wait time.Duration) {
	t.Helper()
	select {
	case p := <-ch:
		t.Fatalf("unexpected event: %s", p)
	case <-time.After(wait):
	}
}

func TestStartWatcherRequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)
}

func TestStartWatcherInitialScan(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "resume.pdf")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "skip.txt"), []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evCh, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true})
	require.NoError(t, err)

	got := collect(t, evCh, 1, 3*time.Second)
	assert.Contains(t, got, existing)
	assertNoEvent(t, evCh, 200*time.Millisecond)
}

func TestStartWatcherEmitsNewFiles(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evCh, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)

	path := filepath.Join(root, "new.docx")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	got := collect(t, evCh, 1, 3*time.Second)
	assert.Contains(t, got, path)
}

func TestStartWatcherIgnoresOtherExtensions(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evCh, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".upload.pdf.part"), []byte("x"), 0o644))
	assertNoEvent(t, evCh, 300*time.Millisecond)
}

func TestStartWatcherPicksUpNewSubdirectories(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evCh, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)

	sub := filepath.Join(root, "batch-1")
	require.NoError(t, os.Mkdir(sub, 0o755))
	// Give the watcher a moment to register the new directory.
	time.Sleep(250 * time.Millisecond)

	path := filepath.Join(sub, "cv.pdf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	got := collect(t, evCh, 1, 3*time.Second)
	assert.Contains(t, got, path)
}

func TestStartWatcherClosesOnCancel(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	evCh, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}})
	require.NoError(t, err)

	cancel()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-evCh:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("event channel not closed after cancel")
		}
	}
}

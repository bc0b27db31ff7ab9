package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitStableQuietFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "done.pdf")
	require.NoError(t, os.WriteFile(path, []byte("complete upload"), 0o644))

	err := WaitStable(context.Background(), path,
		StabilityConfig{Checks: 2, Interval: 5 * time.Millisecond, Timeout: time.Second})
	assert.NoError(t, err)
}

func TestWaitStableWaitsOutAGrowingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.pdf")
	require.NoError(t, os.WriteFile(path, []byte("start"), 0o644))

	go func() {
		for i := 0; i < 5; i++ {
			time.Sleep(5 * time.Millisecond)
			f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return
			}
			_, _ = f.WriteString("more bytes")
			_ = f.Close()
		}
	}()

	err := WaitStable(context.Background(), path,
		StabilityConfig{Checks: 2, Interval: 20 * time.Millisecond, Timeout: 3 * time.Second})
	assert.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(len("start")+5*len("more bytes")), info.Size())
}

func TestWaitStableTimesOutOnEndlessWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.pdf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-time.After(5 * time.Millisecond):
				f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
				if err != nil {
					return
				}
				_, _ = f.WriteString("y")
				_ = f.Close()
			}
		}
	}()

	err := WaitStable(context.Background(), path,
		StabilityConfig{Checks: 3, Interval: 10 * time.Millisecond, Timeout: 150 * time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "still changing")
}

func TestWaitStableMissingFile(t *testing.T) {
	err := WaitStable(context.Background(), filepath.Join(t.TempDir(), "never.pdf"),
		StabilityConfig{Checks: 1, Interval: time.Millisecond, Timeout: time.Second})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestWaitStableCanceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := WaitStable(ctx, path,
		StabilityConfig{Checks: 100, Interval: 10 * time.Millisecond, Timeout: 10 * time.Second})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

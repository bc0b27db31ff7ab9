package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"
)

// StabilityConfig controls how long a discovered file must sit still
// before it is read. Uploads and network copies land in chunks; hashing a
// half-written file would gate the ledger on a hash no one will see again.
type StabilityConfig struct {
	Checks   int           // consecutive unchanged re-stats required, default 2
	Interval time.Duration // between stats, default 1s
	Timeout  time.Duration // give up after, default 30s
}

func (c StabilityConfig) withDefaults() StabilityConfig {
	if c.Checks <= 0 {
		c.Checks = 2
	}
	if c.Interval <= 0 {
		c.Interval = time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// WaitStable blocks until the file's size and mtime have been observed
// unchanged cfg.Checks times in a row, then returns nil. It returns the
// stat error if the file vanishes, and an error if the file is still
// changing when the timeout lapses.
func WaitStable(ctx context.Context, path string, cfg StabilityConfig) error {
	cfg = cfg.withDefaults()
	deadline := time.Now().Add(cfg.Timeout)

	var lastSize int64 = -1
	var lastMod time.Time
	unchanged := 0

	for {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if info.Size() == lastSize && info.ModTime().Equal(lastMod) {
			unchanged++
			if unchanged >= cfg.Checks {
				return nil
			}
		} else {
			unchanged = 0
			lastSize = info.Size()
			lastMod = info.ModTime()
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("file %s still changing after %s", path, cfg.Timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.Interval):
		}
	}
}

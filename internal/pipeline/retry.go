package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/svtalent/candidate-intake/internal/common"
)

// RetryConfig shapes the exponential backoff applied to sink deliveries.
type RetryConfig struct {
	MaxAttempts  int           // default 3
	InitialDelay time.Duration // default 2s
	Multiplier   float64       // default 2.0
	MaxDelay     time.Duration // cap, default 30s
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 2 * time.Second
	}
	if c.Multiplier < 1 {
		c.Multiplier = 2.0
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	return c
}

// Retrier re-runs sink deliveries that failed as SINK_UNREACHABLE. Any
// other failure is returned on the spot: the taxonomy, not the retrier,
// decides what is worth trying again.
type Retrier struct {
	cfg    RetryConfig
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewRetrier(cfg RetryConfig, logger *slog.Logger) *Retrier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{
		cfg:    cfg.withDefaults(),
		logger: logger,
		sleep:  sleepCtx,
	}
}

// Do runs fn until it succeeds, fails terminally, or MaxAttempts is spent.
// The error of the last attempt is returned on exhaustion, so the caller
// still sees SINK_UNREACHABLE and can leave the file uncommitted.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			if attempt > 1 {
				r.logger.Info("retry.recovered", "op", op, "attempt", attempt)
			}
			return nil
		}
		if !common.IsCode(err, common.CodeSinkUnreachable) {
			return err
		}
		if attempt == r.cfg.MaxAttempts {
			break
		}

		delay := r.Delay(attempt)
		r.logger.Warn("retry.backoff",
			"op", op,
			"attempt", attempt,
			"max_attempts", r.cfg.MaxAttempts,
			"delay", delay.String(),
			"error", err.Error(),
		)
		if serr := r.sleep(ctx, delay); serr != nil {
			return serr
		}
	}
	return fmt.Errorf("%s: %d attempts exhausted: %w", op, r.cfg.MaxAttempts, err)
}

// Delay returns the pause after the given 1-based failed attempt:
// InitialDelay * Multiplier^(attempt-1), capped at MaxDelay.
func (r *Retrier) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(float64(r.cfg.InitialDelay) * math.Pow(r.cfg.Multiplier, float64(attempt-1)))
	if d > r.cfg.MaxDelay || d <= 0 {
		d = r.cfg.MaxDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

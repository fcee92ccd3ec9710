package orchestrator

// #region imports
import (
	"context"
	"math"
	"math/rand"
	"time"
)

// #endregion

// #region backoff

// backoffDelay computes the delay before attempt k (1-based) using
// exponential growth capped at MaxDelay. With Jitter enabled the delay is
// scaled by a uniform factor in [0.5, 1.5) so concurrent requests do not
// retry in lockstep.
func backoffDelay(attempt int, cfg RetryConfig, rng *rand.Rand) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := cfg.ExponentialBase
	if base <= 1 {
		base = 2.0
	}
	d := time.Duration(float64(cfg.InitialDelay) * math.Pow(base, float64(attempt-1)))
	if cfg.MaxDelay > 0 && d > cfg.MaxDelay {
		d = cfg.MaxDelay
	}
	if cfg.Jitter && rng != nil {
		d = time.Duration(float64(d) * (0.5 + rng.Float64()))
	}
	return d
}

// sleep waits for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// #endregion backoff

package retry

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/stratumlab/sowforge/internal/pkg/apperr"
)

// Policy decides how long to wait after a failed attempt. attempt is
// 1-based.
type Policy interface {
	Delay(attempt int) time.Duration
}

type noDelay struct{}

func (noDelay) Delay(int) time.Duration { return 0 }

// NoDelay retries immediately, matching the original pipeline behavior.
func NoDelay() Policy { return noDelay{} }

type fixedDelay struct {
	d time.Duration
}

func (f fixedDelay) Delay(int) time.Duration { return f.d }

func FixedDelay(d time.Duration) Policy { return fixedDelay{d: d} }

type exponentialDelay struct {
	base time.Duration
	max  time.Duration
}

func (e exponentialDelay) Delay(attempt int) time.Duration {
	d := e.base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= e.max {
			return e.max
		}
	}
	if d > e.max {
		return e.max
	}
	return d
}

// ExponentialDelay doubles the base delay on every failed attempt,
// capped at max.
func ExponentialDelay(base, max time.Duration) Policy {
	return exponentialDelay{base: base, max: max}
}

// Runner executes fallible operations with a bounded attempt budget.
// It never inspects the error it retries, so it can wrap persistence,
// indexing and generation calls alike.
type Runner struct {
	maxAttempts int
	policy      Policy
}

func NewRunner(maxAttempts int, policy Policy) *Runner {
	if policy == nil {
		policy = NoDelay()
	}
	return &Runner{maxAttempts: maxAttempts, policy: policy}
}

// Do runs fn up to maxAttempts times, sequentially. Intermediate
// failures are logged and swallowed; once attempts are exhausted the
// last error is returned as-is so callers can still match on its type.
func (r *Runner) Do(ctx context.Context, name string, fn func() error) error {
	if r.maxAttempts <= 0 {
		return apperr.ErrNoAttempts
	}
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("operation attempt failed",
			zap.String("operation", name),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.maxAttempts),
			zap.Error(err),
		)
		if attempt < r.maxAttempts {
			if d := r.policy.Delay(attempt); d > 0 {
				time.Sleep(d)
			}
		}
	}
	return lastErr
}

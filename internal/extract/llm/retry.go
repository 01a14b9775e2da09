package llm

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"
	"time"
)

// retryPolicy bounds sequential re-attempts on transient failures.
// Attempts never run concurrently; each retry waits base*2^n capped at max.
type retryPolicy struct {
	maxAttempts int
	base        time.Duration
	cap         time.Duration
}

func newRetryPolicy(maxAttempts int, base, cap time.Duration) retryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if base <= 0 {
		base = 2 * time.Second
	}
	if cap <= 0 {
		cap = 10 * time.Second
	}
	return retryPolicy{maxAttempts: maxAttempts, base: base, cap: cap}
}

// delay returns the backoff before attempt n (0-based; attempt 0 has none).
func (p retryPolicy) delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	d := p.base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.cap {
			return p.cap
		}
	}
	if d > p.cap {
		return p.cap
	}
	return d
}

// wait sleeps for the backoff of attempt n, aborting early on context
// cancellation.
func (p retryPolicy) wait(ctx context.Context, attempt int) error {
	d := p.delay(attempt)
	if d == 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// isTransient classifies an invocation failure as retryable. Only timeouts
// and connection-level failures qualify; validation, format and type errors
// from the service are permanent.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		// caller abandoned the request, do not re-attempt
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var oe *net.OpError
	if errors.As(err, &oe) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}

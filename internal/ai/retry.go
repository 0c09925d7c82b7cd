package ai

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"
)

// RetryPolicy is the exponential backoff shared by the HTTP runtimes.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func (p RetryPolicy) withDefaults(attempts int, base, max time.Duration) RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = attempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = base
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = max
	}
	return p
}

// attemptFunc performs one request. retry asks for another attempt; wait, when
// positive, overrides the backoff (Retry-After).
type attemptFunc func(ctx context.Context) (retry bool, wait time.Duration, err error)

// do runs fn until it succeeds, reports a non-retryable error, or the
// attempts are exhausted. Sleeping honours ctx.
func (p RetryPolicy) do(ctx context.Context, fn attemptFunc) error {
	backoff := p.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		retry, wait, err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry || attempt == p.MaxAttempts {
			break
		}
		if wait <= 0 {
			wait = withJitter(backoff)
			if p.MaxDelay > 0 && wait > p.MaxDelay {
				wait = p.MaxDelay
			}
			backoff *= 2
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
	}
	return lastErr
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

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func isRetryableStatus(sc int) bool {
	return sc == http.StatusTooManyRequests || (sc >= 500 && sc <= 599)
}

// retryAfter interprets a Retry-After header value as seconds or HTTP date.
func retryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if s, err := strconv.Atoi(v); err == nil && s > 0 {
		return time.Duration(s) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}

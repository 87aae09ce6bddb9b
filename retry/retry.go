/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package retry

import (
	"context"
	"errors"
	"time"

	"github.com/chainguard-dev/clog"
)

// ErrExhausted is reported in Result.Err when every attempt ran without the
// operation reporting completion.
var ErrExhausted = errors.New("attempts exhausted")

// SleepFunc blocks for the given duration or until the context is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// PollConfig configures fixed-interval polling of an operation that becomes
// ready eventually (for example a freshly generated repository).
type PollConfig struct {
	// MaxAttempts is the number of times the operation is invoked (default: 60).
	MaxAttempts int
	// Interval is the pause between two unsuccessful attempts (default: 2s).
	Interval time.Duration
	// Sleep waits between attempts. Nil means a real timer; tests inject a
	// simulated clock here.
	Sleep SleepFunc
}

// Validate checks that the poll configuration has valid values.
func (c PollConfig) Validate() error {
	if c.MaxAttempts <= 0 {
		return errors.New("max attempts must be positive")
	}
	if c.Interval < 0 {
		return errors.New("interval cannot be negative")
	}
	return nil
}

// DefaultPollConfig returns the configuration used while waiting for a newly
// created repository to become readable.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		MaxAttempts: 60,
		Interval:    2 * time.Second,
	}
}

// Result is the outcome of Poll. Err is nil on success, ErrExhausted when all
// attempts were used, or the context error when polling was interrupted.
type Result[T any] struct {
	Value    T
	Attempts int
	Err      error
}

// OK reports whether the operation completed.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Poll invokes fn until it reports done, waiting cfg.Interval between
// attempts. There is no wait after the final attempt, so an exhausted poll
// spends exactly (MaxAttempts-1)*Interval sleeping.
//
// Poll never panics on an invalid configuration; it reports the validation
// error in the returned Result instead.
func Poll[T any](ctx context.Context, cfg PollConfig, operation string, fn func(ctx context.Context, attempt int) (T, bool)) Result[T] {
	var res Result[T]
	if err := cfg.Validate(); err != nil {
		res.Err = err
		return res
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = timerSleep
	}

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		res.Attempts = attempt
		v, done := fn(ctx, attempt)
		if done {
			res.Value = v
			return res
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		clog.FromContext(ctx).With("operation", operation).
			With("attempt", attempt).
			With("max_attempts", cfg.MaxAttempts).
			With("interval", cfg.Interval).
			Debug("Not ready yet, waiting")

		if err := sleep(ctx, cfg.Interval); err != nil {
			res.Err = err
			return res
		}
	}

	res.Err = ErrExhausted
	return res
}

func timerSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

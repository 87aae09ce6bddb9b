/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package treefetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chainguard.dev/provisioner/retry"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// ErrAcquisitionTimeout is wrapped by the error Acquire returns when no
// strategy succeeded within the configured number of rounds.
var ErrAcquisitionTimeout = errors.New("timeout_waiting_for_repo_ready")

// Engine acquires repository trees. It holds no per-request state and may be
// shared between goroutines.
type Engine struct {
	strategies []Strategy
	poll       retry.PollConfig
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxAttempts sets the number of rounds before giving up (default 60).
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		e.poll.MaxAttempts = n
	}
}

// WithInterval sets the pause between unsuccessful rounds (default 2s).
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.poll.Interval = d
	}
}

// WithSleep replaces the wait between rounds, e.g. with a simulated clock.
func WithSleep(sleep retry.SleepFunc) Option {
	return func(e *Engine) {
		e.poll.Sleep = sleep
	}
}

// WithStrategies replaces the default strategy order.
func WithStrategies(strategies ...Strategy) Option {
	return func(e *Engine) {
		e.strategies = append([]Strategy{}, strategies...)
	}
}

// New creates an Engine that talks to GitHub through api using the default
// strategies unless WithStrategies is given.
func New(api API, opts ...Option) (*Engine, error) {
	e := &Engine{poll: retry.DefaultPollConfig()}
	for _, opt := range opts {
		opt(e)
	}
	if e.strategies == nil {
		if api == nil {
			return nil, errors.New("api cannot be nil")
		}
		e.strategies = DefaultStrategies(api)
	}
	if len(e.strategies) == 0 {
		return nil, errors.New("at least one strategy is required")
	}
	if err := e.poll.Validate(); err != nil {
		return nil, fmt.Errorf("invalid polling configuration: %w", err)
	}
	return e, nil
}

// Acquire returns the tree for the given coordinates, polling until one of
// the strategies yields a non-empty tree. An empty branch means "main".
//
// The returned error wraps ErrAcquisitionTimeout when every round failed, or
// the context error when ctx ended first.
func (e *Engine) Acquire(ctx context.Context, c Coordinates) (*Tree, error) {
	c = c.withDefaults()
	switch {
	case c.Owner == "":
		return nil, errors.New("owner cannot be empty")
	case c.Repo == "":
		return nil, errors.New("repo cannot be empty")
	}

	log := clog.FromContext(ctx).With("repository", c.Owner+"/"+c.Repo).With("branch", c.Branch)
	ctx = clog.WithLogger(ctx, log)

	tr := otel.Tracer("chainguard.dev/provisioner/treefetch",
		oteltrace.WithInstrumentationVersion("1.0.0"))
	ctx, span := tr.Start(ctx, "treefetch.acquire", oteltrace.WithAttributes(
		attribute.String("repository", c.Owner+"/"+c.Repo),
		attribute.String("branch", c.Branch),
		attribute.Int("max_attempts", e.poll.MaxAttempts),
	))
	defer span.End()

	var (
		winner  Attempt
		lastErr error
	)
	res := retry.Poll(ctx, e.poll, "treefetch.acquire", func(ctx context.Context, round int) (*Tree, bool) {
		won, attempts := firstSuccess(ctx, e.strategies, c)
		for _, a := range attempts {
			if a.Err != nil {
				lastErr = a.Err
				log.With("strategy", a.Strategy).With("round", round).
					Debugf("Strategy did not succeed: %v", a.Err)
			}
		}
		if !won.OK() {
			return nil, false
		}
		winner = won
		return won.Tree, true
	})

	span.SetAttributes(attribute.Int("rounds", res.Attempts))
	if res.Attempts > 0 {
		acquisitionRounds.Observe(float64(res.Attempts))
	}

	switch {
	case res.OK():
		acquisitions.WithLabelValues(outcomeSuccess).Inc()
		span.SetAttributes(attribute.String("strategy", winner.Strategy))
		span.SetStatus(codes.Ok, "")
		log.With("strategy", winner.Strategy).
			With("rounds", res.Attempts).
			With("entries", len(res.Value.Entries)).
			Info("Acquired repository tree")
		return res.Value, nil

	case errors.Is(res.Err, retry.ErrExhausted):
		acquisitions.WithLabelValues(outcomeTimeout).Inc()
		err := fmt.Errorf("%w: %s after %d attempts", ErrAcquisitionTimeout, c, res.Attempts)
		if lastErr != nil {
			err = fmt.Errorf("%w: %s after %d attempts (last failure: %v)", ErrAcquisitionTimeout, c, res.Attempts, lastErr)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err

	default:
		acquisitions.WithLabelValues(outcomeCanceled).Inc()
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
		return nil, fmt.Errorf("acquiring tree for %s: %w", c, res.Err)
	}
}

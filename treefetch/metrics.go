/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package treefetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess  = "success"
	outcomeNotReady = "not_ready"
	outcomeError    = "error"
	outcomeTimeout  = "timeout"
	outcomeCanceled = "canceled"
)

var (
	strategyAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tree_acquisition_strategy_attempts_total",
			Help: "Strategy invocations while acquiring repository trees, by outcome",
		},
		[]string{"strategy", "outcome"},
	)

	acquisitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tree_acquisition_total",
			Help: "Completed tree acquisitions, by outcome",
		},
		[]string{"outcome"},
	)

	acquisitionRounds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tree_acquisition_rounds",
			Help:    "Rounds needed per tree acquisition",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 30, 45, 60},
		},
	)
)

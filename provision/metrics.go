/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package provision

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var provisions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "repository_provisions_total",
		Help: "Repositories provisioned from the template, by outcome",
	},
	[]string{"outcome"},
)

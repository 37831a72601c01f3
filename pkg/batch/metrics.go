// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Batch pipeline metrics
var (
	mBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nearbatch",
		Subsystem: "pipeline",
		Name:      "batches",
		Help:      "Number of batches run, by result",
	}, []string{"result"})
	mSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nearbatch",
		Subsystem: "broadcast",
		Name:      "submissions",
		Help:      "Number of submitted transactions, by outcome",
	}, []string{"status"})
	mInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nearbatch",
		Subsystem: "broadcast",
		Name:      "in_flight",
		Help:      "Number of submissions in flight",
	})
	mSubmitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nearbatch",
		Subsystem: "broadcast",
		Name:      "submit_duration",
		Help:      "Submission duration in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
	})
)

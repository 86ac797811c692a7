/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package monitor

import (
	"github.com/prometheus/client_golang/prometheus"

	"rucat.dev/rucat/internal/engine"
)

// Registry is the Prometheus registry the monitor's metrics live in.
// internal/httpapi exposes it at GET /metrics via promhttp.HandlerFor;
// it stands in for the teacher's sigs.k8s.io/controller-runtime/pkg/
// metrics.Registry, which this repo does not otherwise depend on.
var Registry = prometheus.NewRegistry()

var (
	reconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rucat_monitor_reconcile_total",
			Help: "Total number of per-engine reconciliation attempts, by outcome",
		},
		[]string{"result"},
	)

	triggerTimeoutTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rucat_monitor_trigger_timeout_total",
			Help: "Total number of Trigger* acquisitions self-refreshed after their deadline passed",
		},
	)

	transitionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rucat_monitor_transition_total",
			Help: "Total number of engine state transitions, by (from, to) state kind",
		},
		[]string{"from", "to"},
	)

	iterationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rucat_monitor_iteration_duration_seconds",
			Help:    "Duration of one reconciliation loop iteration",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	Registry.MustRegister(
		reconcileTotal,
		triggerTimeoutTotal,
		transitionTotal,
		iterationDuration,
	)
}

const (
	resultAcquired       = "acquired"
	resultCASMiss        = "cas_miss"
	resultReleaseFailed  = "release_failed"
	resultUnreachable    = "unreachable"
	resultNoTransition   = "no_transition"
	resultTransitioned   = "transitioned"
	resultStoreError     = "store_error"
	resultEngineVanished = "engine_vanished"
)

func recordReconcile(result string) {
	reconcileTotal.WithLabelValues(result).Inc()
}

func recordTriggerTimeout() {
	triggerTimeoutTotal.Inc()
}

func recordTransition(from, to engine.StateKind) {
	transitionTotal.WithLabelValues(string(from), string(to)).Inc()
}

func recordIterationDuration(seconds float64) {
	iterationDuration.Observe(seconds)
}

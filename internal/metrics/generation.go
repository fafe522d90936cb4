package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Generation, limiter and agent Prometheus metrics.
var (
	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Total number of generative backend requests",
		},
		[]string{"provider", "model", "kind", "status"}, // kind: text / tools / stream
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_request_duration_seconds",
			Help:      "Generative backend request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model", "kind"},
	)

	LimiterQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ratelimit_queue_depth",
			Help:      "Tasks waiting in a rate limiter queue",
		},
		[]string{"limiter"},
	)

	LimiterWaitSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ratelimit_wait_seconds",
			Help:      "Time a task spent queued before it started",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"limiter"},
	)

	LimiterTasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_tasks_total",
			Help:      "Tasks processed by a rate limiter",
		},
		[]string{"limiter", "outcome"}, // ok / error / panic / rejected
	)

	AgentTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_turns_total",
			Help:      "Completed assistant turns by path",
		},
		[]string{"path", "mode"}, // mode: sync / stream
	)

	ToolDispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_dispatch_total",
			Help:      "Tool dispatches by tool and outcome",
		},
		[]string{"tool", "outcome"},
	)
)

var genRegisterOnce sync.Once

// RegisterGenerationMetrics registers generation, limiter and agent metrics. Later calls are no-ops.
func RegisterGenerationMetrics() {
	genRegisterOnce.Do(func() {
		prometheus.MustRegister(
			GenerationRequestsTotal,
			GenerationRequestDuration,
			LimiterQueueDepth,
			LimiterWaitSeconds,
			LimiterTasksTotal,
			AgentTurnsTotal,
			ToolDispatchTotal,
		)
	})
}

// Package metrics exposes Prometheus instruments for pipeline runs.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

const namespace = "leadgen"

// Item outcomes recorded per stage.
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Metrics holds the pipeline's Prometheus instruments.
type Metrics struct {
	RunsTotal      *prometheus.CounterVec
	RunsInProgress prometheus.Gauge
	StageDuration  *prometheus.HistogramVec
	StageItems     *prometheus.CounterVec
	ExternalCalls  *prometheus.CounterVec
	Tokens         *prometheus.CounterVec
	CostUSD        prometheus.Counter
}

// New creates and registers the instruments on reg, or on the default
// registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by terminal status",
		}, []string{"status"}),
		RunsInProgress: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_in_progress",
			Help:      "Pipeline runs currently executing",
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 14),
		}, []string{"stage"}),
		StageItems: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_items_total",
			Help:      "Items processed per stage by outcome",
		}, []string{"stage", "outcome"}),
		ExternalCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_calls_total",
			Help:      "Calls to external services by outcome",
		}, []string{"service", "outcome"}),
		Tokens: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "LLM tokens consumed by direction",
		}, []string{"direction"}),
		CostUSD: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_cost_usd_total",
			Help:      "Estimated LLM spend in USD",
		}),
	}
}

// RunStarted marks a run as in progress.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.RunsInProgress.Inc()
}

// RunFinished records a run's terminal status.
func (m *Metrics) RunFinished(status string) {
	if m == nil {
		return
	}
	m.RunsInProgress.Dec()
	m.RunsTotal.WithLabelValues(status).Inc()
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Item counts one stage item with the given outcome.
func (m *Metrics) Item(stage, outcome string) {
	if m == nil {
		return
	}
	m.StageItems.WithLabelValues(stage, outcome).Inc()
}

// Call counts one external call. Failures are labeled with their
// resilience class.
func (m *Metrics) Call(service string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = string(resilience.Classify(err))
	}
	m.ExternalCalls.WithLabelValues(service, outcome).Inc()
}

// LLMUsage adds token counts and cost.
func (m *Metrics) LLMUsage(input, output int64, costUSD float64) {
	if m == nil {
		return
	}
	m.Tokens.WithLabelValues("input").Add(float64(input))
	m.Tokens.WithLabelValues("output").Add(float64(output))
	if costUSD > 0 {
		m.CostUSD.Add(costUSD)
	}
}

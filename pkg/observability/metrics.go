package observability

import (
	"time"

	"github.com/aretw0/steprelay/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for one relay.
type Metrics struct {
	Published      prometheus.Counter
	Taken          prometheus.Counter
	Outputs        prometheus.Counter
	Errors         prometheus.Counter
	InputRequests  prometheus.Counter
	InputsSupplied prometheus.Counter
	PublishWait    prometheus.Histogram
	LiveTokens     prometheus.Gauge
	Finished       prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Published: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "steprelay_steps_published_total",
			Help: "Total number of snapshots published by the producer",
		}),
		Taken: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "steprelay_steps_taken_total",
			Help: "Total number of snapshots consumed by the observer",
		}),
		Outputs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "steprelay_outputs_total",
			Help: "Total number of output chunks emitted",
		}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "steprelay_errors_total",
			Help: "Total number of error notifications emitted",
		}),
		InputRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "steprelay_input_requests_total",
			Help: "Total number of times the producer blocked for input",
		}),
		InputsSupplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "steprelay_inputs_supplied_total",
			Help: "Total number of input values supplied by the observer",
		}),
		PublishWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "steprelay_publish_wait_seconds",
			Help:    "Time the producer spent blocked on an unconsumed snapshot",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		LiveTokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "steprelay_live_tokens",
			Help: "Number of tokens in the last published snapshot",
		}),
		Finished: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "steprelay_finished",
			Help: "1 once the relay reached its terminal state",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.Published, m.Taken, m.Outputs, m.Errors,
			m.InputRequests, m.InputsSupplied,
			m.PublishWait, m.LiveTokens, m.Finished,
		)
	}
	return m
}

// Hooks returns relay hooks that record into m.
func (m *Metrics) Hooks() domain.RelayHooks {
	return domain.RelayHooks{
		OnPublish: func(s domain.Snapshot, waited time.Duration) {
			m.Published.Inc()
			m.PublishWait.Observe(waited.Seconds())
			m.LiveTokens.Set(float64(len(s.Tokens)))
		},
		OnTake:          func(domain.Snapshot) { m.Taken.Inc() },
		OnOutput:        func(string) { m.Outputs.Inc() },
		OnError:         func(string) { m.Errors.Inc() },
		OnInputRequest:  func() { m.InputRequests.Inc() },
		OnInputSupplied: func(string) { m.InputsSupplied.Inc() },
		OnFinish:        func() { m.Finished.Set(1) },
	}
}

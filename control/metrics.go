// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus collectors for the event loop and the per-connection exchange.

package control

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Exchange outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeStatusError = "status_error"
	OutcomeShortRead   = "short_read"
	OutcomeReadError   = "read_error"
	OutcomeWriteError  = "write_error"
)

// Wakeup reasons.
const (
	WakeEvents      = "events"
	WakeInterrupted = "interrupted"
	WakeShutdown    = "wake"
)

// Metrics groups the server collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	accepted  *prometheus.CounterVec
	exchanges *prometheus.CounterVec
	wakeups   *prometheus.CounterVec
	hangups   *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewMetrics creates and registers all collectors, plus the Go and process
// collectors, on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		accepted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "calcd_accepted_total",
				Help: "Connections accepted, by transport.",
			},
			[]string{"transport"},
		),
		exchanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "calcd_exchanges_total",
				Help: "Finished request/response exchanges, by transport and outcome.",
			},
			[]string{"transport", "outcome"},
		),
		wakeups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "calcd_wait_wakeups_total",
				Help: "Returns from the readiness wait, by reason.",
			},
			[]string{"reason"},
		),
		hangups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "calcd_listener_hangups_total",
				Help: "EPOLLHUP/EPOLLERR reported on a listening socket, by transport.",
			},
			[]string{"transport"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "calcd_exchange_duration_seconds",
			Help:    "Time from accept to close of one exchange.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 10),
		}),
	}
	m.Registry.MustRegister(
		m.accepted, m.exchanges, m.wakeups, m.hangups, m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Accepted counts one accepted connection.
func (m *Metrics) Accepted(transport string) {
	if m == nil {
		return
	}
	m.accepted.WithLabelValues(transport).Inc()
}

// Exchange records one finished exchange.
func (m *Metrics) Exchange(transport, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.exchanges.WithLabelValues(transport, outcome).Inc()
	m.duration.Observe(d.Seconds())
}

// Wakeup records one return from the readiness wait.
func (m *Metrics) Wakeup(reason string) {
	if m == nil {
		return
	}
	m.wakeups.WithLabelValues(reason).Inc()
}

// Hangup counts one error or hangup condition on a listener.
func (m *Metrics) Hangup(transport string) {
	if m == nil {
		return
	}
	m.hangups.WithLabelValues(transport).Inc()
}

// HangupCount returns the hangups counter for transport.
func (m *Metrics) HangupCount(transport string) prometheus.Counter {
	return m.hangups.WithLabelValues(transport)
}

// ExchangeCount returns the current exchanges counter for one label pair.
func (m *Metrics) ExchangeCount(transport, outcome string) prometheus.Counter {
	return m.exchanges.WithLabelValues(transport, outcome)
}

// WakeupCount returns the wakeups counter for reason.
func (m *Metrics) WakeupCount(reason string) prometheus.Counter {
	return m.wakeups.WithLabelValues(reason)
}

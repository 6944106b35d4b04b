// Package metrics collects Prometheus metrics for the dispatcher and the
// broadcast hub.
//
// All recording methods are nil-safe: a nil *Metrics records nothing. This
// lets the rest of the codebase call recording methods unconditionally and
// keeps metrics strictly opt-in for embedders.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for a single App instance.
type Metrics struct {
	dispatches      *prometheus.CounterVec
	handlerFailures prometheus.Counter
	activeStreams   prometheus.Gauge
	streamsOpened   prometheus.Counter
	broadcasts      prometheus.Counter
	droppedFrames   prometheus.Counter
	drained         prometheus.Counter
}

// New creates the collectors and registers them with reg.
//
// Registration panics on duplicate collectors, so callers should create at
// most one Metrics per registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hypercast",
			Name:      "dispatches_total",
			Help:      "Requests dispatched, labeled by response status code.",
		}, []string{"code"}),
		handlerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hypercast",
			Name:      "handler_failures_total",
			Help:      "Handler errors and panics converted to 500 responses.",
		}),
		activeStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hypercast",
			Name:      "active_streams",
			Help:      "Streaming connections currently registered in the hub.",
		}),
		streamsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hypercast",
			Name:      "streams_opened_total",
			Help:      "Streaming connections opened since process start.",
		}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hypercast",
			Name:      "broadcasts_total",
			Help:      "Broadcast calls that reached at least one connection.",
		}),
		droppedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hypercast",
			Name:      "dropped_frames_total",
			Help:      "Frames dropped because a connection's buffer was full.",
		}),
		drained: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hypercast",
			Name:      "drained_connections_total",
			Help:      "Connections force-closed during shutdown drain.",
		}),
	}

	reg.MustRegister(
		m.dispatches,
		m.handlerFailures,
		m.activeStreams,
		m.streamsOpened,
		m.broadcasts,
		m.droppedFrames,
		m.drained,
	)
	return m
}

// DispatchServed records one dispatched request and its response status.
func (m *Metrics) DispatchServed(status int) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(strconv.Itoa(status)).Inc()
}

// HandlerFailed records a handler error or panic.
func (m *Metrics) HandlerFailed() {
	if m == nil {
		return
	}
	m.handlerFailures.Inc()
}

// StreamOpened records a new streaming connection.
func (m *Metrics) StreamOpened() {
	if m == nil {
		return
	}
	m.streamsOpened.Inc()
	m.activeStreams.Inc()
}

// StreamClosed records a streaming connection leaving the hub.
func (m *Metrics) StreamClosed() {
	if m == nil {
		return
	}
	m.activeStreams.Dec()
}

// BroadcastSent records a broadcast that reached at least one connection.
func (m *Metrics) BroadcastSent() {
	if m == nil {
		return
	}
	m.broadcasts.Inc()
}

// FrameDropped records a frame dropped for a slow connection.
func (m *Metrics) FrameDropped() {
	if m == nil {
		return
	}
	m.droppedFrames.Inc()
}

// ConnectionDrained records a connection closed by shutdown drain.
func (m *Metrics) ConnectionDrained() {
	if m == nil {
		return
	}
	m.drained.Inc()
}

package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APICollector bundles Prometheus metrics for the remote simulation API
// client and provides a ready-to-use /metrics handler.
type APICollector struct {
	gatherer prometheus.Gatherer

	Requests  *prometheus.CounterVec
	Durations *prometheus.HistogramVec

	TickSeconds     prometheus.Counter
	TrackedMessages prometheus.Gauge
}

// NewAPICollector registers client Prometheus metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewAPICollector(reg prometheus.Registerer) (*APICollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "simapi_requests_total",
		Help: "Total number of remote simulation API calls, labeled by operation and outcome code.",
	}, []string{"op", "code"})
	requests, err := registerCounterVec(reg, requests, "simapi_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "simapi_request_duration_seconds",
		Help:    "Remote simulation API call latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"op"})
	durations, err = registerHistogramVec(reg, durations, "simapi_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	tickSeconds, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simapi_tick_seconds_total",
		Help: "Total simulation seconds advanced through tick calls.",
	}), "simapi_tick_seconds_total")
	if err != nil {
		return nil, err
	}

	tracked, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "simapi_tracked_messages",
		Help: "Current number of messages registered for telemetry tracking.",
	}), "simapi_tracked_messages")
	if err != nil {
		return nil, err
	}

	return &APICollector{
		gatherer:        gatherer,
		Requests:        requests,
		Durations:       durations,
		TickSeconds:     tickSeconds,
		TrackedMessages: tracked,
	}, nil
}

// ObserveCall records one completed API call. A nil collector is a no-op so
// the client can run unmetered.
func (c *APICollector) ObserveCall(op, code string, seconds float64) {
	if c == nil {
		return
	}
	if c.Requests != nil {
		c.Requests.WithLabelValues(op, code).Inc()
	}
	if c.Durations != nil {
		c.Durations.WithLabelValues(op).Observe(seconds)
	}
}

// AddTickSeconds accumulates simulation time advanced by tick execution.
func (c *APICollector) AddTickSeconds(seconds float64) {
	if c == nil || c.TickSeconds == nil {
		return
	}
	c.TickSeconds.Add(seconds)
}

// IncTrackedMessages bumps the tracked-message gauge.
func (c *APICollector) IncTrackedMessages() {
	if c == nil || c.TrackedMessages == nil {
		return
	}
	c.TrackedMessages.Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *APICollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}

func registerGauge(reg prometheus.Registerer, g prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return g, nil
}

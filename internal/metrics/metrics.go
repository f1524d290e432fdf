// Package metrics exposes Prometheus collectors for the gateway API, the
// outbox dispatcher and every Exotel round-trip.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/oggyb/exotel-gateway/pkg/exotel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	reg *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	ExotelRequests *prometheus.CounterVec
	ExotelDuration *prometheus.HistogramVec

	OutboxResults *prometheus.CounterVec
	BatchSize     prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "http_requests_total", Help: "Count of HTTP requests."},
			[]string{"handler", "method", "code"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms..~10s
			},
			[]string{"handler", "method"},
		),
		ExotelRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "exotel_requests_total", Help: "Exotel API calls by operation and outcome."},
			[]string{"op", "outcome"}, // ok | rate_limited | provider_error | decode_error | transport_error
		),
		ExotelDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "exotel_request_duration_seconds",
				Help:    "Exotel API latency.",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms..~40s
			},
			[]string{"op"},
		),
		OutboxResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "outbox_messages_total", Help: "Outbox send outcomes."},
			[]string{"result"}, // sent | failed | retry
		),
		BatchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "outbox_batch_size",
				Help:    "Pending messages picked up per batch.",
				Buckets: prometheus.LinearBuckets(0, 10, 11), // 0,10,...,100
			},
		),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests, m.HTTPDuration,
		m.ExotelRequests, m.ExotelDuration,
		m.OutboxResults, m.BatchSize,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Observe implements exotel.Observer.
func (m *Metrics) Observe(op string, status int, err error, elapsed time.Duration) {
	m.ExotelRequests.WithLabelValues(op, Outcome(status, err)).Inc()
	m.ExotelDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveHTTP records one served API request.
func (m *Metrics) ObserveHTTP(handler, method string, code int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(handler, method, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(handler, method).Observe(elapsed.Seconds())
}

// Outcome turns an Exotel round-trip into a low-cardinality label.
func Outcome(status int, err error) string {
	var (
		perr *exotel.ProviderError
		derr *exotel.DecodeError
	)
	switch {
	case err == nil:
		return "ok"
	case exotel.IsRateLimited(err):
		return "rate_limited"
	case errors.As(err, &perr):
		return "provider_error"
	case errors.As(err, &derr):
		return "decode_error"
	case status == 0:
		return "transport_error"
	default:
		return "error"
	}
}

var _ exotel.Observer = (*Metrics)(nil)

// ObserveOutbox counts one processed outbox message (sent, failed or retry).
func (m *Metrics) ObserveOutbox(result string) {
	m.OutboxResults.WithLabelValues(result).Inc()
}

// ObserveBatch records how many pending messages a batch picked up.
func (m *Metrics) ObserveBatch(size int) {
	m.BatchSize.Observe(float64(size))
}

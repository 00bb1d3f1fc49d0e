package http

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector records Prometheus metrics for calls. A nil collector is
// valid and records nothing.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
	timeoutsTotal    *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
}

// NewMetricsCollector registers the collector's metrics with reg, or with
// the default registerer when reg is nil.
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &MetricsCollector{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lither_requests_total",
				Help: "Total number of calls that reached a response",
			},
			[]string{"method", "status_code"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lither_request_duration_seconds",
				Help:    "Duration of calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		requestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lither_requests_in_flight",
				Help: "Number of calls currently in flight",
			},
			[]string{"method"},
		),
		timeoutsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lither_timeouts_total",
				Help: "Total number of calls whose timeout fired",
			},
			[]string{"method"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lither_errors_total",
				Help: "Total number of failed calls by error type",
			},
			[]string{"type", "method"},
		),
	}
}

// RecordStart increments the in-flight gauge.
func (mc *MetricsCollector) RecordStart(method string) {
	if mc == nil {
		return
	}
	mc.requestsInFlight.WithLabelValues(method).Inc()
}

// RecordEnd decrements the in-flight gauge and observes the duration.
func (mc *MetricsCollector) RecordEnd(method string, duration time.Duration) {
	if mc == nil {
		return
	}
	mc.requestsInFlight.WithLabelValues(method).Dec()
	mc.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordResponse counts a call that produced a status.
func (mc *MetricsCollector) RecordResponse(method string, status int) {
	if mc == nil {
		return
	}
	mc.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// RecordError counts a failed call. Timeouts are also counted separately.
func (mc *MetricsCollector) RecordError(method string, errType ErrorType, timedOut bool) {
	if mc == nil {
		return
	}
	mc.errorsTotal.WithLabelValues(string(errType), method).Inc()
	if timedOut {
		mc.timeoutsTotal.WithLabelValues(method).Inc()
	}
}

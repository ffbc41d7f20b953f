package service

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the engine.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	admissionTotal    *prometheus.CounterVec
	admissionDuration prometheus.Histogram
	recomputeTotal    *prometheus.CounterVec
	removalTotal      *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	admissionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admissions_total",
		Help: "Admission attempts by outcome",
	}, []string{"outcome"})

	admissionDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "admission_duration_seconds",
		Help:    "End-to-end duration of admission transactions, including lock waits",
		Buckets: prometheus.DefBuckets,
	})

	recomputeTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grade_recompute_total",
		Help: "Grade recompute operations by result",
	}, []string{"result"})

	removalTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "student_removals_total",
		Help: "Student removal attempts by outcome",
	}, []string{"outcome"})

	registry.MustRegister(requestDuration, requestTotal, admissionTotal, admissionDuration, recomputeTotal, removalTotal)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		admissionTotal:    admissionTotal,
		admissionDuration: admissionDuration,
		recomputeTotal:    recomputeTotal,
		removalTotal:      removalTotal,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := prometheus.Labels{"method": method, "path": path, "status": httpStatusLabel(status)}
	s.requestDuration.With(labels).Observe(duration.Seconds())
	s.requestTotal.With(labels).Inc()
}

// ObserveAdmission records one admission attempt.
func (s *MetricsService) ObserveAdmission(outcome string, duration time.Duration) {
	s.admissionTotal.WithLabelValues(outcome).Inc()
	s.admissionDuration.Observe(duration.Seconds())
}

// ObserveRecompute records one grade recompute result.
func (s *MetricsService) ObserveRecompute(result string) {
	s.recomputeTotal.WithLabelValues(result).Inc()
}

// ObserveRemoval records one student removal attempt.
func (s *MetricsService) ObserveRemoval(outcome string) {
	s.removalTotal.WithLabelValues(outcome).Inc()
}

func httpStatusLabel(status int) string {
	switch {
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

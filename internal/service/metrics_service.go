package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the scheduling
// core: HTTP request metrics plus domain counters for conflict detection and
// assignment reconciliation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	conflictsTotal  *prometheus.CounterVec
	reconciliations *prometheus.CounterVec
	saveFailures    prometheus.Counter
	assignmentCount prometheus.Gauge
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

	conflictsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_conflicts_total",
		Help: "Total schedule conflicts detected, by kind",
	}, []string{"kind"})

	reconciliations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_reconciliations_total",
		Help: "Total assignment reconciliation runs, by outcome",
	}, []string{"outcome"})

	saveFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assignment_history_save_failures_total",
		Help: "Total failed assignment history writes",
	})

	assignmentCount := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "teaching_assignments_current",
		Help: "Size of the current reconciled assignment set",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, conflictsTotal, reconciliations, saveFailures, assignmentCount, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		conflictsTotal:  conflictsTotal,
		reconciliations: reconciliations,
		saveFailures:    saveFailures,
		assignmentCount: assignmentCount,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveConflict counts a detected schedule conflict.
func (m *MetricsService) ObserveConflict(kind string) {
	if m == nil {
		return
	}
	m.conflictsTotal.WithLabelValues(kind).Inc()
}

// ObserveReconciliation records a reconciliation run and the resulting set size.
func (m *MetricsService) ObserveReconciliation(changed bool, size int) {
	if m == nil {
		return
	}
	outcome := "unchanged"
	if changed {
		outcome = "changed"
	}
	m.reconciliations.WithLabelValues(outcome).Inc()
	m.assignmentCount.Set(float64(size))
}

// ObserveHistorySaveFailure counts a failed history write.
func (m *MetricsService) ObserveHistorySaveFailure() {
	if m == nil {
		return
	}
	m.saveFailures.Inc()
}

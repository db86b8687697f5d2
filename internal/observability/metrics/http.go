package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inovadocs/trade-doc-review/internal/core/domain"
)

const namespace = "tdr"

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	reviewsTotal       *prometheus.CounterVec
	findingsTotal      *prometheus.CounterVec
	autoFixTotal       *prometheus.CounterVec
	reportsTotal       *prometheus.CounterVec
	summaryLengthChars *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	reviewsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "review",
			Name:      "reviews_total",
			Help:      "Document reviews by document type and outcome.",
		},
		[]string{"service", "doc_type", "outcome"},
	)
	findingsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "review",
			Name:      "findings_total",
			Help:      "Compliance findings emitted by severity.",
		},
		[]string{"service", "severity"},
	)
	autoFixTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "review",
			Name:      "autofix_applied_total",
			Help:      "Auto-fix plan items applied by option.",
		},
		[]string{"service", "option"},
	)
	reportsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "review",
			Name:      "reports_exported_total",
			Help:      "Report exports by outcome.",
		},
		[]string{"service", "outcome"},
	)
	summaryLengthChars := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "review",
			Name:      "summary_length_chars",
			Help:      "Length of generated text summaries in code points.",
			Buckets:   []float64{0, 60, 120, 240, 360, 480, 520},
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		reviewsTotal,
		findingsTotal,
		autoFixTotal,
		reportsTotal,
		summaryLengthChars,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		reviewsTotal:       reviewsTotal,
		findingsTotal:      findingsTotal,
		autoFixTotal:       autoFixTotal,
		reportsTotal:       reportsTotal,
		summaryLengthChars: summaryLengthChars,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath folds document ids and report keys so label cardinality stays bounded.
func normalizePath(path string) string {
	if strings.HasPrefix(path, "/v1/reports/") {
		return "/v1/reports/{key}"
	}
	rest, ok := strings.CutPrefix(path, "/v1/documents/")
	if !ok {
		return path
	}
	if _, action, found := strings.Cut(rest, "/"); found {
		return "/v1/documents/{document_id}/" + action
	}
	return "/v1/documents/{document_id}"
}

// RecordReview counts one review and its findings. err selects the outcome label.
func (m *HTTPServerMetrics) RecordReview(service string, docType domain.DocType, findings []domain.ComplianceFinding, err error) {
	m.reviewsTotal.WithLabelValues(service, docTypeLabel(docType), domain.KindName(err)).Inc()
	for severity, n := range domain.CountBySeverity(findings) {
		m.findingsTotal.WithLabelValues(service, string(severity)).Add(float64(n))
	}
}

func (m *HTTPServerMetrics) RecordAutoFix(service string, plan []domain.AutoPlanItem) {
	for _, item := range plan {
		option := string(item.Option)
		if option == "" {
			option = "unknown"
		}
		m.autoFixTotal.WithLabelValues(service, option).Inc()
	}
}

func (m *HTTPServerMetrics) RecordReportExport(service string, err error) {
	m.reportsTotal.WithLabelValues(service, domain.KindName(err)).Inc()
}

func (m *HTTPServerMetrics) ObserveSummaryLength(service string, codePoints int) {
	m.summaryLengthChars.WithLabelValues(service).Observe(float64(codePoints))
}

func docTypeLabel(docType domain.DocType) string {
	switch {
	case docType == "":
		return "unknown"
	case docType.Known():
		return string(docType)
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Scan metrics
	ScanRequests        *prometheus.CounterVec
	AnalysisDuration    *prometheus.HistogramVec
	VulnerabilitiesSeen *prometheus.CounterVec
	EventSubscribers    prometheus.Gauge

	// Billing metrics
	CheckoutSessions *prometheus.CounterVec
	WebhookEvents    *prometheus.CounterVec
	CodeValidations  *prometheus.CounterVec

	// Upstream metrics
	UpstreamCalls    *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
}

// Config holds metrics configuration
type Config struct {
	Namespace string `json:"namespace"`
	Enabled   bool   `json:"enabled"`
}

// DefaultConfig returns default metrics configuration
func DefaultConfig() *Config {
	return &Config{
		Namespace: "securex",
		Enabled:   true,
	}
}

// NewMetrics creates and registers all Prometheus metrics on a private registry.
// A disabled config yields a Metrics whose recorders are no-ops.
func NewMetrics(config *Config) *Metrics {
	if config == nil {
		config = DefaultConfig()
	}

	if !config.Enabled {
		return &Metrics{}
	}

	ns := config.Namespace
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: ns,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),
		ScanRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "scan_requests_total",
				Help:      "Scan requests by type and outcome (accepted, rejected, upgrade_required)",
			},
			[]string{"scan_type", "outcome"},
		),
		AnalysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "analysis_duration_seconds",
				Help:      "Time from analysis start to the terminal status write",
				Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"scan_type", "status"},
		),
		VulnerabilitiesSeen: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "vulnerabilities_total",
				Help:      "Vulnerabilities reported by completed analyses",
			},
			[]string{"severity"},
		),
		EventSubscribers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: ns,
				Name:      "scan_event_subscribers",
				Help:      "Open scan event streams",
			},
		),
		CheckoutSessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "checkout_sessions_total",
				Help:      "Checkout sessions created, by discount source",
			},
			[]string{"discount"},
		),
		WebhookEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "webhook_events_total",
				Help:      "Payment webhook deliveries by event type and outcome",
			},
			[]string{"event_type", "outcome"},
		),
		CodeValidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "code_validations_total",
				Help:      "Discount and plan code checks by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		UpstreamCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "upstream_calls_total",
				Help:      "Calls to external services",
			},
			[]string{"service", "outcome"},
		),
		UpstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "upstream_call_duration_seconds",
				Help:      "External service call latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.ScanRequests,
		m.AnalysisDuration,
		m.VulnerabilitiesSeen,
		m.EventSubscribers,
		m.CheckoutSessions,
		m.WebhookEvents,
		m.CodeValidations,
		m.UpstreamCalls,
		m.UpstreamDuration,
	)

	return m
}

// RecordHTTPRequest records HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.HTTPRequestsTotal == nil {
		return
	}

	statusStr := strconv.Itoa(statusCode)
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration.Seconds())
}

// RecordScanRequest counts a scan request outcome
func (m *Metrics) RecordScanRequest(scanType, outcome string) {
	if m == nil || m.ScanRequests == nil {
		return
	}
	m.ScanRequests.WithLabelValues(scanType, outcome).Inc()
}

// RecordAnalysis records a finished analysis and its findings by severity
func (m *Metrics) RecordAnalysis(scanType, status string, duration time.Duration, bySeverity map[string]int) {
	if m == nil || m.AnalysisDuration == nil {
		return
	}
	m.AnalysisDuration.WithLabelValues(scanType, status).Observe(duration.Seconds())
	for severity, n := range bySeverity {
		if n > 0 {
			m.VulnerabilitiesSeen.WithLabelValues(severity).Add(float64(n))
		}
	}
}

// SubscriberOpened and SubscriberClosed track open scan event streams
func (m *Metrics) SubscriberOpened() {
	if m != nil && m.EventSubscribers != nil {
		m.EventSubscribers.Inc()
	}
}

func (m *Metrics) SubscriberClosed() {
	if m != nil && m.EventSubscribers != nil {
		m.EventSubscribers.Dec()
	}
}

// RecordCheckout counts a created checkout session
func (m *Metrics) RecordCheckout(discount string) {
	if m == nil || m.CheckoutSessions == nil {
		return
	}
	m.CheckoutSessions.WithLabelValues(discount).Inc()
}

// RecordWebhook counts a webhook delivery
func (m *Metrics) RecordWebhook(eventType, outcome string) {
	if m == nil || m.WebhookEvents == nil {
		return
	}
	m.WebhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// RecordCodeValidation counts a code check
func (m *Metrics) RecordCodeValidation(source, outcome string) {
	if m == nil || m.CodeValidations == nil {
		return
	}
	m.CodeValidations.WithLabelValues(source, outcome).Inc()
}

// RecordUpstreamCall records an external service call
func (m *Metrics) RecordUpstreamCall(service string, err error, duration time.Duration) {
	if m == nil || m.UpstreamCalls == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.UpstreamCalls.WithLabelValues(service, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// PrometheusMiddleware creates a middleware for Prometheus metrics collection
func (m *Metrics) PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil || m.HTTPRequestsTotal == nil {
			c.Next()
			return
		}

		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// Handler returns the Prometheus metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

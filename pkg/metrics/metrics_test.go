package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := NewMetrics(DefaultConfig())

	m.RecordScanRequest("github", "upgrade_required")
	m.RecordScanRequest("github", "upgrade_required")
	m.RecordAnalysis("file", "completed", 3*time.Second, map[string]int{"critical": 2, "low": 0})
	m.RecordUpstreamCall("ai-gateway", errors.New("502"), time.Second)
	m.RecordWebhook("checkout.session.completed", "processed")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.ScanRequests.WithLabelValues("github", "upgrade_required")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.VulnerabilitiesSeen.WithLabelValues("critical")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.UpstreamCalls.WithLabelValues("ai-gateway", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.WebhookEvents.WithLabelValues("checkout.session.completed", "processed")))
}

func TestDisabledMetricsAreNoops(t *testing.T) {
	m := NewMetrics(&Config{Enabled: false})

	assert.NotPanics(t, func() {
		m.RecordScanRequest("url", "accepted")
		m.RecordCheckout("none")
		m.SubscriberOpened()
		m.SubscriberClosed()
	})

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.RecordCodeValidation("registry", "valid") })
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(DefaultConfig())

	router := gin.New()
	router.Use(m.PrometheusMiddleware())
	router.GET("/api/v1/regions", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/regions", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/regions", "200")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "securex_http_requests_total")
}

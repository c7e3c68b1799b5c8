package obs

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMetrics_HandlerServesRegisteredCollectors(t *testing.T) {
	m := NewMetrics()

	router := gin.New()
	router.GET("/metrics", m.Handler())

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestGinMiddleware_RecordsRequestCountAndDuration(t *testing.T) {
	m := NewMetrics()

	router := gin.New()
	router.Use(GinMiddleware("test-svc"))
	router.GET("/ping", func(c *gin.Context) { c.Status(200) })
	router.GET("/metrics", m.Handler())

	req := httptest.NewRequest("GET", "/ping", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	metricsReq := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, metricsReq)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `service="test-svc"`))
}

func TestRecordCacheOperation_TracksSuccessAndError(t *testing.T) {
	before := testutil.ToFloat64(CacheOperationsTotal.WithLabelValues("get", "success"))

	RecordCacheOperation("get", nil)

	after := testutil.ToFloat64(CacheOperationsTotal.WithLabelValues("get", "success"))
	assert.Equal(t, before+1, after)

	errBefore := testutil.ToFloat64(CacheOperationsTotal.WithLabelValues("get", "error"))
	RecordCacheOperation("get", assert.AnError)
	errAfter := testutil.ToFloat64(CacheOperationsTotal.WithLabelValues("get", "error"))
	assert.Equal(t, errBefore+1, errAfter)
}

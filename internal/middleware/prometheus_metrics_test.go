package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/minglehq/backend/internal/logger"
	"github.com/minglehq/backend/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	_ = logger.Initialize("error", "")
	os.Exit(m.Run())
}

func newMetricsRouter() *gin.Engine {
	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET("/ok", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/boom", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})
	r.GET("/teapot", func(c *gin.Context) {
		c.Status(http.StatusTeapot)
	})
	return r
}

func TestMetricsMiddlewareCountsRequests(t *testing.T) {
	r := newMetricsRouter()
	counter := metrics.Get().HTTPRequestsTotal.WithLabelValues("GET", "/ok", "204")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestMetricsMiddlewareCountsServerErrors(t *testing.T) {
	r := newMetricsRouter()
	counter := metrics.Get().ErrorsTotal.WithLabelValues("server_error", "/boom")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestMetricsMiddlewareCountsClientErrors(t *testing.T) {
	r := newMetricsRouter()
	counter := metrics.Get().ErrorsTotal.WithLabelValues("client_error", "/teapot")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/teapot", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRecordRateLimitExceeded(t *testing.T) {
	counter := metrics.Get().RateLimitExceededTotal.WithLabelValues("/api/v1/posts", "POST")
	before := testutil.ToFloat64(counter)

	RecordRateLimitExceeded("/api/v1/posts", "POST")

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRequestPathFallsBackToRawURL(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/no/such/route", nil)

	assert.Equal(t, "/no/such/route", requestPath(c))
}

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/erp/ordercalc/internal/infrastructure/telemetry"
	"github.com/erp/ordercalc/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestProfiling_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Profiling(middleware.ProfilingConfig{Enabled: false}))

	var labeled bool
	r.GET("/test", func(c *gin.Context) {
		_, labeled = pprof.Label(c.Request.Context(), telemetry.ProfilingLabelRoute)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, labeled)
}

func TestProfiling_LabelsRoutePattern(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Profiling(middleware.DefaultProfilingConfig()))

	var route, method string
	r.GET("/api/v1/orders/:id/difference", func(c *gin.Context) {
		route, _ = pprof.Label(c.Request.Context(), telemetry.ProfilingLabelRoute)
		method, _ = pprof.Label(c.Request.Context(), telemetry.ProfilingLabelMethod)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders/1234/difference", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/api/v1/orders/:id/difference", route)
	assert.Equal(t, http.MethodGet, method)
}

func TestProfiling_SkipsHealth(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Profiling(middleware.DefaultProfilingConfig()))

	var labeled bool
	r.GET("/health", func(c *gin.Context) {
		_, labeled = pprof.Label(c.Request.Context(), telemetry.ProfilingLabelRoute)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, labeled)
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.MovementAppended("SALE")
	r.MovementAppended("SALE")
	r.RegisterClosed("shortage", decimal.NewFromInt(-5000))
	r.Retried("append_movement")
	r.CacheLookup(true)
	r.CacheLookup(false)
	r.Recommended(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.movements.WithLabelValues("SALE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.closes.WithLabelValues("shortage")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.retries.WithLabelValues("append_movement")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.advice.WithLabelValues("true")))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.MovementAppended("SALE")
		r.RegisterClosed("balanced", decimal.Zero)
		r.ShiftTransferred()
		r.Audited()
	})
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRecorder(prometheus.NewRegistry())
	engine := gin.New()
	engine.Use(r.GinMiddleware())
	engine.GET("/registers/:registerID", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/registers/abc", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "/registers/:registerID", "200")))
}

// Package metrics exposes the prometheus collectors of the ledger.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Recorder groups the ledger collectors. A nil *Recorder records nothing.
type Recorder struct {
	movements     *prometheus.CounterVec
	closes        *prometheus.CounterVec
	discrepancy   prometheus.Histogram
	transfers     prometheus.Counter
	advice        *prometheus.CounterVec
	audits        prometheus.Counter
	retries       *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cashledger",
			Name:      "movements_appended_total",
			Help:      "Movements appended to register logs, by type.",
		}, []string{"type"}),
		closes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cashledger",
			Name:      "registers_closed_total",
			Help:      "Registers closed, by reconciliation outcome.",
		}, []string{"outcome"}),
		discrepancy: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cashledger",
			Name:      "close_discrepancy_abs",
			Help:      "Absolute difference between declared and calculated balance at close.",
			Buckets:   []float64{0, 1, 10, 100, 1000, 10000, 100000},
		}),
		transfers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cashledger",
			Name:      "shift_transfers_total",
			Help:      "Completed shift transfers.",
		}),
		advice: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cashledger",
			Name:      "advisor_recommendations_total",
			Help:      "Advisor answers, by whether more than one register was a candidate.",
		}, []string{"balanced"}),
		audits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cashledger",
			Name:      "audits_total",
			Help:      "Consolidated audits produced.",
		}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cashledger",
			Name:      "operation_retries_total",
			Help:      "Retries after transient storage or lock failures.",
		}, []string{"operation"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cashledger",
			Name:      "balance_cache_lookups_total",
			Help:      "Balance cache lookups, by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cashledger",
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route and status.",
		}, []string{"method", "route", "status"}),
		httpDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cashledger",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(r.movements, r.closes, r.discrepancy, r.transfers, r.advice, r.audits,
		r.retries, r.cacheLookups, r.httpRequests, r.httpDurations)
	return r
}

func (r *Recorder) MovementAppended(movementType string) {
	if r == nil {
		return
	}
	r.movements.WithLabelValues(movementType).Inc()
}

func (r *Recorder) RegisterClosed(outcome string, difference decimal.Decimal) {
	if r == nil {
		return
	}
	r.closes.WithLabelValues(outcome).Inc()
	r.discrepancy.Observe(difference.Abs().InexactFloat64())
}

func (r *Recorder) ShiftTransferred() {
	if r == nil {
		return
	}
	r.transfers.Inc()
}

func (r *Recorder) Recommended(balanced bool) {
	if r == nil {
		return
	}
	r.advice.WithLabelValues(strconv.FormatBool(balanced)).Inc()
}

func (r *Recorder) Audited() {
	if r == nil {
		return
	}
	r.audits.Inc()
}

func (r *Recorder) Retried(operation string) {
	if r == nil {
		return
	}
	r.retries.WithLabelValues(operation).Inc()
}

func (r *Recorder) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// GinMiddleware records request counts and latencies by route template.
func (r *Recorder) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		r.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		r.httpDurations.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

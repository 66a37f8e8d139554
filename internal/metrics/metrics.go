package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reviewledger"

// Metrics holds the HTTP and domain instruments.
type Metrics struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	jobsCreated    prometheus.Counter
	statusChanges  *prometheus.CounterVec
	incomeRecorded *prometheus.CounterVec
	taxSummaries   *prometheus.CounterVec
	uploads        prometheus.Counter
	uploadBytes    prometheus.Counter
}

// New creates the instruments and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		jobsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "review_jobs_created_total",
			Help:      "Review jobs created.",
		}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "review_job_status_changes_total",
			Help:      "Review job status transitions by target status.",
		}, []string{"status"}),
		incomeRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "income_records_written_total",
			Help:      "Income records created or updated, by currency.",
		}, []string{"currency"}),
		taxSummaries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tax_summaries_total",
			Help:      "Tax summaries served, by cache outcome.",
		}, []string{"source"}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Files stored through the upload endpoint.",
		}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes stored through the upload endpoint.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.httpRequests, m.httpDuration, m.jobsCreated, m.statusChanges,
			m.incomeRecorded, m.taxSummaries, m.uploads, m.uploadBytes,
		)
	}
	return m
}

// GinMiddleware records request count and latency per matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) RecordJobCreated() {
	if m == nil {
		return
	}
	m.jobsCreated.Inc()
}

func (m *Metrics) RecordStatusChange(status string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordIncome(currency string) {
	if m == nil {
		return
	}
	m.incomeRecorded.WithLabelValues(currency).Inc()
}

// RecordTaxSummary counts a summary served from "cache" or "computed".
func (m *Metrics) RecordTaxSummary(source string) {
	if m == nil {
		return
	}
	m.taxSummaries.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordUpload(size int64) {
	if m == nil {
		return
	}
	m.uploads.Inc()
	m.uploadBytes.Add(float64(size))
}

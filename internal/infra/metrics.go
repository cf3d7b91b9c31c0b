package infra

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Uploads         *prometheus.CounterVec
	UploadDuration  *prometheus.HistogramVec
}

// NewMetrics registers the service collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blob_uploads_total",
			Help: "Cover image uploads by backend and result.",
		}, []string{"backend", "result"}),
		UploadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blob_upload_duration_seconds",
			Help:    "Cover image upload latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend"}),
	}
	reg.MustRegister(m.Requests, m.RequestDuration, m.Uploads, m.UploadDuration)
	return m
}

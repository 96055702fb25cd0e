package httpx

import (
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/metricsx"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	histogramBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}
)

func (r *Router) initMetrics(reg prometheus.Registerer) error {
	var err error
	r.requestTotal, err = metricsx.Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gophdiary",
		Subsystem: "api",
		Name:      "http_requests_total",
		Help:      "Count of processed HTTP requests",
	}, []string{"method", "route", "status"}))
	if err != nil {
		return err
	}

	r.requestLatency, err = metricsx.Register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gophdiary",
		Subsystem: "api",
		Name:      "http_request_duration_seconds",
		Help:      "Latency distribution of HTTP handlers",
		Buckets:   histogramBuckets,
	}, []string{"method", "route", "status"}))
	if err != nil {
		return err
	}

	r.rateLimitHits, err = metricsx.Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gophdiary",
		Subsystem: "api",
		Name:      "rate_limit_hits_total",
		Help:      "Number of rate-limited responses",
	}, []string{"route", "key"}))
	return err
}

func (r *Router) recordRequestMetrics(method, route string, status int, duration time.Duration) {
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	r.requestTotal.With(labels).Inc()
	r.requestLatency.With(labels).Observe(duration.Seconds())
}

func (r *Router) recordRateLimitHit(route, key string) {
	r.rateLimitHits.With(prometheus.Labels{"route": route, "key": key}).Inc()
}

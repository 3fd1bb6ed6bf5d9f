// Package metrics exposes Prometheus request metrics for a keel application.
package metrics

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/toyz/keel/pkg/keel"
)

// Collector holds the request metrics of one application
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge
}

// NewCollector creates a collector with its own registry. Go runtime and
// process collectors are registered alongside the request metrics.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests being served",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.HTTPInFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Register adds application metrics to the registry
func (c *Collector) Register(collectors ...prometheus.Collector) error {
	for _, col := range collectors {
		if err := c.registry.Register(col); err != nil {
			return err
		}
	}
	return nil
}

// RecordRequest records one finished request
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Middleware records every request. Routes are labelled with their declared
// path, not the request path.
func (c *Collector) Middleware() keel.MiddlewareFunc {
	return func(next keel.HandlerFunc) keel.HandlerFunc {
		return func(rc keel.RequestContext) error {
			start := time.Now()
			c.HTTPInFlight.Inc()
			defer c.HTTPInFlight.Dec()

			err := next(rc)

			route := "unmatched"
			if info, ok := keel.CurrentRoute(rc); ok {
				route = info.Path.Raw()
			}
			// handler errors are already written by the time module middleware
			// returns; err is only set when writing the error failed
			status := rc.Response().Status()
			if err != nil {
				status = keel.StatusCodeOf(err)
			}
			c.RecordRequest(rc.Method(), route, status, time.Since(start))
			return err
		}
	}
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() keel.HandlerFunc {
	h := promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
	return func(rc keel.RequestContext) error {
		req, err := http.NewRequestWithContext(rc.Context(), http.MethodGet, rc.Path(), nil)
		if err != nil {
			return err
		}
		if accept := rc.Request().Header("Accept"); accept != "" {
			req.Header.Set("Accept", accept)
		}
		w := &bufferedResponse{header: make(http.Header), status: http.StatusOK}
		h.ServeHTTP(w, req)
		for key, values := range w.header {
			if key == "Content-Type" || len(values) == 0 {
				continue
			}
			rc.Response().SetHeader(key, values[0])
		}
		return rc.Response().Blob(w.status, w.header.Get("Content-Type"), w.body.Bytes())
	}
}

// bufferedResponse collects promhttp output so it can be written through any adapter
type bufferedResponse struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func (w *bufferedResponse) Header() http.Header {
	return w.header
}

func (w *bufferedResponse) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

func (w *bufferedResponse) WriteHeader(code int) {
	w.status = code
}

// Package metrics exposes Prometheus instrumentation for the HTTP surface,
// the key-value store and login attempts.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/curasync/ehr/internal/platform/kv"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	storeOps      *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
	loginAttempts *prometheus.CounterVec
	mutations     *prometheus.CounterVec
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curasync_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "curasync_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		storeOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curasync_store_operations_total",
				Help: "Total number of key-value store operations",
			},
			[]string{"op", "result"},
		),
		storeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "curasync_store_operation_duration_seconds",
				Help:    "Duration of key-value store operations in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"op"},
		),
		loginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curasync_login_attempts_total",
				Help: "Total number of login attempts",
			},
			[]string{"status"},
		),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curasync_mutations_total",
				Help: "Total number of write requests by collection and action",
			},
			[]string{"collection", "action"},
		),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.storeOps,
		m.storeDuration,
		m.loginAttempts,
		m.mutations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Middleware records request counts and latencies labelled by route template.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = 500
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// LoginAttempt counts a login by outcome.
func (m *Metrics) LoginAttempt(success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	m.loginAttempts.WithLabelValues(status).Inc()
}

// Mutation counts a write against a collection.
func (m *Metrics) Mutation(collection, action string) {
	m.mutations.WithLabelValues(collection, action).Inc()
}

// InstrumentStore wraps s so every operation is counted and timed.
func (m *Metrics) InstrumentStore(s kv.Store) kv.Store {
	return &instrumentedStore{next: s, m: m}
}

type instrumentedStore struct {
	next kv.Store
	m    *Metrics
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	result := "ok"
	switch {
	case errors.Is(err, kv.ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	s.m.storeOps.WithLabelValues(op, result).Inc()
	s.m.storeDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *instrumentedStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	start := time.Now()
	v, err := s.next.Get(ctx, key)
	s.observe("get", start, err)
	return v, err
}

func (s *instrumentedStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	start := time.Now()
	err := s.next.Set(ctx, key, value)
	s.observe("set", start, err)
	return err
}

func (s *instrumentedStore) Del(ctx context.Context, key string) error {
	start := time.Now()
	err := s.next.Del(ctx, key)
	s.observe("del", start, err)
	return err
}

func (s *instrumentedStore) GetByPrefix(ctx context.Context, prefix string) ([]kv.Entry, error) {
	start := time.Now()
	entries, err := s.next.GetByPrefix(ctx, prefix)
	s.observe("get_by_prefix", start, err)
	return entries, err
}

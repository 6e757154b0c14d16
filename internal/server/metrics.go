package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics uses a registry per server so tests can build several.
type metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	logins        *prometheus.CounterVec
	tasksCreated  prometheus.Counter
	updates       prometheus.Counter
	notifications prometheus.Counter
	dueDates      prometheus.Counter
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	m := &metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bodwatch_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bodwatch_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bodwatch_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		tasksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bodwatch_tasks_created_total",
			Help: "Mandates created through bulk create.",
		}),
		updates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bodwatch_task_updates_total",
			Help: "Progress updates appended.",
		}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bodwatch_notifications_created_total",
			Help: "Notifications created for mentions and due-date amendments.",
		}),
		dueDates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bodwatch_due_date_amendments_total",
			Help: "Due-date amendments filed.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.logins,
		m.tasksCreated, m.updates, m.notifications, m.dueDates,
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.latency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

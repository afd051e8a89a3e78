package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// metrics holds the prometheus collectors of a Server. Every Server registers
// them with its own registry, so several servers can live in one process.
type metrics struct {
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	signups      prometheus.Counter
	logins       *prometheus.CounterVec
	messages     prometheus.Counter
	follows      *prometheus.CounterVec
	likes        *prometheus.CounterVec
	unauthorized prometheus.Counter
}

func newMetrics(reg *prometheus.Registry) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "warbler_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "warbler_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}, []string{"method", "route"}),
		signups: factory.NewCounter(prometheus.CounterOpts{
			Name: "warbler_signups_total",
			Help: "Total number of created accounts",
		}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "warbler_logins_total",
			Help: "Total number of login attempts",
		}, []string{"result"}),
		messages: factory.NewCounter(prometheus.CounterOpts{
			Name: "warbler_messages_total",
			Help: "Total number of posted messages",
		}),
		follows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "warbler_follows_total",
			Help: "Total number of follow changes",
		}, []string{"action"}),
		likes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "warbler_likes_total",
			Help: "Total number of like toggles",
		}, []string{"action"}),
		unauthorized: factory.NewCounter(prometheus.CounterOpts{
			Name: "warbler_unauthorized_total",
			Help: "Total number of requests turned away for lacking a session",
		}),
	}
}

func (s *Server) registerMetricsRoutes(r *mux.Router) {
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})).Methods("GET")
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// routeName returns the path template of the matched route, which keeps
// the label set small compared to raw paths.
func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unknown"
}

// instrument counts requests and observes their duration per route.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := routeName(r)
		s.metrics.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		s.metrics.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// logRequest logs every request once it has been handled.
func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Info("request handled")
	})
}

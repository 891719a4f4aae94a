// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"quiz-modes/internal/logger"
)

const namespace = "quiz"

// Metrics holds the collectors for the HTTP surface and the quiz runs.
type Metrics struct {
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RunsStarted     *prometheus.CounterVec
	RunsTerminated  *prometheus.CounterVec
	Answers         *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		RunsStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_started_total",
				Help:      "Quiz runs started, by mode",
			},
			[]string{"mode"},
		),
		RunsTerminated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_terminated_total",
				Help:      "Quiz runs terminated, by mode and reason",
			},
			[]string{"mode", "reason"},
		),
		Answers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "answers_total",
				Help:      "Submitted answers, by mode and result",
			},
			[]string{"mode", "result"},
		),
	}
}

func (m *Metrics) RunStarted(mode string) {
	m.RunsStarted.WithLabelValues(mode).Inc()
}

func (m *Metrics) RunTerminated(mode, reason string) {
	m.RunsTerminated.WithLabelValues(mode, reason).Inc()
}

func (m *Metrics) AnswerSubmitted(mode string, correct bool) {
	result := "incorrect"
	if correct {
		result = "correct"
	}
	m.Answers.WithLabelValues(mode, result).Inc()
}

// Middleware records request count and latency labelled by the mux route
// template, so /quiz?mode=x does not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &logger.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.RequestCounter.WithLabelValues(r.Method, route, strconv.Itoa(rec.Status)).Inc()
	})
}

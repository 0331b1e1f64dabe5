package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Submission and analytics outcomes.
const (
	OutcomeSuccess         = "success"
	OutcomeValidationError = "validation_error"
	OutcomeFailure         = "failure"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "nps", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nps", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	SurveySubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "nps", Name: "survey_submission_requests_total", Help: "Survey submission attempts."},
		[]string{"outcome"}, // success|validation_error|failure
	)
	SurveySubmissionLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nps", Name: "survey_submission_duration_seconds",
			Help:    "Survey submission processing seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
	AnalyticsRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "nps", Name: "analytics_requests_total", Help: "Analytics reads."},
		[]string{"endpoint", "outcome"},
	)
	AnalyticsLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nps", Name: "analytics_request_duration_seconds",
			Help:    "Analytics read seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "outcome"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "nps", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nps", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "nps", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels/incrs."},
		[]string{"cache", "event"},
	)
)

// Serve exposes reg on a separate listener. Empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		HTTPRequests, HTTPLatency,
		SurveySubmissions, SurveySubmissionLatency,
		AnalyticsRequests, AnalyticsLatency,
		ExternalRequests, ExternalLatency,
		CacheEvents,
	)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveSubmission(outcome string, dur time.Duration) {
	SurveySubmissions.WithLabelValues(outcome).Inc()
	SurveySubmissionLatency.WithLabelValues(outcome).Observe(dur.Seconds())
}

func ObserveAnalytics(endpoint, outcome string, dur time.Duration) {
	AnalyticsRequests.WithLabelValues(endpoint, outcome).Inc()
	AnalyticsLatency.WithLabelValues(endpoint, outcome).Observe(dur.Seconds())
}

// ObserveExternal records an outbound call; status 0 means no response was received.
func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del|incr
	CacheEvents.WithLabelValues(cache, event).Inc()
}

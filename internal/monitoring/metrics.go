package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "taskmanager"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_flight",
		Help:      "Requests currently being served.",
	})

	otpIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_issued_total",
		Help:      "One-time passwords written to the ledger.",
	})

	otpVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_verifications_total",
		Help:      "OTP verification attempts by outcome.",
	}, []string{"outcome"})

	otpPurged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_purged_total",
		Help:      "Ledger records removed by retention cleanup.",
	})

	authzDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authz_decisions_total",
		Help:      "Authorization decisions by resource, action and result.",
	}, []string{"resource", "action", "decision"})

	emailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_total",
		Help:      "Outbound email attempts by result.",
	}, []string{"result"})

	mailRelayOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_relay_circuit_open",
		Help:      "1 while the SMTP circuit breaker rejects deliveries.",
	})

	jobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "worker_jobs_total",
		Help:      "Background jobs by type and result.",
	}, []string{"type", "result"})
)

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInFlight.Inc()

		c.Next()

		httpInFlight.Dec()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// MetricsHandler exposes the default Prometheus registry.
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func RecordOTPIssued() {
	otpIssued.Inc()
}

// RecordOTPVerification counts an attempt; outcome is one of valid, expired, mismatch, missing, malformed.
func RecordOTPVerification(outcome string) {
	otpVerifications.WithLabelValues(outcome).Inc()
}

func RecordOTPPurged(n int64) {
	otpPurged.Add(float64(n))
}

func RecordAuthzDecision(resource, action string, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	authzDecisions.WithLabelValues(resource, action, decision).Inc()
}

func RecordEmail(err error) {
	if err != nil {
		emailsSent.WithLabelValues("failed").Inc()
		return
	}
	emailsSent.WithLabelValues("sent").Inc()
}

func SetMailRelayOpen(open bool) {
	if open {
		mailRelayOpen.Set(1)
		return
	}
	mailRelayOpen.Set(0)
}

func RecordJob(jobType string, err error) {
	if err != nil {
		jobsProcessed.WithLabelValues(jobType, "failed").Inc()
		return
	}
	jobsProcessed.WithLabelValues(jobType, "ok").Inc()
}

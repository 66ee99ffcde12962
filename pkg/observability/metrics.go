package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Checkout outcome metrics
	checkoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Terminal checkout outcomes by state",
		},
		[]string{"state"},
	)

	challengeResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_challenge_resolutions_total",
			Help: "Step-up challenge resolutions by signal path and status",
		},
		[]string{"path", "status"},
	)

	fingerprintOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_fingerprint_outcomes_total",
			Help: "Device fingerprint collection outcomes",
		},
		[]string{"outcome"},
	)

	droppedFrameMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_dropped_frame_messages_total",
			Help: "Cross-frame messages dropped before dispatch",
		},
		[]string{"reason"},
	)

	backendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkout_backend_request_duration_seconds",
			Help:    "Duration of payment API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// HTTP relay metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)
)

// RecordCheckoutState records a terminal checkout state transition
func RecordCheckoutState(state string) {
	checkoutsTotal.WithLabelValues(state).Inc()
}

// RecordChallengeResolution records which signal path resolved a challenge
func RecordChallengeResolution(path, status string) {
	challengeResolutionsTotal.WithLabelValues(path, status).Inc()
}

// RecordFingerprintOutcome records a device collection outcome
// (completed, error, timeout)
func RecordFingerprintOutcome(outcome string) {
	fingerprintOutcomesTotal.WithLabelValues(outcome).Inc()
}

// RecordDroppedFrameMessage records a message dropped by the bus
// (untrusted_origin, unparseable)
func RecordDroppedFrameMessage(reason string) {
	droppedFrameMessagesTotal.WithLabelValues(reason).Inc()
}

// ObserveBackendRequest records the duration of one payment API call
func ObserveBackendRequest(endpoint string, duration time.Duration) {
	backendRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware returns an HTTP middleware that records request metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		httpRequestDuration.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.status)).Inc()
	})
}

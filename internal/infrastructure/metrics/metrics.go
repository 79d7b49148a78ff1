// Package metrics defines and registers all custom Prometheus metrics for the
// library client. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default registry on import; `library watch`
// exposes them on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/librarydesk/library-client/internal/core/domain"
)

const namespace = "library_client"

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionTransitionsTotal counts session events.
// Label:
//   - reason: "login", "logout", "expired", "restored", "unauthorized", ...
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of session state transitions, by reason.",
	},
	[]string{"reason"},
)

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, labelled by result.",
	},
	[]string{"result"},
)

// SessionAuthenticated is 1 while a user is logged in.
var SessionAuthenticated = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_authenticated",
		Help:      "Whether a session is currently held (1) or not (0).",
	},
)

// UnauthorizedRedirectsTotal counts forced logouts triggered by a 401.
// Label:
//   - reason: "expired" or "unauthorized"
var UnauthorizedRedirectsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unauthorized_redirects_total",
		Help:      "Total number of 401 responses that cleared the session.",
	},
	[]string{"reason"},
)

// ── API metrics ───────────────────────────────────────────────────────────────

// APIRequestsTotal counts completed API requests.
// Labels:
//   - method: HTTP method
//   - status: HTTP status code, or "network_error" when no response arrived
var APIRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Total number of Library API requests, by method and status.",
	},
	[]string{"method", "status"},
)

// APIRequestDuration measures round trip time of API requests.
var APIRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Duration of Library API requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// Recorder feeds the metrics above. It implements httpclient.Observer and
// its SessionEvent method is meant to be subscribed to the session manager.
type Recorder struct{}

func NewRecorder() *Recorder { return &Recorder{} }

func (*Recorder) APIRequest(method string, status int, elapsed time.Duration) {
	label := "network_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	APIRequestsTotal.WithLabelValues(method, label).Inc()
	APIRequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (*Recorder) UnauthorizedRedirect(reason domain.Reason) {
	UnauthorizedRedirectsTotal.WithLabelValues(string(reason)).Inc()
}

func (*Recorder) SessionEvent(ev domain.SessionEvent) {
	SessionTransitionsTotal.WithLabelValues(string(ev.Reason)).Inc()

	switch ev.Reason {
	case domain.ReasonLogin:
		LoginAttemptsTotal.WithLabelValues("success").Inc()
	case domain.ReasonLoginFailed:
		LoginAttemptsTotal.WithLabelValues("failure").Inc()
	}

	if ev.Session.IsAuthenticated() {
		SessionAuthenticated.Set(1)
	} else {
		SessionAuthenticated.Set(0)
	}
}

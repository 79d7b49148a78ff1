package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/librarydesk/library-client/internal/core/domain"
)

func TestRecorder_APIRequest(t *testing.T) {
	r := NewRecorder()
	ok := APIRequestsTotal.WithLabelValues("GET", "200")
	netErr := APIRequestsTotal.WithLabelValues("POST", "network_error")
	beforeOK, beforeNet := testutil.ToFloat64(ok), testutil.ToFloat64(netErr)

	r.APIRequest("GET", 200, 20*time.Millisecond)
	r.APIRequest("POST", 0, time.Second)

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(ok))
	assert.Equal(t, beforeNet+1, testutil.ToFloat64(netErr))
}

func TestRecorder_SessionEvents(t *testing.T) {
	r := NewRecorder()
	success := LoginAttemptsTotal.WithLabelValues("success")
	failure := LoginAttemptsTotal.WithLabelValues("failure")
	expired := SessionTransitionsTotal.WithLabelValues("expired")
	s0, f0, e0 := testutil.ToFloat64(success), testutil.ToFloat64(failure), testutil.ToFloat64(expired)

	r.SessionEvent(domain.SessionEvent{
		Reason:  domain.ReasonLogin,
		Session: domain.Session{Token: "t", User: &domain.User{ID: 1}},
	})
	assert.Equal(t, float64(1), testutil.ToFloat64(SessionAuthenticated))

	r.SessionEvent(domain.SessionEvent{Reason: domain.ReasonLoginFailed})
	r.SessionEvent(domain.SessionEvent{Reason: domain.ReasonExpired})

	assert.Equal(t, s0+1, testutil.ToFloat64(success))
	assert.Equal(t, f0+1, testutil.ToFloat64(failure))
	assert.Equal(t, e0+1, testutil.ToFloat64(expired))
	assert.Equal(t, float64(0), testutil.ToFloat64(SessionAuthenticated))
}

func TestRecorder_UnauthorizedRedirect(t *testing.T) {
	c := UnauthorizedRedirectsTotal.WithLabelValues("expired")
	before := testutil.ToFloat64(c)

	NewRecorder().UnauthorizedRedirect(domain.ReasonExpired)

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

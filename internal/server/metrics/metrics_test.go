package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAuthOperation(t *testing.T) {
	m := New()

	m.RecordAuthOperation("login", "success")
	m.RecordAuthOperation("login", "success")
	m.RecordAuthOperation("login", "unauthorized")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.authOperations.WithLabelValues("login", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authOperations.WithLabelValues("login", "unauthorized")))
}

func TestObserveHTTPAndPurged(t *testing.T) {
	m := New()

	m.ObserveHTTP(http.MethodPost, "/api/auth/refresh", 401, 20*time.Millisecond)
	m.AddPurged(3)
	m.AddPurged(0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/auth/refresh", "401")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.purgedRefreshes))
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.RecordAuthOperation("me", "success")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `ministry_auth_operations_total{operation="me",outcome="success"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}

func TestNew_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = New()
		_ = New()
	})
}

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/facility-reservations/internal/application"
)

var _ application.Metrics = (*Recorder)(nil)

func TestRecorderCountsOperations(t *testing.T) {
	t.Parallel()

	r := New()
	r.ObserveOperation("CreateReservation", "ok", 20*time.Millisecond)
	r.ObserveOperation("CreateReservation", "ok", 10*time.Millisecond)
	r.ObserveOperation("CreateReservation", "overlap", time.Millisecond)
	r.ObserveLockout()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.operations.WithLabelValues("CreateReservation", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.operations.WithLabelValues("CreateReservation", "overlap")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.lockouts))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
}

func TestRecorderCountsRequests(t *testing.T) {
	t.Parallel()

	r := New()
	r.ObserveRequest("/api/public/grid", http.MethodGet, http.StatusOK, time.Millisecond)
	r.ObserveRequest("/api/public/grid", http.MethodGet, http.StatusBadRequest, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues("/api/public/grid", http.MethodGet, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues("/api/public/grid", http.MethodGet, "400")))
}

func TestRecorderHandlerExposesRegistry(t *testing.T) {
	t.Parallel()

	r := New()
	r.ObserveLockout()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "reservations_pin_lockouts_total 1"))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}

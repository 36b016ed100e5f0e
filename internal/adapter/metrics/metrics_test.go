package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-reputation-service/internal/domain/role"
	ratinguc "user-reputation-service/internal/usecase/rating"
	statsuc "user-reputation-service/internal/usecase/stats"
	useruc "user-reputation-service/internal/usecase/user"
)

var (
	_ ratinguc.Observer = (*Metrics)(nil)
	_ statsuc.Observer  = (*Metrics)(nil)
	_ useruc.Observer   = (*Metrics)(nil)
)

func TestRatingCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RatingSubmitted(5)
	m.RatingSubmitted(5)
	m.RatingSubmitted(2)
	m.RatingRejected("duplicate")
	m.RatingDeleted()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RatingsSubmittedTotal.WithLabelValues("5")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RatingsSubmittedTotal.WithLabelValues("2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RatingsRejectedTotal.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RatingsDeletedTotal))
}

func TestRolesAssigned_EmptySetCountsAsClient(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RolesAssigned(role.Set(0))
	m.RolesAssigned(role.NewSet(role.Client, role.Admin))
	m.PermissionDenied(role.ActionDelete)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RoleAssignmentsTotal.WithLabelValues("CLIENT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RoleAssignmentsTotal.WithLabelValues("ADMIN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PermissionDeniedTotal.WithLabelValues("delete")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New(nil)
	m.StatsComputed("monthly", 20*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/v1/users", http.StatusOK, time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `reputation_stats_duration_seconds_count{kind="monthly"} 1`)
	assert.Contains(t, body, `reputation_http_requests_total{method="GET",route="/v1/users",status="200"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

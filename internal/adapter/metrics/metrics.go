// Package metrics defines the Prometheus collectors of the reputation service and
// adapts them to the observer interfaces of the usecases.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"user-reputation-service/internal/domain/role"
)

const namespace = "reputation"

// Metrics owns every collector. One instance is created per registry.
type Metrics struct {
	registry *prometheus.Registry

	// RatingsSubmittedTotal counts accepted ratings.
	// Label:
	//   - stars: "1".."5"
	RatingsSubmittedTotal *prometheus.CounterVec

	// RatingsRejectedTotal counts refused submissions.
	// Label:
	//   - reason: "duplicate", "self" or "stars"
	RatingsRejectedTotal *prometheus.CounterVec

	// RatingsDeletedTotal counts ratings removed by their rater.
	RatingsDeletedTotal prometheus.Counter

	// RoleAssignmentsTotal counts roles written to accounts on create or update.
	// Label:
	//   - role: "CLIENT", "ADMIN" or "SUPER_ADMIN"
	RoleAssignmentsTotal *prometheus.CounterVec

	// PermissionDeniedTotal counts refused account actions.
	// Label:
	//   - action: the requested action (e.g. "update", "delete", "list")
	PermissionDeniedTotal *prometheus.CounterVec

	// StatsDuration measures how long one aggregation takes.
	// Label:
	//   - kind: "monthly", "general" or "estimate"
	StatsDuration *prometheus.HistogramVec

	// HTTPRequestsTotal counts handled HTTP requests.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration measures HTTP handling latency.
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers all collectors on reg. A nil reg gets a fresh registry with the Go
// and process collectors.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RatingsSubmittedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ratings_submitted_total",
				Help:      "Total number of ratings recorded, by star value.",
			},
			[]string{"stars"},
		),
		RatingsRejectedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ratings_rejected_total",
				Help:      "Total number of rating submissions refused, by reason.",
			},
			[]string{"reason"},
		),
		RatingsDeletedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ratings_deleted_total",
				Help:      "Total number of ratings deleted by their rater.",
			},
		),
		RoleAssignmentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "role_assignments_total",
				Help:      "Total number of roles written to accounts, by role.",
			},
			[]string{"role"},
		),
		PermissionDeniedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "permission_denied_total",
				Help:      "Total number of account actions refused by the role hierarchy.",
			},
			[]string{"action"},
		),
		StatsDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stats_duration_seconds",
				Help:      "Duration of statistics aggregations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests, by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP request handling.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RatingSubmitted implements the rating observer.
func (m *Metrics) RatingSubmitted(stars int) {
	m.RatingsSubmittedTotal.WithLabelValues(strconv.Itoa(stars)).Inc()
}

// RatingRejected implements the rating observer.
func (m *Metrics) RatingRejected(reason string) {
	m.RatingsRejectedTotal.WithLabelValues(reason).Inc()
}

// RatingDeleted implements the rating observer.
func (m *Metrics) RatingDeleted() {
	m.RatingsDeletedTotal.Inc()
}

// RolesAssigned implements the user observer. One increment per role of the set.
func (m *Metrics) RolesAssigned(roles role.Set) {
	for _, tag := range roles.Effective().Strings() {
		m.RoleAssignmentsTotal.WithLabelValues(tag).Inc()
	}
}

// PermissionDenied implements the user observer.
func (m *Metrics) PermissionDenied(action role.Action) {
	m.PermissionDeniedTotal.WithLabelValues(string(action)).Inc()
}

// StatsComputed implements the stats observer.
func (m *Metrics) StatsComputed(kind string, elapsed time.Duration) {
	m.StatsDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveRequest records one handled HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

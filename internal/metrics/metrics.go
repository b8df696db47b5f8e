// Package metrics defines the Prometheus metrics exposed on /metrics.
// All methods are safe on a nil *Metrics so services can run without them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "synageion"

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// result: success, user_not_found, wrong_password, error
	LoginsTotal *prometheus.CounterVec
	// result: success, invalid, duplicate, error
	RegistrationsTotal *prometheus.CounterVec
	// action: role_change, deactivate_user, password_reset
	AdminActionsTotal *prometheus.CounterVec
	// permission: resource:action
	AuthorizationDeniedTotal *prometheus.CounterVec

	SessionsExpiredTotal prometheus.Counter
	SessionsActive       prometheus.GaugeFunc
}

// New creates and registers all metrics on registry. activeSessions feeds
// the live session gauge and may be nil.
func New(registry *prometheus.Registry, activeSessions func() int) *Metrics {
	if activeSessions == nil {
		activeSessions = func() int { return 0 }
	}
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Login attempts by result",
			},
			[]string{"result"},
		),
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Registration attempts by result",
			},
			[]string{"result"},
		),
		AdminActionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "admin_actions_total",
				Help:      "Audited administrator actions",
			},
			[]string{"action"},
		),
		AuthorizationDeniedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "authorization_denied_total",
				Help:      "Requests denied by the role gate",
			},
			[]string{"permission"},
		),
		SessionsExpiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_expired_total",
			Help:      "Sessions destroyed after the inactivity timeout",
		}),
		SessionsActive: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions currently held in memory",
		}, func() float64 { return float64(activeSessions()) }),
	}
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoginsTotal,
		m.RegistrationsTotal,
		m.AdminActionsTotal,
		m.AuthorizationDeniedTotal,
		m.SessionsExpiredTotal,
		m.SessionsActive,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) Registration(result string) {
	if m == nil {
		return
	}
	m.RegistrationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) AdminAction(action string) {
	if m == nil {
		return
	}
	m.AdminActionsTotal.WithLabelValues(action).Inc()
}

func (m *Metrics) Denied(permission string) {
	if m == nil {
		return
	}
	m.AuthorizationDeniedTotal.WithLabelValues(permission).Inc()
}

func (m *Metrics) SessionExpired() {
	if m == nil {
		return
	}
	m.SessionsExpiredTotal.Inc()
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

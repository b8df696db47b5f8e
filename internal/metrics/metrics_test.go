package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry(), func() int { return 3 })

	m.Login("success")
	m.Login("wrong_password")
	m.Login("wrong_password")
	m.AdminAction("role_change")
	m.SessionExpired()

	if got := testutil.ToFloat64(m.LoginsTotal.WithLabelValues("wrong_password")); got != 2 {
		t.Errorf("wrong_password logins = %v", got)
	}
	if got := testutil.ToFloat64(m.AdminActionsTotal.WithLabelValues("role_change")); got != 1 {
		t.Errorf("role_change = %v", got)
	}
	if got := testutil.ToFloat64(m.SessionsExpiredTotal); got != 1 {
		t.Errorf("expired = %v", got)
	}
	if got := testutil.ToFloat64(m.SessionsActive); got != 3 {
		t.Errorf("active sessions = %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Login("success")
	m.Registration("success")
	m.AdminAction("role_change")
	m.Denied("user:list")
	m.SessionExpired()
	m.ObserveRequest("GET", "/", "200", 0.1)
}

func TestHandler(t *testing.T) {
	m := New(prometheus.NewRegistry(), nil)
	m.Registration("duplicate")
	m.ObserveRequest("GET", "/login", "200", 0.01)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	body := string(b)
	for _, want := range []string{
		`synageion_registrations_total{result="duplicate"} 1`,
		`synageion_http_requests_total{method="GET",route="/login",status="200"} 1`,
		"synageion_sessions_active 0",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in metrics output", want)
		}
	}
}

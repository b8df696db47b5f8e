package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/synageion/synageion/internal/models"
)

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatalf("no session cookie")
	return nil
}

func echoSession() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := FromContext(r.Context())
		if !ok {
			w.Write([]byte("anonymous"))
			return
		}
		w.Write([]byte(s.Username + ":" + string(s.Role)))
	})
}

func TestMiddlewareAttachesSession(t *testing.T) {
	m := NewManager(NewStore(), NewGuard(time.Minute), "test-secret")
	rec := httptest.NewRecorder()
	m.Start(rec, 3, "carol1", models.RoleLogistics)
	c := sessionCookie(t, rec)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	rr := httptest.NewRecorder()
	m.Middleware(echoSession()).ServeHTTP(rr, req)
	if got := rr.Body.String(); got != "carol1:Logistics" {
		t.Fatalf("body = %q", got)
	}
}

func TestMiddlewareRejectsTamperedCookie(t *testing.T) {
	m := NewManager(NewStore(), NewGuard(time.Minute), "test-secret")
	rec := httptest.NewRecorder()
	sess := m.Start(rec, 3, "carol1", models.RoleLogistics)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sess.ID + ".forged"})
	rr := httptest.NewRecorder()
	m.Middleware(echoSession()).ServeHTTP(rr, req)
	if got := rr.Body.String(); got != "anonymous" {
		t.Fatalf("tampered cookie accepted: %q", got)
	}
}

func TestMiddlewareExpiresIdleSession(t *testing.T) {
	store, clk := newTestStore()
	m := NewManager(store, NewGuard(30*time.Minute), "test-secret")
	var expired []string
	m.OnExpire = func(s Session) { expired = append(expired, s.Username) }

	rec := httptest.NewRecorder()
	sess := m.Start(rec, 1, "alice1", models.RoleSales)
	c := sessionCookie(t, rec)

	clk.Advance(31 * time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(c)
	rr := httptest.NewRecorder()
	m.Middleware(RequireAuth(echoSession())).ServeHTTP(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/login?expired=1" {
		t.Fatalf("Location = %q", loc)
	}
	if _, ok := store.Get(sess.ID); ok {
		t.Fatal("expired session still stored")
	}
	if len(expired) != 1 || expired[0] != "alice1" {
		t.Fatalf("OnExpire calls = %v", expired)
	}
}

func TestMiddlewareSlidesWindow(t *testing.T) {
	store, clk := newTestStore()
	m := NewManager(store, NewGuard(30*time.Minute), "test-secret")
	rec := httptest.NewRecorder()
	m.Start(rec, 1, "alice1", models.RoleSales)
	c := sessionCookie(t, rec)

	h := m.Middleware(RequireAuth(echoSession()))
	for _, step := range []time.Duration{29 * time.Minute, 2 * time.Minute, 20 * time.Minute} {
		clk.Advance(step)
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(c)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("after %s: expected 200 got %d", step, rr.Code)
		}
	}
}

func TestRequireAuthJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	req.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	RequireAuth(echoSession()).ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "unauthorized") {
		t.Fatalf("body = %q", rr.Body.String())
	}
}

func TestEndDestroysSession(t *testing.T) {
	m := NewManager(NewStore(), NewGuard(time.Minute), "")
	rec := httptest.NewRecorder()
	sess := m.Start(rec, 1, "alice1", models.RoleSales)
	c := sessionCookie(t, rec)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(c)
	rr := httptest.NewRecorder()
	m.End(rr, req)
	if _, ok := m.Store().Get(sess.ID); ok {
		t.Fatal("session survived logout")
	}
	cleared := sessionCookie(t, rr)
	if cleared.Value != "" {
		t.Fatalf("cookie not cleared: %q", cleared.Value)
	}
}

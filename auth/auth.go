package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/synageion/synageion/httpx"
	"github.com/synageion/synageion/internal/models"
)

type ctxKey string

const (
	sessionCookieName = "session"
	sessionCtxKey     = ctxKey("session")
	expiredCtxKey     = ctxKey("sessionExpired")
)

// Manager ties the session store, the inactivity guard and the signed cookie together.
type Manager struct {
	store  *Store
	guard  Guard
	secret []byte
	// OnExpire is called after an expired session was destroyed.
	OnExpire func(Session)
}

// NewManager builds a Manager. An empty secret gets replaced by a random one,
// which is fine because sessions only live as long as the process.
func NewManager(store *Store, guard Guard, secret string) *Manager {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("auth: generate session secret: %v", err))
		}
	}
	return &Manager{store: store, guard: guard, secret: key}
}

// Store exposes the underlying session store.
func (m *Manager) Store() *Store { return m.store }

// Guard exposes the inactivity guard.
func (m *Manager) Guard() Guard { return m.guard }

// Start creates a session for the user and sets the signed cookie.
func (m *Manager) Start(w http.ResponseWriter, userID uint, username string, role models.RoleName) Session {
	m.store.Prune(m.guard)
	sess := m.store.Create(userID, username, role)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    m.sign(sess.ID),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// End destroys the request's session, if any, and clears the cookie.
func (m *Manager) End(w http.ResponseWriter, r *http.Request) {
	if id, ok := m.parse(r); ok {
		m.store.Destroy(id)
	}
	ClearSession(w)
}

// ClearSession deletes the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

func (m *Manager) sign(id string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	return id + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// parse validates the cookie signature and returns the session id.
func (m *Manager) parse(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	id, sig, found := strings.Cut(c.Value, ".")
	if !found || id == "" {
		return "", false
	}
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	expected := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", false
	}
	return id, true
}

// WithSession stores the session in context.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, s)
}

// FromContext extracts the session.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionCtxKey).(Session)
	return s, ok
}

// UserIDFromContext extracts the user id of the current session.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	s, ok := FromContext(ctx)
	if !ok || s.UserID == 0 {
		return 0, false
	}
	return s.UserID, true
}

// ExpiredFromContext reports whether the request carried a session that just timed out.
func ExpiredFromContext(ctx context.Context) bool {
	v, _ := ctx.Value(expiredCtxKey).(bool)
	return v
}

// Middleware resolves the session cookie, applies the inactivity guard and
// attaches the live session to the request context. Letting a request through
// counts as activity.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := m.parse(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		sess, ok := m.store.Get(id)
		if !ok {
			// Unknown id, e.g. after a restart.
			ClearSession(w)
			next.ServeHTTP(w, r)
			return
		}
		if m.guard.Check(sess, m.store.Now()) == Expired {
			m.store.Destroy(id)
			ClearSession(w)
			if m.OnExpire != nil {
				m.OnExpire(sess)
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), expiredCtxKey, true)))
			return
		}
		sess, ok = m.store.Touch(id)
		if !ok {
			ClearSession(w)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// RequireAuth redirects to /login if not authenticated (HTML) or returns 401 JSON.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		target := "/login"
		if ExpiredFromContext(r.Context()) {
			target += "?expired=1"
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}

package policy

import (
	"context"
	"errors"
	"net/http"

	"github.com/synageion/synageion/auth"
	"github.com/synageion/synageion/gate"
	"github.com/synageion/synageion/httpx"
	"github.com/synageion/synageion/internal/metrics"
	"github.com/synageion/synageion/internal/models"
	"github.com/synageion/synageion/view"
	"go.uber.org/zap"
)

// AuthGate checks the session role of the current request against the role gate.
type AuthGate struct {
	Gate    *gate.Gate[models.RoleName]
	Metrics *metrics.Metrics
	Log     *zap.SugaredLogger
}

// NewAuthGate wraps g for use in HTTP middleware.
func NewAuthGate(g *gate.Gate[models.RoleName], m *metrics.Metrics, log *zap.SugaredLogger) *AuthGate {
	return &AuthGate{Gate: g, Metrics: m, Log: log}
}

// Authorize checks the role captured in the request's session.
// Returns gate.ErrUnauthorized without a session.
func (ag *AuthGate) Authorize(ctx context.Context, resourceType string, action gate.Action) error {
	sess, ok := auth.FromContext(ctx)
	if !ok {
		return gate.ErrUnauthorized
	}
	return ag.Gate.Authorize(ctx, sess.Role, resourceType, action)
}

// Can is a convenience method that returns bool instead of error.
func (ag *AuthGate) Can(ctx context.Context, resourceType string, action gate.Action) bool {
	return ag.Authorize(ctx, resourceType, action) == nil
}

// RequirePermission returns middleware that lets the request through only
// when the session holds the role required for resource:action. Denials
// render a 403 naming that role and have no other effect.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := ag.Authorize(r.Context(), resourceType, action)
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := auth.FromContext(r.Context()); !ok {
				auth.RequireAuth(next).ServeHTTP(w, r)
				return
			}
			ag.Forbidden(w, r, err)
		})
	}
}

// Forbidden writes the denial response for err (HTML page or JSON).
func (ag *AuthGate) Forbidden(w http.ResponseWriter, r *http.Request, err error) {
	var required string
	var denied *gate.DeniedError
	if errors.As(err, &denied) {
		required = denied.Required
		ag.Metrics.Denied(string(denied.Permission))
	}
	if ag.Log != nil {
		sess, _ := auth.FromContext(r.Context())
		ag.Log.Warnw("access denied", "username", sess.Username, "role", sess.Role, "path", r.URL.Path, "required", required, "error", err)
	}
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", map[string]string{"required_role": required})
		return
	}
	if rerr := view.RenderStatus(w, r, http.StatusForbidden, "forbidden.html", map[string]any{"Required": required}); rerr != nil {
		http.Error(w, "Forbidden", http.StatusForbidden)
	}
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/synageion/synageion/auth"
	"github.com/synageion/synageion/gate"
	"github.com/synageion/synageion/internal/policy"
	"github.com/synageion/synageion/internal/services"
	"github.com/synageion/synageion/view"
	"go.uber.org/zap"
)

// statusFor maps a service failure onto an HTTP status.
func statusFor(err error) int {
	switch services.KindOf(err) {
	case services.KindValidation:
		return http.StatusUnprocessableEntity
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindDuplicate:
		return http.StatusConflict
	case services.KindAuth:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func render(lg *zap.SugaredLogger, w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if err := view.RenderStatus(w, r, status, name, data); err != nil {
		lg.Errorw("render failed", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// fail renders the generic error page for err. Role denials go through the
// gate so the page names the required role.
func fail(lg *zap.SugaredLogger, ag *policy.AuthGate, w http.ResponseWriter, r *http.Request, err error) {
	var denied *gate.DeniedError
	if ag != nil && errors.As(err, &denied) {
		ag.Forbidden(w, r, err)
		return
	}
	if services.KindOf(err) == services.KindStorage {
		lg.Errorw("request failed", "path", r.URL.Path, "error", err)
	}
	render(lg, w, r, statusFor(err), "error.html", map[string]any{"Error": services.Code(err)})
}

func actor(r *http.Request) services.Actor {
	sess, _ := auth.FromContext(r.Context())
	return services.ActorFromSession(sess)
}

func idParam(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

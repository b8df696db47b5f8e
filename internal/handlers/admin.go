package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/synageion/synageion/httpx"
	"github.com/synageion/synageion/internal/models"
	"github.com/synageion/synageion/internal/policy"
	"github.com/synageion/synageion/internal/services"
	"github.com/synageion/synageion/view"
	"go.uber.org/zap"
)

const (
	usersPath   = "/admin/users"
	pendingPath = "/admin/users/pending"
)

// AdminHandler serves the administrator pages. Routes are gated to the
// Administrator role; the services check again.
type AdminHandler struct {
	svc  *services.AdminService
	gate *policy.AuthGate
	log  *zap.SugaredLogger
}

func NewAdminHandler(svc *services.AdminService, ag *policy.AuthGate, lg *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{svc: svc, gate: ag, log: lg}
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	a := actor(r)
	f := services.UserFilter{
		Role:  models.RoleName(r.URL.Query().Get("role")),
		Query: r.URL.Query().Get("q"),
	}
	if f.Role != "" && !f.Role.Valid() {
		f.Role = ""
	}
	users, err := h.svc.ListUsers(r.Context(), a, f)
	if err != nil {
		fail(h.log, h.gate, w, r, err)
		return
	}
	render(h.log, w, r, http.StatusOK, "admin_users.html", map[string]any{
		"Users":       users,
		"Query":       f.Query,
		"RoleFilter":  f.Role,
		"Roles":       models.AllRoles,
		"ActiveRoles": models.ActiveRoles,
		"SelfID":      a.ID,
	})
}

func (h *AdminHandler) Pending(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListPendingUsers(r.Context(), actor(r))
	if err != nil {
		fail(h.log, h.gate, w, r, err)
		return
	}
	render(h.log, w, r, http.StatusOK, "admin_pending.html", map[string]any{
		"Users":       users,
		"ActiveRoles": models.ActiveRoles,
	})
}

func (h *AdminHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		fail(h.log, h.gate, w, r, services.ErrUserNotFound)
		return
	}
	_, err := h.svc.ChangeRole(r.Context(), actor(r), id, models.RoleName(r.PostFormValue("role")))
	h.done(w, r, err, "role_changed")
}

func (h *AdminHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		fail(h.log, h.gate, w, r, services.ErrUserNotFound)
		return
	}
	_, err := h.svc.DeactivateUser(r.Context(), actor(r), id)
	h.done(w, r, err, "user_deactivated")
}

func (h *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		fail(h.log, h.gate, w, r, services.ErrUserNotFound)
		return
	}
	err := h.svc.ResetPassword(r.Context(), actor(r), id, r.PostFormValue("password"))
	h.done(w, r, err, "password_reset")
}

// done finishes a POST action: flash the outcome and go back to the list.
// Storage failures and role denials get an error page instead.
func (h *AdminHandler) done(w http.ResponseWriter, r *http.Request, err error, okCode string) {
	switch services.KindOf(err) {
	case "":
		view.Flash(w, okCode)
	case services.KindStorage:
		fail(h.log, h.gate, w, r, err)
		return
	case services.KindForbidden:
		if !errors.Is(err, services.ErrSelfModification) {
			fail(h.log, h.gate, w, r, err)
			return
		}
		view.Flash(w, services.Code(err))
	default:
		view.Flash(w, services.Code(err))
	}
	back := usersPath
	if r.PostFormValue("back") == pendingPath {
		back = pendingPath
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// Stats answers JSON clients with the raw statistics.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Statistics(r.Context(), actor(r))
	if err != nil {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, statusFor(err), services.Code(err), nil)
			return
		}
		fail(h.log, h.gate, w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, stats)
		return
	}
	render(h.log, w, r, http.StatusOK, "admin_stats.html", map[string]any{"Stats": stats})
}

func (h *AdminHandler) Logs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	logs, err := h.svc.AuditLog(r.Context(), actor(r), limit)
	if err != nil {
		fail(h.log, h.gate, w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, logs)
		return
	}
	render(h.log, w, r, http.StatusOK, "admin_logs.html", map[string]any{"Logs": logs})
}

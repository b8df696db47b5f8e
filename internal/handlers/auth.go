package handlers

import (
	"net/http"

	"github.com/synageion/synageion/auth"
	"github.com/synageion/synageion/internal/models"
	"github.com/synageion/synageion/internal/services"
	"github.com/synageion/synageion/view"
	"go.uber.org/zap"
)

type AuthHandler struct {
	svc      *services.AuthService
	sessions *auth.Manager
	log      *zap.SugaredLogger
}

func NewAuthHandler(svc *services.AuthService, sessions *auth.Manager, lg *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{svc: svc, sessions: sessions, log: lg}
}

// Root sends visitors to the dashboard or the login page.
func (h *AuthHandler) Root(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	render(h.log, w, r, http.StatusOK, "login.html", map[string]any{
		"Expired": r.URL.Query().Get("expired") == "1",
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		render(h.log, w, r, http.StatusBadRequest, "login.html", map[string]any{"Error": "form_invalid"})
		return
	}
	username := r.PostFormValue("username")
	res, err := h.svc.Login(r.Context(), username, r.PostFormValue("password"))
	if err != nil {
		status := statusFor(err)
		if services.KindOf(err) == services.KindNotFound {
			status = http.StatusUnauthorized
		}
		render(h.log, w, r, status, "login.html", map[string]any{
			"Error":    services.Code(err),
			"Username": username,
		})
		return
	}
	if old, ok := auth.FromContext(r.Context()); ok {
		h.sessions.Store().Destroy(old.ID)
	}
	h.sessions.Start(w, res.User.ID, res.User.Username, res.Role)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	render(h.log, w, r, http.StatusOK, "register.html", map[string]any{"Roles": models.ActiveRoles})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		render(h.log, w, r, http.StatusBadRequest, "register.html", map[string]any{"Error": "form_invalid", "Roles": models.ActiveRoles})
		return
	}
	in := services.RegisterInput{
		Username:      r.PostFormValue("username"),
		Password:      r.PostFormValue("password"),
		Confirm:       r.PostFormValue("confirm"),
		RequestedRole: models.RoleName(r.PostFormValue("requested_role")),
	}
	if _, err := h.svc.Register(r.Context(), in); err != nil {
		render(h.log, w, r, statusFor(err), "register.html", map[string]any{
			"Error":         services.Code(err),
			"Violations":    services.ViolationsOf(err),
			"Username":      in.Username,
			"RequestedRole": in.RequestedRole,
			"Roles":         models.ActiveRoles,
		})
		return
	}
	view.Flash(w, "registered")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.End(w, r)
	view.Flash(w, "logged_out")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) PasswordForm(w http.ResponseWriter, r *http.Request) {
	render(h.log, w, r, http.StatusOK, "account_password.html", nil)
}

// ChangePassword handles POST /account/password for the logged-in user.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.FromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		render(h.log, w, r, http.StatusBadRequest, "account_password.html", map[string]any{"Error": "form_invalid"})
		return
	}
	err := h.svc.ChangePassword(r.Context(), sess.Username,
		r.PostFormValue("current"), r.PostFormValue("new"), r.PostFormValue("confirm"))
	if err != nil {
		render(h.log, w, r, statusFor(err), "account_password.html", map[string]any{
			"Error":      services.Code(err),
			"Violations": services.ViolationsOf(err),
		})
		return
	}
	view.Flash(w, "password_changed")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

package handlers

import (
	"net/http"

	"github.com/synageion/synageion/auth"
	"github.com/synageion/synageion/internal/models"
	"github.com/synageion/synageion/internal/policy"
	"github.com/synageion/synageion/internal/services"
	"go.uber.org/zap"
)

const dashboardLogLimit = 10

// DashboardHandler renders one start page per role.
type DashboardHandler struct {
	accounts *services.AuthService
	admin    *services.AdminService
	articles *services.ArticleService
	gate     *policy.AuthGate
	log      *zap.SugaredLogger
}

func NewDashboardHandler(accounts *services.AuthService, admin *services.AdminService, articles *services.ArticleService, ag *policy.AuthGate, lg *zap.SugaredLogger) *DashboardHandler {
	return &DashboardHandler{accounts: accounts, admin: admin, articles: articles, gate: ag, log: lg}
}

// Show dispatches on the role captured at login. Every role has exactly one branch.
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.FromContext(r.Context())
	a := services.ActorFromSession(sess)
	ctx := r.Context()

	switch sess.Role {
	case models.RoleAdministrator:
		stats, err := h.admin.Statistics(ctx, a)
		if err != nil {
			fail(h.log, h.gate, w, r, err)
			return
		}
		logs, err := h.admin.AuditLog(ctx, a, dashboardLogLimit)
		if err != nil {
			fail(h.log, h.gate, w, r, err)
			return
		}
		render(h.log, w, r, http.StatusOK, "dashboard_admin.html", map[string]any{"Stats": stats, "Logs": logs})
	case models.RoleBuyer:
		articles, err := h.articles.ListActive(ctx, a)
		if err != nil {
			fail(h.log, h.gate, w, r, err)
			return
		}
		render(h.log, w, r, http.StatusOK, "dashboard_buyer.html", map[string]any{"Articles": articles})
	case models.RoleLogistics, models.RoleSales:
		u, err := h.accounts.Account(ctx, sess.UserID)
		if err != nil {
			fail(h.log, h.gate, w, r, err)
			return
		}
		name := "dashboard_sales.html"
		if sess.Role == models.RoleLogistics {
			name = "dashboard_logistics.html"
		}
		render(h.log, w, r, http.StatusOK, name, map[string]any{"User": u})
	case models.RolePending:
		render(h.log, w, r, http.StatusOK, "dashboard_pending.html", nil)
	default:
		h.log.Errorw("session with unknown role", "username", sess.Username, "role", sess.Role)
		render(h.log, w, r, http.StatusInternalServerError, "error.html", map[string]any{"Error": "invalid_role"})
	}
}

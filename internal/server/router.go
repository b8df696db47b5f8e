// Package server wires handlers, middleware and the role gate into one http.Handler.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/synageion/synageion/auth"
	"github.com/synageion/synageion/gate"
	"github.com/synageion/synageion/httpx"
	"github.com/synageion/synageion/internal/db"
	"github.com/synageion/synageion/internal/handlers"
	"github.com/synageion/synageion/internal/metrics"
	"github.com/synageion/synageion/internal/middleware"
	"github.com/synageion/synageion/internal/policy"
	"github.com/synageion/synageion/internal/services"
	"github.com/synageion/synageion/view"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options carries everything the router needs.
type Options struct {
	DB          *gorm.DB
	Log         *zap.SugaredLogger
	Metrics     *metrics.Metrics
	Sessions    *auth.Manager
	Rules       services.Rules
	DefaultLang string
}

// New constructs the root http.Handler with all routes and middlewares applied.
func New(o Options) http.Handler {
	lg := o.Log
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	roleGate := policy.NewRoleGate()
	ag := policy.NewAuthGate(roleGate, o.Metrics, lg)
	deps := services.Deps{DB: o.DB, Gate: roleGate, Log: lg, Metrics: o.Metrics}

	authSvc := services.NewAuthService(deps, o.Rules)
	adminSvc := services.NewAdminService(deps, o.Rules)
	articleSvc := services.NewArticleService(deps)

	ah := handlers.NewAuthHandler(authSvc, o.Sessions, lg)
	dh := handlers.NewDashboardHandler(authSvc, adminSvc, articleSvc, ag, lg)
	adm := handlers.NewAdminHandler(adminSvc, ag, lg)
	art := handlers.NewArticleHandler(articleSvc, ag, lg)

	view.SetLangResolver(middleware.LangFrom)

	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, requestLogger(lg, o.Metrics), chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(o.DB); err != nil {
			lg.Warnw("health check failed", "error", err)
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if o.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", o.Metrics.Handler())
	}

	r.Group(func(web chi.Router) {
		web.Use(middleware.Prefs(o.DefaultLang), o.Sessions.Middleware)

		web.Get("/", ah.Root)
		web.Get("/login", ah.LoginForm)
		web.Post("/login", ah.Login)
		web.Get("/register", ah.RegisterForm)
		web.Post("/register", ah.Register)
		web.Post("/logout", ah.Logout)

		web.Group(func(in chi.Router) {
			in.Use(auth.RequireAuth)
			in.Get("/dashboard", dh.Show)
			in.Get("/account/password", ah.PasswordForm)
			in.Post("/account/password", ah.ChangePassword)
		})

		web.Route("/admin", func(admin chi.Router) {
			admin.With(ag.RequirePermission(policy.ResourceUser, gate.ActionList)).Get("/users", adm.Users)
			admin.With(ag.RequirePermission(policy.ResourceUser, gate.ActionList)).Get("/users/pending", adm.Pending)
			admin.With(ag.RequirePermission(policy.ResourceUser, gate.ActionChangeRole)).Post("/users/{id}/role", adm.ChangeRole)
			admin.With(ag.RequirePermission(policy.ResourceUser, gate.ActionDeactivate)).Post("/users/{id}/deactivate", adm.Deactivate)
			admin.With(ag.RequirePermission(policy.ResourceUser, gate.ActionResetPassword)).Post("/users/{id}/password", adm.ResetPassword)
			admin.With(ag.RequirePermission(policy.ResourceStats, gate.ActionView)).Get("/stats", adm.Stats)
			admin.With(ag.RequirePermission(policy.ResourceAudit, gate.ActionList)).Get("/logs", adm.Logs)
		})

		web.Route("/articles", func(a chi.Router) {
			a.With(ag.RequirePermission(policy.ResourceArticle, gate.ActionList)).Get("/", art.List)
			a.With(ag.RequirePermission(policy.ResourceArticle, gate.ActionCreate)).Get("/new", art.New)
			a.With(ag.RequirePermission(policy.ResourceArticle, gate.ActionCreate)).Post("/", art.Create)
			a.With(ag.RequirePermission(policy.ResourceArticle, gate.ActionView)).Get("/{id}/edit", art.Edit)
			a.With(ag.RequirePermission(policy.ResourceArticle, gate.ActionUpdate)).Post("/{id}", art.Update)
			a.With(ag.RequirePermission(policy.ResourceArticle, gate.ActionDeactivate)).Post("/{id}/deactivate", art.Deactivate)
		})
	})

	return r
}

// requestLogger logs every request and feeds the HTTP metrics. The route
// label is the chi pattern so ids do not blow up cardinality.
func requestLogger(lg *zap.SugaredLogger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			elapsed := time.Since(start)
			m.ObserveRequest(r.Method, route, strconv.Itoa(status), elapsed.Seconds())
			lg.Infow("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration", elapsed,
				"request_id", chimw.GetReqID(r.Context()),
			)
		})
	}
}

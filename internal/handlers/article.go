package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/synageion/synageion/internal/models"
	"github.com/synageion/synageion/internal/policy"
	"github.com/synageion/synageion/internal/services"
	"github.com/synageion/synageion/validation"
	"github.com/synageion/synageion/view"
	"go.uber.org/zap"
)

type ArticleHandler struct {
	svc  *services.ArticleService
	gate *policy.AuthGate
	log  *zap.SugaredLogger
}

func NewArticleHandler(svc *services.ArticleService, ag *policy.AuthGate, lg *zap.SugaredLogger) *ArticleHandler {
	return &ArticleHandler{svc: svc, gate: ag, log: lg}
}

func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	all := r.URL.Query().Get("all") == "1"
	articles, err := h.svc.List(r.Context(), actor(r), all)
	if err != nil {
		fail(h.log, h.gate, w, r, err)
		return
	}
	render(h.log, w, r, http.StatusOK, "articles_index.html", map[string]any{
		"Articles":     articles,
		"ShowInactive": all,
	})
}

func (h *ArticleHandler) New(w http.ResponseWriter, r *http.Request) {
	render(h.log, w, r, http.StatusOK, "articles_form.html", map[string]any{"IsNew": true, "Form": services.ArticleInput{}})
}

func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, v := articleForm(r)
	if !v.Empty() {
		h.form(w, r, http.StatusUnprocessableEntity, 0, in, v, "validation_error")
		return
	}
	if _, err := h.svc.Create(r.Context(), actor(r), in); err != nil {
		h.formError(w, r, 0, in, err)
		return
	}
	view.Flash(w, "article_created")
	http.Redirect(w, r, "/articles", http.StatusSeeOther)
}

func (h *ArticleHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		fail(h.log, h.gate, w, r, services.ErrArticleNotFound)
		return
	}
	a, err := h.svc.Get(r.Context(), actor(r), id)
	if err != nil {
		fail(h.log, h.gate, w, r, err)
		return
	}
	h.form(w, r, http.StatusOK, id, inputFrom(a), nil, "")
}

func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		fail(h.log, h.gate, w, r, services.ErrArticleNotFound)
		return
	}
	in, v := articleForm(r)
	if !v.Empty() {
		h.form(w, r, http.StatusUnprocessableEntity, id, in, v, "validation_error")
		return
	}
	if _, err := h.svc.Update(r.Context(), actor(r), id, in); err != nil {
		h.formError(w, r, id, in, err)
		return
	}
	view.Flash(w, "article_updated")
	http.Redirect(w, r, "/articles", http.StatusSeeOther)
}

func (h *ArticleHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		fail(h.log, h.gate, w, r, services.ErrArticleNotFound)
		return
	}
	if err := h.svc.Deactivate(r.Context(), actor(r), id); err != nil {
		fail(h.log, h.gate, w, r, err)
		return
	}
	view.Flash(w, "article_deactivated")
	http.Redirect(w, r, "/articles", http.StatusSeeOther)
}

func (h *ArticleHandler) form(w http.ResponseWriter, r *http.Request, status int, id uint, in services.ArticleInput, v validation.Violations, code string) {
	render(h.log, w, r, status, "articles_form.html", map[string]any{
		"IsNew":      id == 0,
		"ID":         id,
		"Form":       in,
		"Violations": v,
		"Error":      code,
	})
}

// formError re-renders the form for input problems; anything else gets the error page.
func (h *ArticleHandler) formError(w http.ResponseWriter, r *http.Request, id uint, in services.ArticleInput, err error) {
	switch services.KindOf(err) {
	case services.KindValidation, services.KindDuplicate:
		h.form(w, r, statusFor(err), id, in, services.ViolationsOf(err), services.Code(err))
	default:
		fail(h.log, h.gate, w, r, err)
	}
}

// articleForm reads the posted fields. A min stock that is not a number is
// reported together with the other rule violations.
func articleForm(r *http.Request) (services.ArticleInput, validation.Violations) {
	in := services.ArticleInput{
		ArticleNumber: strings.TrimSpace(r.PostFormValue("article_number")),
		Name:          strings.TrimSpace(r.PostFormValue("name")),
		Description:   strings.TrimSpace(r.PostFormValue("description")),
	}
	raw := strings.TrimSpace(r.PostFormValue("min_stock"))
	if raw == "" {
		return in, nil
	}
	n, err := strconv.Atoi(raw)
	if err == nil {
		in.MinStock = n
		return in, nil
	}
	v := validation.Struct(in)
	v.Add("min_stock", "invalid", "")
	return in, v
}

func inputFrom(a *models.Article) services.ArticleInput {
	return services.ArticleInput{
		ArticleNumber: a.ArticleNumber,
		Name:          a.Name,
		Description:   a.Description,
		MinStock:      a.MinStock,
	}
}

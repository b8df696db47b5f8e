package middleware

import (
	"context"
	"net/http"

	"github.com/synageion/synageion/i18n"
)

type ctxKey string

const ctxLang ctxKey = "pref_lang"

const langCookie = "lang"

// Prefs resolves the UI language (query > cookie > Accept-Language > fallback)
// and stores it in the request context. A query-provided language is kept
// in a cookie for ~30 days.
func Prefs(fallback string) func(http.Handler) http.Handler {
	if !i18n.Supported(fallback) {
		fallback = i18n.DefaultLang
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := ""
			if c, err := r.Cookie(langCookie); err == nil && i18n.Supported(c.Value) {
				lang = c.Value
			}
			if ql := r.URL.Query().Get("lang"); i18n.Supported(ql) {
				lang = ql
				http.SetCookie(w, &http.Cookie{Name: langCookie, Value: lang, Path: "/", MaxAge: 86400 * 30, SameSite: http.SameSiteLaxMode})
			}
			if lang == "" && r.Header.Get("Accept-Language") != "" {
				lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
			}
			if lang == "" {
				lang = fallback
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxLang, lang)))
		})
	}
}

// LangFrom returns language preference from context or fallback.
func LangFrom(r *http.Request) string {
	if v, ok := r.Context().Value(ctxLang).(string); ok && v != "" {
		return v
	}
	return i18n.DefaultLang
}

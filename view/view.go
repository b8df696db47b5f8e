// Package view renders the server-side HTML pages. Page templates are
// embedded and wrapped in layout.html; each page defines a "content" block.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/synageion/synageion/auth"
	"github.com/synageion/synageion/i18n"
)

//go:embed templates/*.html
var embedded embed.FS

const flashCookie = "flash"

var (
	mu       sync.RWMutex
	files    fs.FS = mustSub(embedded, "templates")
	noCache  bool
	tplCache = map[string]*template.Template{}

	langResolver = func(_ *http.Request) string { return i18n.DefaultLang }
)

func mustSub(f fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(f, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// SetLangResolver allows the host app to provide a custom language resolver (e.g., reading from context).
func SetLangResolver(f func(*http.Request) string) {
	if f != nil {
		langResolver = f
	}
}

// SetFS swaps the template source, e.g. os.DirFS("view/templates") in dev mode.
// With reload set every render parses the files again.
func SetFS(f fs.FS, reload bool) {
	mu.Lock()
	defer mu.Unlock()
	files = f
	noCache = reload
	tplCache = map[string]*template.Template{}
}

// Funcs returns the standard func map including i18n and simple helpers.
// r may be nil while parsing.
func Funcs(r *http.Request) template.FuncMap {
	lang := i18n.DefaultLang
	var sess auth.Session
	var loggedIn bool
	if r != nil {
		lang = langResolver(r)
		sess, loggedIn = auth.FromContext(r.Context())
	}
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"tf":   func(code string, args ...any) string { return i18n.Tf(lang, code, args...) },
		"lang": func() string { return lang },
		"year": func() int { return time.Now().Year() },
		"roleLabel": func(role any) string {
			return i18n.T(lang, "role_"+fmt.Sprint(role))
		},
		"isRole": func(role string) bool {
			return loggedIn && string(sess.Role) == role
		},
		"fmtTime": func(v any) string {
			switch tv := v.(type) {
			case time.Time:
				if tv.IsZero() {
					return i18n.T(lang, "never")
				}
				return tv.Local().Format("2006-01-02 15:04")
			case *time.Time:
				if tv == nil || tv.IsZero() {
					return i18n.T(lang, "never")
				}
				return tv.Local().Format("2006-01-02 15:04")
			}
			return ""
		},
		// dict creates a map from key-value pairs for passing to sub-templates.
		// Usage: {{ template "partial" (dict "Key1" val1 "Key2" val2) }}
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

func load(name string) (*template.Template, error) {
	mu.RLock()
	t, ok := tplCache[name]
	src, reload := files, noCache
	mu.RUnlock()
	if ok && !reload {
		return t, nil
	}
	t, err := template.New("layout.html").Funcs(Funcs(nil)).ParseFS(src, "layout.html", "partials.html", name)
	if err != nil {
		return nil, err
	}
	if !reload {
		mu.Lock()
		tplCache[name] = t
		mu.Unlock()
	}
	return t, nil
}

// Flash stores a translation code shown once on the next rendered page.
func Flash(w http.ResponseWriter, code string) {
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: url.QueryEscape(code), Path: "/", HttpOnly: true})
}

func popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})
	code, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return code
}

// Render executes the page template name with status 200.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	return RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus renders into a buffer first so a failing template never
// produces a half-written page.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	sess, loggedIn := auth.FromContext(r.Context())
	if _, exists := data["IsLoggedIn"]; !exists {
		data["IsLoggedIn"] = loggedIn
	}
	if _, exists := data["Session"]; !exists && loggedIn {
		data["Session"] = sess
	}
	if _, exists := data["Flash"]; !exists {
		data["Flash"] = popFlash(w, r)
	}
	base, err := load(name)
	if err != nil {
		return err
	}
	t, err := base.Clone()
	if err != nil {
		return err
	}
	t.Funcs(Funcs(r))
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

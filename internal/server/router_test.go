package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synageion/synageion/auth"
	"github.com/synageion/synageion/i18n"
	"github.com/synageion/synageion/internal/config"
	"github.com/synageion/synageion/internal/db"
	"github.com/synageion/synageion/internal/metrics"
	"github.com/synageion/synageion/internal/models"
	"github.com/synageion/synageion/internal/services"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testApp struct {
	srv     *httptest.Server
	db      *gorm.DB
	clock   *testClock
	metrics *metrics.Metrics
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dbConn, err := db.Open(config.DatabaseConfig{Driver: "sqlite", Path: "file:" + name + "?mode=memory&cache=shared"}, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NoError(t, db.Setup(dbConn))
	sqlDB, err := dbConn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	lg := zaptest.NewLogger(t).Sugar()
	authSvc := services.NewAuthService(services.Deps{DB: dbConn, Log: lg}, services.DefaultRules)
	created, err := authSvc.BootstrapAdmin(t.Context(), "root", "rootpw")
	require.NoError(t, err)
	require.True(t, created)

	clock := &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	store := auth.NewStore()
	store.SetClock(clock.Now)
	sessions := auth.NewManager(store, auth.NewGuard(30*time.Minute), "test-secret")
	m := metrics.New(prometheus.NewRegistry(), store.Len)
	sessions.OnExpire = func(auth.Session) { m.SessionExpired() }

	h := New(Options{
		DB:          dbConn,
		Log:         lg,
		Metrics:     m,
		Sessions:    sessions,
		Rules:       services.DefaultRules,
		DefaultLang: "en",
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testApp{srv: srv, db: dbConn, clock: clock, metrics: m}
}

// client returns a cookie-keeping browser that does not follow redirects.
func (a *testApp) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (a *testApp) get(t *testing.T, c *http.Client, path string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(a.srv.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (a *testApp) post(t *testing.T, c *http.Client, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := c.PostForm(a.srv.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (a *testApp) login(t *testing.T, c *http.Client, username, password string) {
	t.Helper()
	resp, _ := a.post(t, c, "/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/dashboard", resp.Header.Get("Location"))
}

func (a *testApp) userID(t *testing.T, username string) uint {
	t.Helper()
	var u models.User
	require.NoError(t, a.db.Where("username = ?", username).First(&u).Error)
	return u.ID
}

func (a *testApp) roleOf(t *testing.T, username string) models.RoleName {
	t.Helper()
	var u models.User
	require.NoError(t, a.db.Preload("Role").Where("username = ?", username).First(&u).Error)
	return u.Role.Name
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func en(code string) string { return i18n.T("en", code) }

func TestRootRedirectsAnonymousToLogin(t *testing.T) {
	app := newTestApp(t)
	resp, _ := app.get(t, app.client(t), "/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, _ = app.get(t, app.client(t), "/dashboard")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestRegistrationApprovalFlow(t *testing.T) {
	app := newTestApp(t)
	alice := app.client(t)

	resp, _ := app.post(t, alice, "/register", url.Values{
		"username": {"alice1"}, "password": {"secret1"}, "confirm": {"secret1"}, "requested_role": {"Administrator"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, body := app.get(t, alice, "/login")
	assert.Contains(t, body, en("registered"))
	assert.Equal(t, models.RolePending, app.roleOf(t, "alice1"))

	app.login(t, alice, "alice1", "secret1")
	resp, body = app.get(t, alice, "/dashboard")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, en("dash_pending_text"))

	resp, body = app.get(t, alice, "/admin/users")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body, i18n.Tf("en", "forbidden_role", en("role_Administrator")))

	admin := app.client(t)
	app.login(t, admin, "root", "rootpw")
	_, body = app.get(t, admin, "/admin/users/pending")
	assert.Contains(t, body, "alice1")

	aliceID := app.userID(t, "alice1")
	resp, _ = app.post(t, admin, "/admin/users/"+itoa(aliceID)+"/role", url.Values{"role": {"Sales"}, "back": {"/admin/users/pending"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/users/pending", resp.Header.Get("Location"))
	_, body = app.get(t, admin, "/admin/users/pending")
	assert.Contains(t, body, en("role_changed"))
	assert.NotContains(t, body, "alice1")
	assert.Equal(t, models.RoleSales, app.roleOf(t, "alice1"))

	// the open session keeps the role it had at login
	_, body = app.get(t, alice, "/dashboard")
	assert.Contains(t, body, en("dash_pending_text"))

	app.login(t, alice, "alice1", "secret1")
	_, body = app.get(t, alice, "/dashboard")
	assert.Contains(t, body, en("dash_sales_text"))
	assert.Contains(t, body, "alice1")

	_, body = app.get(t, admin, "/admin/logs")
	assert.Contains(t, body, "alice1: Pending -&gt; Sales")
}

func TestLoginFailuresRenderForm(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	resp, body := app.post(t, c, "/login", url.Values{"username": {"root"}, "password": {"nope"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, en("wrong_password"))

	resp, body = app.post(t, c, "/login", url.Values{"username": {"ghost"}, "password": {"whatever"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, en("user_not_found"))

	assert.Equal(t, float64(1), testutil.ToFloat64(app.metrics.LoginsTotal.WithLabelValues("wrong_password")))
}

func TestRegisterReportsAllViolations(t *testing.T) {
	app := newTestApp(t)
	resp, body := app.post(t, app.client(t), "/register", url.Values{
		"username": {"ab"}, "password": {"123"}, "confirm": {"456"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, i18n.Tf("en", "min", "4"))
	assert.Contains(t, body, i18n.Tf("en", "min", "6"))
	assert.Contains(t, body, en("mismatch"))
}

func TestSessionExpiresAfterInactivity(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	app.login(t, c, "root", "rootpw")

	app.clock.Advance(29 * time.Minute)
	resp, _ := app.get(t, c, "/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// the request above slid the window
	app.clock.Advance(29 * time.Minute)
	resp, _ = app.get(t, c, "/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	app.clock.Advance(31 * time.Minute)
	resp, _ = app.get(t, c, "/dashboard")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?expired=1", resp.Header.Get("Location"))
	assert.Equal(t, float64(1), testutil.ToFloat64(app.metrics.SessionsExpiredTotal))

	_, body := app.get(t, c, "/login?expired=1")
	assert.Contains(t, body, en("session_expired"))
	resp, _ = app.get(t, c, "/dashboard")
	assert.Equal(t, "/login", resp.Header.Get("Location"), "identity is forgotten")
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	app.login(t, c, "root", "rootpw")

	resp, _ := app.post(t, c, "/logout", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	resp, _ = app.get(t, c, "/dashboard")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestTamperedCookieIsAnonymous(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	app.login(t, c, "root", "rootpw")

	u, _ := url.Parse(app.srv.URL)
	var forged []*http.Cookie
	for _, ck := range c.Jar.Cookies(u) {
		if ck.Name == "session" {
			ck.Value = strings.Replace(ck.Value, ".", "x.", 1)
		}
		forged = append(forged, ck)
	}
	c.Jar.SetCookies(u, forged)

	resp, _ := app.get(t, c, "/dashboard")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestStatsJSON(t *testing.T) {
	app := newTestApp(t)

	req, err := http.NewRequest(http.MethodGet, app.srv.URL+"/admin/stats", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")
	resp, err := app.client(t).Do(req)
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	admin := app.client(t)
	app.login(t, admin, "root", "rootpw")
	resp, err = admin.Do(req)
	require.NoError(t, err)
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats services.Statistics
	require.NoError(t, json.Unmarshal([]byte(body), &stats))
	assert.EqualValues(t, 1, stats.Total)
	assert.EqualValues(t, 1, stats.Counts[models.RoleAdministrator])
	require.Len(t, stats.Warnings, 1)
	assert.Equal(t, "warn_single_admin", stats.Warnings[0].Code)
}

func TestAdminCannotDemoteThemself(t *testing.T) {
	app := newTestApp(t)
	admin := app.client(t)
	app.login(t, admin, "root", "rootpw")

	resp, _ := app.post(t, admin, "/admin/users/"+itoa(app.userID(t, "root"))+"/deactivate", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, body := app.get(t, admin, "/admin/users")
	assert.Contains(t, body, en("self_modification"))
	assert.Equal(t, models.RoleAdministrator, app.roleOf(t, "root"))
}

func TestBuyerArticles(t *testing.T) {
	app := newTestApp(t)
	bob := app.client(t)
	_, _ = app.post(t, bob, "/register", url.Values{"username": {"bob1"}, "password": {"secret1"}, "confirm": {"secret1"}})

	admin := app.client(t)
	app.login(t, admin, "root", "rootpw")
	resp, _ := app.post(t, admin, "/admin/users/"+itoa(app.userID(t, "bob1"))+"/role", url.Values{"role": {"Buyer"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	app.login(t, bob, "bob1", "secret1")
	resp, body := app.post(t, bob, "/articles", url.Values{"article_number": {""}, "name": {""}, "min_stock": {"x"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, en("invalid"))

	resp, _ = app.post(t, bob, "/articles", url.Values{"article_number": {"A-100"}, "name": {"Bolt"}, "min_stock": {"5"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, body = app.get(t, bob, "/articles")
	assert.Contains(t, body, "A-100")
	assert.Contains(t, body, en("article_created"))

	resp, body = app.post(t, bob, "/articles", url.Values{"article_number": {"A-100"}, "name": {"Again"}})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body, en("duplicate_article_number"))

	var a models.Article
	require.NoError(t, app.db.Where("article_number = ?", "A-100").First(&a).Error)
	resp, _ = app.post(t, bob, "/articles/"+itoa(a.ID)+"/deactivate", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, body = app.get(t, bob, "/dashboard")
	assert.NotContains(t, body, "A-100")

	resp, _ = app.get(t, admin, "/articles")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "administrators do not inherit buyer permissions")
	resp, _ = app.get(t, bob, "/articles/999/edit")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	resp, body := app.get(t, c, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	app.login(t, c, "root", "rootpw")
	resp, body = app.get(t, c, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `synageion_logins_total{result="success"} 1`)
	assert.Contains(t, body, "synageion_sessions_active 1")
	assert.Contains(t, body, `route="/login"`)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

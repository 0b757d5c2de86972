/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-16 10:03:27
 * @FilePath: \pssuai-admin\backend\internal\server\router_test.go
 * @LastEditTime: 2025-10-24 10:22:48
 */
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"pssuai-admin/backend/internal/config"
	"pssuai-admin/backend/internal/domain/mirror"
	"pssuai-admin/backend/internal/handler"
	"pssuai-admin/backend/internal/infra/metrics"
	"pssuai-admin/backend/internal/infra/remote"
	"pssuai-admin/backend/internal/infra/session"
	"pssuai-admin/backend/internal/middleware"
	"pssuai-admin/backend/internal/repository"
	"pssuai-admin/backend/internal/service/proxy"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const cookieName = "pssuai_admin"

type routerFixture struct {
	engine        *gin.Engine
	sessions      *session.Manager
	db            *gorm.DB
	upstreamCalls *int32
}

func newRouterFixture(t *testing.T, staticDir string) routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	metrics.MustRegister()

	var calls int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	t.Cleanup(upstream.Close)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(mirror.Models()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	svc := proxy.NewService(proxy.Config{ReadTimeout: time.Second, LookupTimeout: time.Second, DeleteTimeout: time.Second},
		remote.NewClient(upstream.URL), repository.NewMirrorRepository(db), repository.NewResidentRepository(db), nil)
	sessions := session.NewManager("router-secret", time.Hour, session.NewMemoryStore())
	sessionCfg := config.SessionSettings{CookieName: cookieName}

	engine := NewRouter(RouterOptions{
		AuthHandler:   handler.NewAuthHandler(sessions, config.OperatorSettings{ID: "admin", Password: "pw"}, sessionCfg, nil),
		ProxyHandler:  handler.NewProxyHandler(svc, nil),
		HealthHandler: handler.NewHealthHandler(db),
		AuthMW:        middleware.NewAuthMiddleware(sessions, cookieName, nil),
		CORSOrigins:   []string{"http://dashboard.test"},
		StaticDir:     staticDir,
	})
	return routerFixture{engine: engine, sessions: sessions, db: db, upstreamCalls: &calls}
}

func (f routerFixture) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func (f routerFixture) login(t *testing.T) *http.Cookie {
	t.Helper()
	form := url.Values{"username": {"admin"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := f.serve(req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatalf("no session cookie")
	return nil
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	f := newRouterFixture(t, "")

	for _, target := range []string{"/api/access-events", "/api/qr-events", "/external/residents", "/auth/session"} {
		rec := f.serve(httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusFound {
			t.Fatalf("%s: expected 302, got %d", target, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/login?next="+url.QueryEscape(target) {
			t.Fatalf("%s: unexpected redirect %q", target, loc)
		}
	}

	rec := f.serve(httptest.NewRequest(http.MethodDelete, "/admin/residents/5", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("delete without session: expected 302, got %d", rec.Code)
	}
	if atomic.LoadInt32(f.upstreamCalls) != 0 {
		t.Fatalf("upstream must not be called without a session")
	}
}

func TestPreflightNeedsNoSession(t *testing.T) {
	f := newRouterFixture(t, "")

	rec := f.serve(httptest.NewRequest(http.MethodOptions, "/admin/residents/5", nil))
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("expected empty 204, got %d %q", rec.Code, rec.Body.String())
	}
	if atomic.LoadInt32(f.upstreamCalls) != 0 {
		t.Fatalf("preflight must not reach upstream")
	}
}

func TestCORSPreflightForDashboardOrigin(t *testing.T) {
	f := newRouterFixture(t, "")

	req := httptest.NewRequest(http.MethodOptions, "/admin/residents/5", nil)
	req.Header.Set("Origin", "http://dashboard.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec := f.serve(req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://dashboard.test" {
		t.Fatalf("expected origin allowed, headers: %v", rec.Header())
	}
}

func TestPreflightFromForeignOriginStill204(t *testing.T) {
	f := newRouterFixture(t, "")

	req := httptest.NewRequest(http.MethodOptions, "/admin/residents/5", nil)
	req.Header.Set("Origin", "http://other.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec := f.serve(req)

	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("expected empty 204, got %d %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("foreign origin must not be allowed, got %q", got)
	}

	// Other routes still reject the foreign origin.
	req = httptest.NewRequest(http.MethodGet, "/health/db", nil)
	req.Header.Set("Origin", "http://other.test")
	if rec = f.serve(req); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign origin, got %d", rec.Code)
	}
}

func TestAuthenticatedListFallsBack(t *testing.T) {
	f := newRouterFixture(t, "")
	cookie := f.login(t)

	if err := f.db.Create(&mirror.AccessEvent{ID: 1, Name: "cached", RawJSON: []byte(`{}`)}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/access-events", nil)
	req.AddCookie(cookie)
	rec := f.serve(req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["ok"] != false || !strings.HasPrefix(body["error"].(string), "access-events remote failed (503): maintenance") {
		t.Fatalf("unexpected body: %v", body)
	}
	if rows := body["rows"].([]any); len(rows) != 1 {
		t.Fatalf("expected fallback row, got %v", rows)
	}
}

func TestSessionEndpointAfterLogin(t *testing.T) {
	f := newRouterFixture(t, "")
	cookie := f.login(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(cookie)
	rec := f.serve(req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"operator":"admin"`) {
		t.Fatalf("unexpected session response %d %s", rec.Code, rec.Body.String())
	}
}

func TestPublicEndpoints(t *testing.T) {
	f := newRouterFixture(t, "")

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/health/db", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"db":1`) {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}

	rec = f.serve(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Fatalf("unexpected metrics response %d", rec.Code)
	}

	rec = f.serve(httptest.NewRequest(http.MethodGet, "/login", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without static pages, got %d", rec.Code)
	}
}

func TestStaticPagesAndAssets(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "js"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	files := map[string]string{
		"login.html":  "<form>login</form>",
		"admin.html":  "<main>dashboard</main>",
		"js/admin.js": "console.log('ok')",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	f := newRouterFixture(t, dir)

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/login", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "login") {
		t.Fatalf("unexpected login page %d %s", rec.Code, rec.Body.String())
	}

	rec = f.serve(httptest.NewRequest(http.MethodGet, "/static/js/admin.js", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected static asset, got %d", rec.Code)
	}

	rec = f.serve(httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("dashboard must require a session, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(f.login(t))
	rec = f.serve(req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "dashboard") {
		t.Fatalf("unexpected dashboard %d %s", rec.Code, rec.Body.String())
	}
}

func TestRecoveryReturnsJSON(t *testing.T) {
	f := newRouterFixture(t, "")
	f.engine.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"error":"internal server error","ok":false}` {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newRouterFixture(t, "")
	cookie := f.login(t)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	rec := f.serve(req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}

	if _, err := f.sessions.Verify(context.Background(), cookie.Value); err == nil {
		t.Fatalf("expected session revoked")
	}
}

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"techstore/internal/cart"
	"techstore/internal/config"
	"techstore/internal/domain"
	"techstore/internal/http/handlers"
	"techstore/internal/repos"
	"techstore/internal/services"
)

const (
	templatesDir = "../../web/templates"
	staffPass    = "Passw0rd!"
)

type testApp struct {
	app  *fiber.App
	db   *sqlx.DB
	deps *handlers.Deps
}

func noLimits() handlers.Limits { return handlers.Limits{} }

func newTestApp(t *testing.T, lim handlers.Limits, ext handlers.Externals) *testApp {
	t.Helper()
	return newTestAppWith(t, handlers.AppOptions{Limits: lim}, ext)
}

func newTestAppWith(t *testing.T, opts handlers.AppOptions, ext handlers.Externals) *testApp {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if ext.Carts == nil {
		reg := cart.NewRegistry(cart.Tiers{
			Durable: repos.NewSnapshotRepo(db),
			Backup:  repos.NewSnapshotBackupRepo(db),
		}, cart.RegistryOptions{Debounce: time.Hour})
		t.Cleanup(func() { reg.Close(context.Background()) })
		ext.Carts = reg
	}
	if ext.Now == nil {
		ext.Now = func() time.Time { return time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC) }
	}
	cfg := config.Config{ClearCartOnReservation: true}
	deps := handlers.NewDeps(db, cfg, ext)
	opts.TemplatesDir = templatesDir
	app := handlers.NewApp(deps, opts)
	return &testApp{app: app, db: db, deps: deps}
}

// staff creates an account with role; the first call seeds a super admin.
func (ta *testApp) staff(t *testing.T, email, role string) *domain.User {
	t.Helper()
	u, err := ta.deps.Staff.Create(context.Background(), services.StaffInput{Email: email, Name: "Staff Member", Password: staffPass, Role: role})
	if err != nil {
		t.Fatalf("create staff: %v", err)
	}
	return u
}

// login signs email in and returns the sid cookie value.
func (ta *testApp) login(t *testing.T, email string) string {
	t.Helper()
	resp := ta.do(t, "POST", "/api/v1/auth/login", map[string]string{"email": email, "password": staffPass}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: %d %s", email, resp.StatusCode, readBody(resp))
	}
	sid := cookie(resp, "sid")
	if sid == "" {
		t.Fatal("login did not set sid")
	}
	return sid
}

func (ta *testApp) do(t *testing.T, method, path string, body any, sid string, headers ...string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func cookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func readBody(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

// visitor opens a session and returns its sid.
func (ta *testApp) visitor(t *testing.T) string {
	t.Helper()
	resp := ta.do(t, "GET", "/api/v1/cart", nil, "")
	sid := cookie(resp, "sid")
	if sid == "" {
		t.Fatal("no sid cookie issued")
	}
	return sid
}

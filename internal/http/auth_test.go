package handlers_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"techstore/internal/domain"
	"techstore/internal/http/handlers"
)

func TestPasswordsStoredHashed(t *testing.T) {
	ta := newTestApp(t, noLimits(), handlers.Externals{})
	ta.staff(t, "owner@shop.test", domain.RoleSuperAdmin)

	var hashes []string
	if err := ta.db.Select(&hashes, `SELECT password_hash FROM users`); err != nil {
		t.Fatalf("select hashes: %v", err)
	}
	for _, h := range hashes {
		if strings.Contains(h, staffPass) {
			t.Fatal("hash contains plaintext password")
		}
		if !strings.HasPrefix(h, "$2") {
			t.Fatalf("unexpected hash format: %s", h)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(h), []byte(staffPass)); err != nil {
			t.Fatalf("hash does not validate: %v", err)
		}
	}
}

func TestLoginSuccessFailAndThrottle(t *testing.T) {
	ta := newTestApp(t, handlers.Limits{Login: 3, LoginWindow: time.Minute}, handlers.Externals{})
	ta.staff(t, "owner@shop.test", domain.RoleSuperAdmin)

	resp := ta.do(t, "POST", "/api/v1/auth/login", map[string]string{"email": "owner@shop.test", "password": "wrong"}, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", resp.StatusCode)
	}
	if body := readBody(resp); !strings.Contains(body, "Invalid email or password") {
		t.Fatalf("missing alert: %s", body)
	}

	sid := ta.login(t, "owner@shop.test")
	resp = ta.do(t, "GET", "/api/v1/auth/me", nil, sid)
	var me struct {
		User    domain.User `json:"user"`
		IsAdmin bool        `json:"is_admin"`
		Role    string      `json:"role"`
	}
	decode(t, resp, &me)
	if !me.IsAdmin || me.Role != domain.RoleSuperAdmin || me.User.Email != "owner@shop.test" {
		t.Fatalf("unexpected /me: %+v", me)
	}

	// third attempt still counts against the budget of three
	resp = ta.do(t, "POST", "/api/v1/auth/login", map[string]string{"email": "owner@shop.test", "password": "wrong"}, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("third attempt: expected 401, got %d", resp.StatusCode)
	}
	resp = ta.do(t, "POST", "/api/v1/auth/login", map[string]string{"email": "owner@shop.test", "password": staffPass}, "")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", resp.StatusCode)
	}
}

func TestLoginMessageInArabic(t *testing.T) {
	ta := newTestApp(t, noLimits(), handlers.Externals{})
	resp := ta.do(t, "POST", "/api/v1/auth/login", map[string]string{"email": "x@shop.test", "password": "nope"}, "", "Accept-Language", "ar-SA,ar;q=0.9")
	var body map[string]string
	decode(t, resp, &body)
	if body["message"] != body["error_ar"] || body["error_ar"] == "" {
		t.Fatalf("expected Arabic message, got %v", body)
	}
	if body["error"] != "Invalid email or password" {
		t.Fatalf("english message missing: %v", body)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	ta := newTestApp(t, noLimits(), handlers.Externals{})
	ta.staff(t, "owner@shop.test", domain.RoleSuperAdmin)
	sid := ta.login(t, "owner@shop.test")

	if resp := ta.do(t, "POST", "/api/v1/auth/logout", nil, sid); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout: %d", resp.StatusCode)
	}
	if resp := ta.do(t, "GET", "/api/v1/auth/me", nil, sid); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}
	if resp := ta.do(t, "GET", "/api/v1/admin/products", nil, sid); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("admin after logout: %d", resp.StatusCode)
	}
}

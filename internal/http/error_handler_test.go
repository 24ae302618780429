package handlers_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"techstore/internal/http/handlers"
)

func TestErrorHandlerFriendlyMessage(t *testing.T) {
	app := fiber.New(fiber.Config{Views: html.New(templatesDir, ".html"), ErrorHandler: handlers.ErrorHandler})
	app.Use(requestid.New())
	app.Get("/err", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusInternalServerError, "db timeout: secret trace")
	})
	app.Get("/api/v1/err", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusInternalServerError, "db timeout: secret trace")
	})

	for _, path := range []string{"/err", "/api/v1/err"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatalf("test request failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusInternalServerError {
			t.Fatalf("%s: expected 500, got %d", path, resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		s := string(body)
		if !strings.Contains(s, "Something went wrong") {
			t.Fatalf("%s: friendly message missing; body=%s", path, s)
		}
		if strings.Contains(s, "db timeout") || strings.Contains(s, "secret") {
			t.Fatalf("%s: internal details leaked; body=%s", path, s)
		}
	}
}

func TestPanicIsRecovered(t *testing.T) {
	app := fiber.New(fiber.Config{Views: html.New(templatesDir, ".html"), ErrorHandler: handlers.ErrorHandler})
	app.Use(recover.New())
	app.Get("/boom", func(c *fiber.Ctx) error { panic("nil map in handler") })

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if body := readBody(resp); strings.Contains(body, "nil map") {
		t.Fatalf("panic value leaked: %s", body)
	}
}

func TestNotFoundPages(t *testing.T) {
	ta := newTestApp(t, noLimits(), handlers.Externals{})

	resp := ta.do(t, "GET", "/no/such/page", nil, "", "Accept-Language", "ar")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if body := readBody(resp); !strings.Contains(body, "الصفحة غير موجودة") || !strings.Contains(body, `dir="rtl"`) {
		t.Fatalf("arabic 404 page expected: %s", body)
	}

	resp = ta.do(t, "GET", "/api/v1/nope", nil, "")
	if ct := resp.Header.Get("Content-Type"); resp.StatusCode != fiber.StatusNotFound || !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("api 404 should be json: %d %s", resp.StatusCode, ct)
	}
}

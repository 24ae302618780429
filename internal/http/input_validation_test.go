package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"techstore/internal/http/handlers"
)

func TestCatalogInputValidation(t *testing.T) {
	ta := newTestApp(t, noLimits(), handlers.Externals{})

	cases := []struct {
		path string
		want int
	}{
		{"/api/v1/products?q=" + strings.Repeat("%3C", 3) + "script", http.StatusBadRequest},
		{"/api/v1/products?category_id=lap%20tops", http.StatusBadRequest},
		{"/api/v1/products?q=keyboard", http.StatusOK},
		{"/api/v1/products?q=%D9%84%D9%88%D8%AD%D8%A9", http.StatusOK},
		{"/api/v1/products/..%2Fetc", http.StatusNotFound},
		{"/api/v1/products/lap-001", http.StatusOK},
		{"/api/v1/availability?productId=", http.StatusBadRequest},
		{"/api/v1/availability?productId=acc-002", http.StatusOK},
	}
	for _, tc := range cases {
		resp := ta.do(t, "GET", tc.path, nil, "")
		if resp.StatusCode != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.want, resp.StatusCode)
		}
	}
}

func TestSearchMatchesEitherLanguage(t *testing.T) {
	ta := newTestApp(t, noLimits(), handlers.Externals{})
	for _, q := range []string{"logitech", "%D9%84%D9%88%D8%AD%D8%A9"} {
		var out struct {
			Count int `json:"count"`
		}
		decode(t, ta.do(t, "GET", "/api/v1/products?q="+q, nil, ""), &out)
		if out.Count == 0 {
			t.Fatalf("q=%s: no results", q)
		}
	}
}

func TestCartInputValidation(t *testing.T) {
	ta := newTestApp(t, noLimits(), handlers.Externals{})
	sid := ta.visitor(t)

	bad := []map[string]any{
		{"product_id": "lap-001", "quantity": 51},
		{"product_id": "lap 001"},
		{"product_id": "lap-001", "notes": strings.Repeat("n", 201)},
	}
	for _, body := range bad {
		if resp := ta.do(t, "POST", "/api/v1/cart/items", body, sid); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%v: expected 400, got %d", body, resp.StatusCode)
		}
	}
	if resp := ta.do(t, "PATCH", "/api/v1/cart/items/lap-001", map[string]int{"quantity": 99}, sid); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("patch over max: %d", resp.StatusCode)
	}
}

func TestReservationFieldErrors(t *testing.T) {
	ta := newTestApp(t, noLimits(), handlers.Externals{})
	sid := ta.visitor(t)
	ta.do(t, "POST", "/api/v1/cart/items", map[string]any{"product_id": "cmp-001"}, sid)

	resp := ta.do(t, "POST", "/api/v1/reservations", map[string]string{
		"customer_name": "Omar", "customer_phone": "12", "pickup_branch": "Riyadh Main",
		"proposed_date": "2026-10-20", "proposed_time": "12:00",
	}, sid)
	var body map[string]string
	decode(t, resp, &body)
	if resp.StatusCode != http.StatusBadRequest || body["field"] != "customer_phone" {
		t.Fatalf("expected customer_phone error, got %d %v", resp.StatusCode, body)
	}
	if body["error_ar"] == "" {
		t.Fatal("arabic alert missing")
	}
}

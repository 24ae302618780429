package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"techstore/internal/domain"
	"techstore/internal/http/handlers"
	applog "techstore/internal/log"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := applog.L()
	applog.SetLogger(zap.New(core))
	t.Cleanup(func() { applog.SetLogger(prev) })
	return logs
}

func entry(logs *observer.ObservedLogs, action string) (observer.LoggedEntry, bool) {
	found := logs.FilterMessage(action).All()
	if len(found) == 0 {
		return observer.LoggedEntry{}, false
	}
	return found[len(found)-1], true
}

func TestLogAuthEvents(t *testing.T) {
	ta := newTestApp(t, noLimits(), handlers.Externals{})
	ta.staff(t, "owner@shop.test", domain.RoleSuperAdmin)
	logs := observe(t)

	ta.do(t, "POST", "/api/v1/auth/login", map[string]string{"email": "owner@shop.test", "password": "bad"}, "")
	e, ok := entry(logs, "auth.login.fail")
	require.True(t, ok, "login failure not logged")
	assert.Equal(t, zapcore.WarnLevel, e.Level)
	assert.Equal(t, "security", e.ContextMap()["kind"])
	_, hasPass := e.ContextMap()["fields"].(map[string]any)["password"]
	assert.False(t, hasPass, "password must never be logged")

	ta.login(t, "owner@shop.test")
	e, ok = entry(logs, "auth.login.success")
	require.True(t, ok)
	assert.Equal(t, "audit", e.ContextMap()["kind"])
	assert.NotEmpty(t, e.ContextMap()["req_id"])
}

func TestLogAccessDenied(t *testing.T) {
	ta := newTestApp(t, noLimits(), handlers.Externals{})
	ta.staff(t, "owner@shop.test", domain.RoleSuperAdmin)
	ta.staff(t, "ed@shop.test", domain.RoleEditor)
	editor := ta.login(t, "ed@shop.test")
	logs := observe(t)

	resp := ta.do(t, "GET", "/api/v1/admin/staff", nil, editor)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	e, ok := entry(logs, "access.denied.role")
	require.True(t, ok)
	assert.Equal(t, "/api/v1/admin/staff", e.ContextMap()["path"])
}

func TestLogAdminAudit(t *testing.T) {
	ta := newTestApp(t, noLimits(), handlers.Externals{})
	ta.staff(t, "owner@shop.test", domain.RoleSuperAdmin)
	sid := ta.login(t, "owner@shop.test")
	logs := observe(t)

	resp := ta.do(t, "PUT", "/api/v1/admin/stock/cmp-001", map[string]int{"qty": 3}, sid)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	e, ok := entry(logs, "admin.stock.save")
	require.True(t, ok)
	assert.NotEmpty(t, e.ContextMap()["user_id"])
	fields := e.ContextMap()["fields"].(map[string]any)
	assert.Equal(t, "cmp-001", fields["product"])
}

func TestLogValidationAndReservation(t *testing.T) {
	ta := newTestApp(t, noLimits(), handlers.Externals{})
	sid := ta.visitor(t)
	logs := observe(t)

	ta.do(t, "GET", "/api/v1/products?q=%3Cscript%3E", nil, sid)
	e, ok := entry(logs, "validation.fail")
	require.True(t, ok)
	assert.Equal(t, "q", e.ContextMap()["fields"].(map[string]any)["field"])

	ta.do(t, "POST", "/api/v1/cart/items", map[string]any{"product_id": "lap-002"}, sid)
	ta.do(t, "POST", "/api/v1/reservations", map[string]string{
		"customer_name": "Sara", "customer_phone": "+966500001111", "pickup_branch": "Riyadh Main",
		"proposed_date": "2026-10-16", "proposed_time": "11:00",
	}, sid)
	e, ok = entry(logs, "reservation.submit")
	require.True(t, ok)
	fields := e.ContextMap()["fields"].(map[string]any)
	assert.Equal(t, "1249.5", fields["total"])
	assert.Equal(t, "Riyadh Main", fields["branch"])
}

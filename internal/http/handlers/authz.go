package handlers

import (
	"github.com/gofiber/fiber/v2"

	"techstore/internal/domain"
	applog "techstore/internal/log"
	"techstore/internal/services"
)

// RequireAdmin lets any staff role through and stores the user and role in Locals.
func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := sessionID(c)
		if sid == "" {
			return alert(c, fiber.StatusUnauthorized, "unauthorized", nil)
		}
		u, err := auth.CurrentUser(c.UserContext(), sid)
		if err != nil || u == nil {
			applog.Security(c, "access.denied.admin", map[string]any{"reason": "no_session"})
			return alert(c, fiber.StatusUnauthorized, "unauthorized", nil)
		}
		ok, role, err := auth.IsAdmin(c.UserContext(), u.ID)
		if err != nil {
			return fail(c, "authz.admin.fail", err)
		}
		if !ok {
			applog.Security(c, "access.denied.admin", map[string]any{"user_id": u.ID})
			return alert(c, fiber.StatusForbidden, "forbidden", nil)
		}
		c.Locals("user", u)
		c.Locals("user_id", u.ID)
		c.Locals("role", role)
		return c.Next()
	}
}

// RequireRole must run after RequireAdmin.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		applog.Security(c, "access.denied.role", map[string]any{"role": role, "need": roles})
		return alert(c, fiber.StatusForbidden, "forbidden", nil)
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

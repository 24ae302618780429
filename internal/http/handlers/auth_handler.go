package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"techstore/internal/log"
	"techstore/internal/services"
	"techstore/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
	// Secure marks the sid cookie for HTTPS only.
	Secure bool
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidField(c, "body")
	}
	email, ok := validate.Email(req.Email)
	if !ok || req.Password == "" || len(req.Password) > 64 {
		log.Security(c, "auth.login.fail", map[string]any{"email": req.Email, "reason": "bad_format"})
		return alert(c, fiber.StatusUnauthorized, "bad_creds", nil)
	}

	sid := sessionID(c)
	if sid == "" {
		sid = uuid.NewString()
	}
	u, err := h.Auth.Login(c.UserContext(), sid, email, req.Password)
	if err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"email": email})
		return fail(c, "auth.login.error", err)
	}
	setSID(c, sid, h.Secure, time.Time{})
	c.Locals("user_id", u.ID)
	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.JSON(fiber.Map{"user": u})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := sessionID(c)
	if sid != "" {
		if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
			return fail(c, "auth.logout.fail", err)
		}
	}
	setSID(c, "", h.Secure, time.Now().Add(-time.Hour))
	log.Audit(c, "auth.logout", nil)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u, err := h.Auth.CurrentUser(c.UserContext(), sessionID(c))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return alert(c, fiber.StatusUnauthorized, "unauthorized", nil)
		}
		return fail(c, "auth.me.fail", err)
	}
	ok, role, err := h.Auth.IsAdmin(c.UserContext(), u.ID)
	if err != nil {
		return fail(c, "auth.me.fail", err)
	}
	return c.JSON(fiber.Map{"user": u, "is_admin": ok, "role": role})
}

package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"techstore/internal/services"
)

const sidCookie = "sid"

func setSID(c *fiber.Ctx, sid string, secure bool, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   secure,
		Expires:  expires,
	})
}

// Session gives every visitor a sid cookie and, when that session is signed
// in, puts the user into Locals.
func Session(auth *services.AuthService, secure bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(sidCookie)
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
			setSID(c, sid, secure, time.Time{})
		} else if auth != nil {
			if u, err := auth.CurrentUser(c.UserContext(), sid); err == nil && u != nil {
				c.Locals("user", u)
				c.Locals("user_id", u.ID)
			}
		}
		c.Locals(sidCookie, sid)
		return c.Next()
	}
}

// sessionID reads the id Session stored, falling back to the raw cookie.
func sessionID(c *fiber.Ctx) string {
	if sid, ok := c.Locals(sidCookie).(string); ok && sid != "" {
		return sid
	}
	return c.Cookies(sidCookie)
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"techstore/internal/domain"
	applog "techstore/internal/log"
	"techstore/internal/services"
)

type SettingsHandler struct {
	Settings *services.SettingsService
}

func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	st, err := h.Settings.Get(c.UserContext())
	if err != nil {
		return fail(c, "settings.get.fail", err)
	}
	return c.JSON(st)
}

// PUT /admin/settings
func (h *SettingsHandler) Save(c *fiber.Ctx) error {
	var in domain.Settings
	if err := c.BodyParser(&in); err != nil {
		return invalidField(c, "body")
	}
	st, err := h.Settings.Save(c.UserContext(), in)
	if err != nil {
		return fail(c, "admin.settings.save.fail", err)
	}
	applog.Audit(c, "admin.settings.save", map[string]any{"branches": len(st.Branches)})
	return c.JSON(st)
}

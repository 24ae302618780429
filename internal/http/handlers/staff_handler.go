package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "techstore/internal/log"
	"techstore/internal/services"
)

type StaffHandler struct {
	Staff *services.StaffService
}

func (h *StaffHandler) List(c *fiber.Ctx) error {
	users, err := h.Staff.List(c.UserContext())
	if err != nil {
		return fail(c, "admin.staff.list.fail", err)
	}
	return c.JSON(fiber.Map{"staff": users})
}

func (h *StaffHandler) Create(c *fiber.Ctx) error {
	var in services.StaffInput
	if err := c.BodyParser(&in); err != nil {
		return invalidField(c, "body")
	}
	u, err := h.Staff.Create(c.UserContext(), in)
	if err != nil {
		return fail(c, "admin.staff.create.fail", err)
	}
	applog.Audit(c, "admin.staff.create", map[string]any{"staff": u.ID, "role": u.Role})
	return c.Status(fiber.StatusCreated).JSON(u)
}

// POST /admin/staff/:id/role {"role": "..."}
func (h *StaffHandler) ChangeRole(c *fiber.Ctx) error {
	var body struct {
		Role string `json:"role" form:"role"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidField(c, "role")
	}
	id := c.Params("id")
	if err := h.Staff.ChangeRole(c.UserContext(), actorID(c), id, body.Role); err != nil {
		return fail(c, "admin.staff.role.fail", err)
	}
	applog.Audit(c, "admin.staff.role", map[string]any{"staff": id, "role": body.Role})
	return c.JSON(fiber.Map{"id": id, "role": body.Role})
}

func (h *StaffHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Staff.Delete(c.UserContext(), actorID(c), id); err != nil {
		return fail(c, "admin.staff.delete.fail", err)
	}
	applog.Audit(c, "admin.staff.delete", map[string]any{"staff": id})
	return c.SendStatus(fiber.StatusNoContent)
}

func actorID(c *fiber.Ctx) string {
	if u := currentUser(c); u != nil {
		return u.ID
	}
	return ""
}

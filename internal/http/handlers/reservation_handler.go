package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "techstore/internal/log"
	"techstore/internal/services"
)

type ReservationHandler struct {
	Reservations *services.ReservationService
}

// POST /api/v1/reservations
func (h *ReservationHandler) Submit(c *fiber.Ctx) error {
	var form services.ReservationForm
	if err := c.BodyParser(&form); err != nil {
		return invalidField(c, "body")
	}
	res, err := h.Reservations.Submit(c.UserContext(), sessionID(c), form)
	if err != nil {
		return fail(c, "reservation.submit.fail", err)
	}
	applog.Audit(c, "reservation.submit", map[string]any{
		"ref":    res.ReferenceNumber,
		"total":  res.TotalAmount.String(),
		"items":  len(res.Items),
		"branch": res.PickupBranch,
	})
	return c.Status(fiber.StatusCreated).JSON(res)
}

// GET /reservation/:ref renders the confirmation page.
func (h *ReservationHandler) Page(c *fiber.Ctx) error {
	ref := strings.ToUpper(strings.TrimSpace(c.Params("ref")))
	if !strings.HasPrefix(ref, "RSV-") || len(ref) > 32 {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": localized(c, "not_found"), "Lang": lang(c)})
	}
	res, err := h.Reservations.Lookup(c.UserContext(), ref)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			applog.Error(c, "reservation.page.fail", err, nil)
		}
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": localized(c, "not_found"), "Lang": lang(c)})
	}
	return render(c, "reservation", fiber.Map{"R": res})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"techstore/internal/log"
	"techstore/internal/services"
	"techstore/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

type addItemRequest struct {
	ProductID string `json:"product_id" form:"product_id"`
	Quantity  int    `json:"quantity" form:"quantity"`
	Notes     string `json:"notes" form:"notes"`
}

type updateItemRequest struct {
	Quantity *int    `json:"quantity"`
	Notes    *string `json:"notes"`
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	cv, err := h.Cart.View(c.UserContext(), sessionID(c))
	if err != nil {
		return fail(c, "cart.view.fail", err)
	}
	return c.JSON(cv)
}

// POST /api/v1/cart/items
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var req addItemRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidField(c, "body")
	}
	if req.ProductID == "" {
		return alert(c, fiber.StatusBadRequest, "missing_product", nil)
	}
	id, ok := validate.ID(req.ProductID)
	if !ok {
		return invalidField(c, "product_id")
	}
	if req.Quantity > validate.MaxQty {
		return invalidField(c, "quantity")
	}
	notes, ok := validate.Text(req.Notes, 200)
	if !ok {
		return invalidField(c, "notes")
	}
	cv, err := h.Cart.Add(c.UserContext(), sessionID(c), id, req.Quantity, notes)
	if err != nil {
		return fail(c, "cart.add.fail", err)
	}
	log.Info(c, "cart.add", map[string]any{"product": id, "qty": req.Quantity})
	return c.Status(fiber.StatusCreated).JSON(cv)
}

// PATCH /api/v1/cart/items/:productId. Quantity zero or less removes the line.
func (h *CartHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("productId"))
	if !ok {
		return invalidField(c, "productId")
	}
	var req updateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidField(c, "body")
	}
	if req.Quantity != nil && !validate.SetQty(*req.Quantity) {
		return invalidField(c, "quantity")
	}
	if req.Notes != nil {
		n, ok := validate.Text(*req.Notes, 200)
		if !ok {
			return invalidField(c, "notes")
		}
		req.Notes = &n
	}
	cv, err := h.Cart.Update(c.UserContext(), sessionID(c), id, req.Quantity, req.Notes)
	if err != nil {
		return fail(c, "cart.update.fail", err)
	}
	return c.JSON(cv)
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("productId"))
	if !ok {
		return invalidField(c, "productId")
	}
	cv, err := h.Cart.Remove(c.UserContext(), sessionID(c), id)
	if err != nil {
		return fail(c, "cart.remove.fail", err)
	}
	return c.JSON(cv)
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	cv, err := h.Cart.Clear(c.UserContext(), sessionID(c))
	if err != nil {
		return fail(c, "cart.clear.fail", err)
	}
	return c.JSON(cv)
}

func (h *CartHandler) Refresh(c *fiber.Ctx) error {
	cv, err := h.Cart.Refresh(c.UserContext(), sessionID(c))
	if err != nil {
		return fail(c, "cart.refresh.fail", err)
	}
	return c.JSON(cv)
}

// GET /api/v1/cart/status
func (h *CartHandler) Status(c *fiber.Ctx) error {
	st, err := h.Cart.Status(c.UserContext(), sessionID(c))
	if err != nil {
		return fail(c, "cart.status.fail", err)
	}
	return c.JSON(st)
}

package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "techstore/internal/log"
	"techstore/internal/services"
	"techstore/internal/validate"
)

// maxImageBytes caps one product image upload.
const maxImageBytes = 5 << 20

type AdminHandler struct {
	Catalog      *services.CatalogService
	Stock        *services.StockService
	Reservations *services.ReservationService
}

// GET /admin/products
func (h *AdminHandler) Products(c *fiber.Ctx) error {
	q, ok := (&CatalogHandler{}).query(c, true)
	if !ok {
		return nil
	}
	products, err := h.Catalog.ListProducts(c.UserContext(), q)
	if err != nil {
		return fail(c, "admin.products.list.fail", err)
	}
	return c.JSON(fiber.Map{"products": products, "count": len(products)})
}

func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return invalidField(c, "body")
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), in)
	if err != nil {
		return fail(c, "admin.products.create.fail", err)
	}
	applog.Audit(c, "admin.products.create", map[string]any{"product": p.ID})
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return invalidField(c, "id")
	}
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return invalidField(c, "body")
	}
	p, err := h.Catalog.UpdateProduct(c.UserContext(), id, in)
	if err != nil {
		return fail(c, "admin.products.update.fail", err)
	}
	applog.Audit(c, "admin.products.update", map[string]any{"product": id})
	return c.JSON(p)
}

func (h *AdminHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return invalidField(c, "id")
	}
	if err := h.Catalog.DeleteProduct(c.UserContext(), id); err != nil {
		return fail(c, "admin.products.delete.fail", err)
	}
	applog.Audit(c, "admin.products.delete", map[string]any{"product": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// POST /admin/products/:id/active {"active": bool}
func (h *AdminHandler) SetActive(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return invalidField(c, "id")
	}
	var body struct {
		Active *bool `json:"active"`
	}
	if err := c.BodyParser(&body); err != nil || body.Active == nil {
		return invalidField(c, "active")
	}
	if err := h.Catalog.SetActive(c.UserContext(), id, *body.Active); err != nil {
		return fail(c, "admin.products.active.fail", err)
	}
	applog.Audit(c, "admin.products.active", map[string]any{"product": id, "active": *body.Active})
	return c.JSON(fiber.Map{"id": id, "active": *body.Active})
}

// POST /admin/products/:id/images, multipart field "image".
func (h *AdminHandler) UploadImage(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return invalidField(c, "id")
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return invalidField(c, "image")
	}
	if fh.Size > maxImageBytes {
		return invalidField(c, "image")
	}
	f, err := fh.Open()
	if err != nil {
		return fail(c, "admin.products.image.open", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return fail(c, "admin.products.image.read", err)
	}
	if len(data) > maxImageBytes || !strings.HasPrefix(http.DetectContentType(data), "image/") {
		applog.Security(c, "admin.products.image.reject", map[string]any{"product": id, "size": len(data)})
		return invalidField(c, "image")
	}

	images, err := h.Catalog.UploadImage(c.UserContext(), id, filepath.Base(fh.Filename), data)
	if err != nil {
		return fail(c, "admin.products.image.fail", err)
	}
	applog.Audit(c, "admin.products.image", map[string]any{"product": id, "images": len(images)})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"images": images})
}

func (h *AdminHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, "admin.categories.list.fail", err)
	}
	return c.JSON(fiber.Map{"categories": cats})
}

func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	var in services.CategoryInput
	if err := c.BodyParser(&in); err != nil {
		return invalidField(c, "body")
	}
	cat, err := h.Catalog.CreateCategory(c.UserContext(), in)
	if err != nil {
		return fail(c, "admin.categories.create.fail", err)
	}
	applog.Audit(c, "admin.categories.create", map[string]any{"category": cat.ID})
	return c.Status(fiber.StatusCreated).JSON(cat)
}

func (h *AdminHandler) UpdateCategory(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return invalidField(c, "id")
	}
	var in services.CategoryInput
	if err := c.BodyParser(&in); err != nil {
		return invalidField(c, "body")
	}
	cat, err := h.Catalog.UpdateCategory(c.UserContext(), id, in)
	if err != nil {
		return fail(c, "admin.categories.update.fail", err)
	}
	applog.Audit(c, "admin.categories.update", map[string]any{"category": id})
	return c.JSON(cat)
}

func (h *AdminHandler) DeleteCategory(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return invalidField(c, "id")
	}
	if err := h.Catalog.DeleteCategory(c.UserContext(), id); err != nil {
		return fail(c, "admin.categories.delete.fail", err)
	}
	applog.Audit(c, "admin.categories.delete", map[string]any{"category": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /admin/reservations?status=
func (h *AdminHandler) ListReservations(c *fiber.Ctx) error {
	list, err := h.Reservations.List(c.UserContext(), strings.TrimSpace(c.Query("status")))
	if err != nil {
		return fail(c, "admin.reservations.list.fail", err)
	}
	return c.JSON(fiber.Map{"reservations": list, "count": len(list)})
}

func (h *AdminHandler) Reservation(c *fiber.Ctx) error {
	res, err := h.Reservations.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, "admin.reservations.get.fail", err)
	}
	return c.JSON(res)
}

// POST /admin/reservations/:id/status {"status": "..."}
func (h *AdminHandler) UpdateReservationStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	var body struct {
		Status string `json:"status" form:"status"`
	}
	if err := c.BodyParser(&body); err != nil || id == "" {
		return invalidField(c, "status")
	}
	if err := h.Reservations.UpdateStatus(c.UserContext(), id, body.Status); err != nil {
		return fail(c, "admin.reservations.update.fail", err)
	}
	applog.Audit(c, "admin.reservations.update", map[string]any{"reservation": id, "status": body.Status})
	return c.JSON(fiber.Map{"id": id, "status": body.Status})
}

// GET /admin/stock
func (h *AdminHandler) ListStock(c *fiber.Ctx) error {
	rows, err := h.Stock.List(c.UserContext())
	if err != nil {
		return fail(c, "admin.stock.list.fail", err)
	}
	return c.JSON(fiber.Map{"rows": rows})
}

// PUT /admin/stock/:productId {"qty": n}
func (h *AdminHandler) SetStock(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("productId"))
	if !ok {
		return invalidField(c, "productId")
	}
	var body struct {
		Qty *int `json:"qty"`
	}
	if err := c.BodyParser(&body); err != nil || body.Qty == nil {
		return invalidField(c, "qty")
	}
	if err := h.Stock.Set(c.UserContext(), id, *body.Qty); err != nil {
		return fail(c, "admin.stock.save.fail", err)
	}
	applog.Audit(c, "admin.stock.save", map[string]any{"product": id, "qty": *body.Qty})
	return c.JSON(fiber.Map{"product_id": id, "qty": *body.Qty})
}

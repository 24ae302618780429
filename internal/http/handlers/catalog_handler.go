package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"techstore/internal/log"
	"techstore/internal/services"
	"techstore/internal/validate"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
	Stock   *services.StockService
}

// GET /api/v1/products?category_id=&q=&page=&page_size=
func (h *CatalogHandler) Products(c *fiber.Ctx) error {
	q, ok := h.query(c, false)
	if !ok {
		return nil
	}
	products, err := h.Catalog.ListProducts(c.UserContext(), q)
	if err != nil {
		return fail(c, "catalog.products.fail", err)
	}
	return c.JSON(fiber.Map{"products": products, "page": max(q.Page, 1), "count": len(products)})
}

// query parses list filters. On a bad filter it has already written the response.
func (h *CatalogHandler) query(c *fiber.Ctx, admin bool) (services.ProductQuery, bool) {
	q := services.ProductQuery{Admin: admin}
	if raw := strings.TrimSpace(c.Query("q")); raw != "" {
		v, ok := validate.Q(raw)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "q", "value": raw})
			_ = alert(c, fiber.StatusBadRequest, "invalid", fiber.Map{"field": "q"})
			return q, false
		}
		q.Q = v
	}
	if raw := strings.TrimSpace(c.Query("category_id")); raw != "" {
		v, ok := validate.ID(raw)
		if !ok {
			_ = invalidField(c, "category_id")
			return q, false
		}
		q.CategoryID = v
	}
	q.Page, _ = strconv.Atoi(c.Query("page"))
	q.PageSize, _ = strconv.Atoi(c.Query("page_size"))
	return q, true
}

// GET /api/v1/products/:id
func (h *CatalogHandler) Product(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return alert(c, fiber.StatusNotFound, "not_found", nil)
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return fail(c, "catalog.product.fail", err)
	}
	return c.JSON(p)
}

// GET /api/v1/categories
func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, "catalog.categories.fail", err)
	}
	return c.JSON(fiber.Map{"categories": cats})
}

// GET /api/v1/availability?productId=
func (h *CatalogHandler) Availability(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Query("productId"))
	if !ok {
		return invalidField(c, "productId")
	}
	avail, err := h.Stock.CheckAvailability(c.UserContext(), id)
	if err != nil {
		return fail(c, "catalog.availability.fail", err)
	}
	return c.JSON(avail)
}

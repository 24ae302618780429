package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"techstore/internal/cart"
	applog "techstore/internal/log"
	"techstore/internal/media"
	"techstore/internal/services"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	if tok, _ := c.Locals("CSRFToken").(string); tok != "" {
		data["CSRFToken"] = tok
	}
	data["Lang"] = lang(c)
	data["RTL"] = lang(c) == "ar"
	return c.Render(tmpl, data)
}

type message struct{ en, ar string }

var messages = map[string]message{
	"invalid":          {"Please check the highlighted field", "يرجى التحقق من الحقل المحدد"},
	"not_found":        {"This item is no longer available", "هذا العنصر لم يعد متوفراً"},
	"page_not_found":   {"Page not found", "الصفحة غير موجودة"},
	"out_of_stock":     {"This product is out of stock", "هذا المنتج غير متوفر حالياً"},
	"missing_product":  {"Please choose a product", "يرجى اختيار منتج"},
	"empty_cart":       {"Your cart is empty", "سلة التسوق فارغة"},
	"bad_creds":        {"Invalid email or password", "البريد الإلكتروني أو كلمة المرور غير صحيحة"},
	"unauthorized":     {"Please sign in", "يرجى تسجيل الدخول"},
	"forbidden":        {"Access denied", "غير مصرح لك بالوصول"},
	"invalid_status":   {"Unknown reservation status", "حالة الحجز غير معروفة"},
	"category_in_use":  {"Remove the products in this category first", "احذف منتجات هذه الفئة أولاً"},
	"self_action":      {"You cannot do this to your own account", "لا يمكنك تنفيذ هذا الإجراء على حسابك"},
	"uploads_disabled": {"Image uploads are not configured", "رفع الصور غير مفعّل"},
	"rate_limited":     {"Too many requests, please retry soon", "طلبات كثيرة، يرجى المحاولة لاحقاً"},
	"csrf":             {"Security check failed. Please refresh and try again.", "فشل التحقق الأمني. يرجى تحديث الصفحة والمحاولة مجدداً."},
	"server":           {"Something went wrong. Please try again.", "حدث خطأ ما. يرجى المحاولة مرة أخرى."},
}

// lang is "ar" when the client prefers Arabic, otherwise "en".
func lang(c *fiber.Ctx) string {
	al := strings.ToLower(strings.TrimSpace(c.Get(fiber.HeaderAcceptLanguage)))
	if strings.HasPrefix(al, "ar") {
		return "ar"
	}
	return "en"
}

func localized(c *fiber.Ctx, key string) string {
	m, ok := messages[key]
	if !ok {
		m = messages["server"]
	}
	if lang(c) == "ar" {
		return m.ar
	}
	return m.en
}

// alert writes a user-facing error in both languages. "message" is the one the client asked for.
func alert(c *fiber.Ctx, status int, key string, extra fiber.Map) error {
	m, ok := messages[key]
	if !ok {
		m = messages["server"]
	}
	body := fiber.Map{"error": m.en, "error_ar": m.ar, "message": localized(c, key)}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

func invalidField(c *fiber.Ctx, field string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return alert(c, fiber.StatusBadRequest, "invalid", fiber.Map{"field": field})
}

// fail maps service errors to a status and alert. Anything unrecognised is a
// backend failure and its message is passed through.
func fail(c *fiber.Ctx, action string, err error) error {
	if ve, ok := services.IsValidation(err); ok {
		return invalidField(c, ve.Field)
	}
	switch {
	case errors.Is(err, services.ErrNotFound):
		return alert(c, fiber.StatusNotFound, "not_found", nil)
	case errors.Is(err, cart.ErrOutOfStock):
		return alert(c, fiber.StatusConflict, "out_of_stock", nil)
	case errors.Is(err, cart.ErrMissingProductID):
		return alert(c, fiber.StatusBadRequest, "missing_product", nil)
	case errors.Is(err, services.ErrEmptyCart):
		return alert(c, fiber.StatusBadRequest, "empty_cart", nil)
	case errors.Is(err, services.ErrBadCreds):
		return alert(c, fiber.StatusUnauthorized, "bad_creds", nil)
	case errors.Is(err, services.ErrInvalidStatus):
		return alert(c, fiber.StatusBadRequest, "invalid_status", nil)
	case errors.Is(err, services.ErrCategoryInUse):
		return alert(c, fiber.StatusConflict, "category_in_use", nil)
	case errors.Is(err, services.ErrSelfAction):
		return alert(c, fiber.StatusForbidden, "self_action", nil)
	case errors.Is(err, media.ErrDisabled):
		return alert(c, fiber.StatusServiceUnavailable, "uploads_disabled", nil)
	}
	applog.Error(c, action, err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

// ErrorHandler renders unexpected errors without leaking internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
	}
	key := "server"
	if code == fiber.StatusNotFound {
		key = "page_not_found"
	}
	if strings.HasPrefix(c.Path(), "/api/") {
		return alert(c, code, key, nil)
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": localized(c, key), "Lang": lang(c)}); rerr != nil {
		return c.Status(code).SendString(localized(c, key))
	}
	return nil
}

// NotFound is the catch-all route.
func NotFound(c *fiber.Ctx) error {
	if strings.HasPrefix(c.Path(), "/api/") {
		return alert(c, fiber.StatusNotFound, "page_not_found", nil)
	}
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": localized(c, "page_not_found"), "Lang": lang(c)})
}

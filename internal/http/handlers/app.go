package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"techstore/internal/domain"
	applog "techstore/internal/log"
)

// Limits are per-IP request budgets. A zero count disables that limiter.
type Limits struct {
	Global       int
	Login        int
	LoginWindow  time.Duration
	Availability int
	Reservations int
	Window       time.Duration
}

func DefaultLimits() Limits {
	return Limits{
		Global:       120,
		Login:        5,
		LoginWindow:  10 * time.Minute,
		Availability: 15,
		Reservations: 10,
		Window:       time.Minute,
	}
}

type AppOptions struct {
	TemplatesDir string
	CSRF         bool
	AccessLog    bool
	// CORSOrigins is a comma separated allow list; empty disables CORS.
	CORSOrigins string
	// BodyLimit defaults to 8 MiB.
	BodyLimit int
	Limits    Limits
}

// NewApp builds the Fiber app with the middleware stack and every route.
func NewApp(d *Deps, opts AppOptions) *fiber.App {
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = 8 << 20
	}
	engine := html.New(opts.TemplatesDir, ".html")
	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: ErrorHandler,
		BodyLimit:    opts.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	if opts.AccessLog {
		app.Use(logger.New())
	}
	app.Use(helmet.New())
	if opts.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     splitOrigins(opts.CORSOrigins),
			AllowCredentials: true,
			AllowHeaders:     "Origin, Content-Type, Accept, Accept-Language, X-Csrf-Token",
		}))
	}
	app.Use(Session(d.Auth, d.CookieSecure))
	if opts.Limits.Global > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:          opts.Limits.Global,
			Expiration:   window(opts.Limits.Window),
			LimitReached: rateLimited("rate.global.hit"),
			Next: func(c *fiber.Ctx) bool {
				return c.Path() == "/healthz"
			},
		}))
	}
	if opts.CSRF {
		app.Use(csrf.New(csrf.Config{
			KeyLookup:      "header:X-Csrf-Token",
			CookieName:     "csrf_",
			CookieSameSite: "Lax",
			CookieSecure:   d.CookieSecure,
			ContextKey:     "csrf",
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				applog.Security(c, "csrf.fail", map[string]any{"err": err.Error()})
				return alert(c, fiber.StatusForbidden, "csrf", nil)
			},
		}))
		app.Use(func(c *fiber.Ctx) error {
			if tok, ok := c.Locals("csrf").(string); ok {
				c.Locals("CSRFToken", tok)
			}
			return c.Next()
		})
	}

	Mount(app, d, opts.Limits)
	app.Use(NotFound)
	return app
}

// Mount registers every route on app.
func Mount(app *fiber.App, d *Deps, lim Limits) {
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/reservation/:ref", d.ReservationHandler.Page)

	api := app.Group("/api/v1")
	api.Get("/products", d.CatalogHandler.Products)
	api.Get("/products/:id", d.CatalogHandler.Product)
	api.Get("/categories", d.CatalogHandler.Categories)
	api.Get("/availability", limit(lim.Availability, window(lim.Window), "avail"), d.CatalogHandler.Availability)
	api.Get("/settings", d.SettingsHandler.Get)

	api.Get("/cart", d.CartHandler.View)
	api.Post("/cart/items", d.CartHandler.Add)
	api.Patch("/cart/items/:productId", d.CartHandler.Update)
	api.Delete("/cart/items/:productId", d.CartHandler.Remove)
	api.Delete("/cart", d.CartHandler.Clear)
	api.Post("/cart/refresh", d.CartHandler.Refresh)
	api.Get("/cart/status", d.CartHandler.Status)

	api.Post("/reservations", limit(lim.Reservations, window(lim.Window), "reserve"), d.ReservationHandler.Submit)

	api.Post("/auth/login", limit(lim.Login, window(lim.LoginWindow), "login"), d.AuthHandler.Login)
	api.Post("/auth/logout", d.AuthHandler.Logout)
	api.Get("/auth/me", d.AuthHandler.Me)

	admin := api.Group("/admin", RequireAdmin(d.Auth))
	admin.Get("/products", d.AdminHandler.Products)
	admin.Post("/products", d.AdminHandler.CreateProduct)
	admin.Put("/products/:id", d.AdminHandler.UpdateProduct)
	admin.Delete("/products/:id", d.AdminHandler.DeleteProduct)
	admin.Post("/products/:id/active", d.AdminHandler.SetActive)
	admin.Post("/products/:id/images", d.AdminHandler.UploadImage)

	admin.Get("/categories", d.AdminHandler.Categories)
	admin.Post("/categories", d.AdminHandler.CreateCategory)
	admin.Put("/categories/:id", d.AdminHandler.UpdateCategory)
	admin.Delete("/categories/:id", d.AdminHandler.DeleteCategory)

	admin.Get("/reservations", d.AdminHandler.ListReservations)
	admin.Get("/reservations/:id", d.AdminHandler.Reservation)
	admin.Post("/reservations/:id/status", d.AdminHandler.UpdateReservationStatus)

	admin.Get("/stock", d.AdminHandler.ListStock)
	admin.Put("/stock/:productId", d.AdminHandler.SetStock)

	admin.Get("/settings", d.SettingsHandler.Get)
	admin.Put("/settings", d.SettingsHandler.Save)

	staff := admin.Group("/staff", RequireRole(domain.RoleSuperAdmin))
	staff.Get("/", d.StaffHandler.List)
	staff.Post("/", d.StaffHandler.Create)
	staff.Post("/:id/role", d.StaffHandler.ChangeRole)
	staff.Delete("/:id", d.StaffHandler.Delete)
}

func limit(n int, exp time.Duration, name string) fiber.Handler {
	if n <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        n,
		Expiration: exp,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|" + name
		},
		LimitReached: rateLimited("rate." + name + ".hit"),
	})
}

func rateLimited(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		applog.Security(c, action, nil)
		return alert(c, fiber.StatusTooManyRequests, "rate_limited", nil)
	}
}

func window(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Minute
	}
	return d
}

// splitOrigins normalises a comma list for cors.
func splitOrigins(s string) string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}

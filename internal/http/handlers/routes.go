package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	applog "keepsake/internal/log"
)

// Limits are the per-IP request budgets; tests shrink them.
type Limits struct {
	Login      int
	LoginEvery time.Duration
	Rates      int
	RatesEvery time.Duration
}

var DefaultLimits = Limits{Login: 5, LoginEvery: 10 * time.Minute, Rates: 15, RatesEvery: 30 * time.Second}

// Mount registers the JSON API, the admin page and the health check.
// Global middleware (requestid, logger, helmet, limiter, csrf) is the
// caller's business.
func Mount(app *fiber.App, d *Deps, secure bool, lim Limits) {
	api := app.Group("/api/v1", Session(d.Users, secure), AttachUser(d.Auth))

	api.Get("/categories", d.CategoryHandler.List)
	api.Get("/products", d.ProductHandler.List)
	api.Get("/products/:id", d.ProductHandler.Detail)

	api.Get("/cart", d.CartHandler.View)
	api.Post("/cart/items", d.CartHandler.Add)
	api.Patch("/cart/items/:lineId", d.CartHandler.Update)
	api.Delete("/cart/items/:lineId", d.CartHandler.Remove)
	api.Delete("/cart", d.CartHandler.Clear)

	api.Get("/currency", d.CurrencyHandler.Get)
	api.Put("/currency", d.CurrencyHandler.Set)
	ratesLimiter := limiter.New(limiter.Config{
		Max:        lim.Rates,
		Expiration: lim.RatesEvery,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|rates"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.rates.hit", nil)
			return jsonError(c, fiber.StatusTooManyRequests, "rate limit exceeded, retry soon")
		},
	})
	api.Post("/currency/refresh", ratesLimiter, d.CurrencyHandler.Refresh)
	api.Get("/rates", ratesLimiter, d.CurrencyHandler.Latest)

	api.Post("/checkout", d.OrderHandler.Checkout)
	api.Get("/orders", d.OrderHandler.History)
	api.Get("/orders/:id", d.OrderHandler.View)

	api.Post("/login", limiter.New(limiter.Config{
		Max:        lim.Login,
		Expiration: lim.LoginEvery,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return jsonError(c, fiber.StatusTooManyRequests, "too many attempts, please try again later")
		},
	}), d.AuthHandler.Login)
	api.Post("/logout", d.AuthHandler.Logout)
	api.Get("/me", d.AuthHandler.Me)

	admin := api.Group("/admin", RequireAdmin(d.Auth))
	admin.Get("/orders", d.AdminHandler.OrdersList)
	admin.Post("/orders/:id/status", d.AdminHandler.UpdateOrderStatus)
	admin.Get("/stats", d.AdminHandler.Stats)
	admin.Post("/products/:id/price", d.AdminHandler.SetPrice)

	app.Get("/admin", Session(d.Users, secure), RequireAdmin(d.Auth), d.AdminHandler.Dashboard)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return deny(c, fiber.StatusNotFound, "Page not found")
	})
}

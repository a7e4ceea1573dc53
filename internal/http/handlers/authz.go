package handlers

import (
	"strings"

	applog "keepsake/internal/log"
	"keepsake/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RequireAdmin answers JSON under /api and the notfound page elsewhere.
func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := auth.CurrentUser(sessionID(c))
		if err != nil {
			applog.Error(c, "authz.lookup.fail", err, nil)
		}
		if u == nil {
			return deny(c, fiber.StatusUnauthorized, "Please log in")
		}
		if !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"user": u.ID})
			return deny(c, fiber.StatusForbidden, "Access denied")
		}
		c.Locals("user", u)
		return c.Next()
	}
}

func deny(c *fiber.Ctx, status int, msg string) error {
	if strings.HasPrefix(c.Path(), "/api/") {
		return jsonError(c, status, strings.ToLower(msg))
	}
	return c.Status(status).Render("notfound", fiber.Map{"Message": msg})
}

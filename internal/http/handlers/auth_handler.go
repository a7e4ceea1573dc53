package handlers

import (
	"keepsake/internal/log"
	"keepsake/internal/services"
	"keepsake/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// POST /api/v1/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginReq
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}
	email, ok := validate.Email(req.Email)
	if !ok {
		log.Security(c, "auth.login.fail", map[string]any{"reason": "bad_format"})
		return jsonError(c, fiber.StatusUnauthorized, "invalid email or password")
	}
	if !validate.Password(req.Password) {
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "bad_password_format"})
		return jsonError(c, fiber.StatusUnauthorized, "invalid email or password")
	}

	u, err := h.Auth.Login(sessionID(c), email, req.Password)
	if err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"email": email})
		return jsonError(c, fiber.StatusUnauthorized, "invalid email or password")
	}
	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.JSON(fiber.Map{"user": u})
}

// POST /api/v1/logout keeps the session id so the cart survives; only the
// user binding is dropped.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.Auth.Logout(sessionID(c)); err != nil {
		log.Error(c, "auth.logout.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not log out")
	}
	log.Audit(c, "auth.logout", nil)
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /api/v1/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u := currentUser(c)
	if u == nil {
		return jsonError(c, fiber.StatusUnauthorized, "not logged in")
	}
	return c.JSON(fiber.Map{"user": u})
}

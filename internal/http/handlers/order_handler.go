package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"keepsake/internal/domain"
	applog "keepsake/internal/log"
	"keepsake/internal/repos"
	"keepsake/internal/services"
	"keepsake/internal/validate"
)

type OrderHandler struct {
	Order *services.OrderService
	Repo  *repos.OrderRepo
	Auth  *services.AuthService
}

type checkoutReq struct {
	Provider string `json:"provider" validate:"required,oneof=stripe paypal"`
	Name     string `json:"name" validate:"required,max=40"`
	Email    string `json:"email" validate:"required,email,max=50"`
}

// POST /api/v1/checkout
//
// The cart is recorded in USD whatever the display currency is; the
// provider is only named here, payment happens elsewhere.
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	var req checkoutReq
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}
	name, ok := validate.Name(req.Name)
	if !ok {
		return badRequest(c, errors.New("bad name"))
	}
	email, ok := validate.Email(req.Email)
	if !ok {
		return badRequest(c, errors.New("bad email"))
	}

	sid := sessionID(c)
	placed, err := h.Order.Place(c.UserContext(), sid, req.Provider, services.Contact{Name: name, Email: email})
	if errors.Is(err, services.ErrCartEmpty) {
		return jsonError(c, fiber.StatusConflict, "your cart is empty")
	}
	if err != nil {
		applog.Error(c, "order.place.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not place order, please try again")
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id":  placed.ID,
		"total_usd": placed.TotalUSD,
		"items":     placed.TotalItems,
		"provider":  req.Provider,
	})
	return c.Status(fiber.StatusCreated).JSON(placed)
}

// GET /api/v1/orders/:id
func (h *OrderHandler) View(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "order not found")
	}
	o, items, err := h.Repo.Get(oid)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "order not found")
	}

	// session owner, the same user on another session, or an admin
	sid := sessionID(c)
	u, _ := h.Auth.CurrentUser(sid)
	owner := sid != "" && sid == o.SessionID
	sameUser := u != nil && o.UserID != "" && u.ID == o.UserID
	if !owner && !sameUser && !u.IsAdmin() {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		return jsonError(c, fiber.StatusNotFound, "order not found")
	}
	return c.JSON(fiber.Map{"order": o, "items": items})
}

// GET /api/v1/orders
func (h *OrderHandler) History(c *fiber.Ctx) error {
	orders, err := h.Order.History(sessionID(c))
	if err != nil {
		applog.Error(c, "orders.history.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not load orders")
	}
	return c.JSON(fiber.Map{"orders": orders})
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

package handlers

import (
	"errors"

	applog "keepsake/internal/log"
	"keepsake/internal/repos"
	"keepsake/internal/services"
	"keepsake/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Orders  *repos.OrderRepo
	Catalog *services.CatalogService
}

type statusReq struct {
	Status string `json:"status" validate:"required"`
}

type priceReq struct {
	PriceUSD float64 `json:"priceUsd" validate:"gt=0,lte=100000"`
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	st, err := h.Orders.Stats()
	if err != nil {
		applog.Error(c, "admin.stats.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load dashboard"})
	}
	ords, err := h.Orders.ListLatest(25)
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load dashboard"})
	}
	return render(c, "admin_dashboard", fiber.Map{"Stats": st, "Orders": ords})
}

// GET /api/v1/admin/orders
func (h *AdminHandler) OrdersList(c *fiber.Ctx) error {
	ords, err := h.Orders.ListLatest(c.QueryInt("limit", 100))
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not load orders")
	}
	return c.JSON(fiber.Map{"orders": ords})
}

// POST /api/v1/admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, errors.New("bad order id"))
	}
	var req statusReq
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}
	status, ok := validate.Status(req.Status)
	if !ok {
		return badRequest(c, errors.New("bad status"))
	}
	found, err := h.Orders.UpdateStatus(id, status)
	if err != nil {
		applog.Error(c, "admin.orders.update.fail", err, map[string]any{"order_id": id})
		return jsonError(c, fiber.StatusInternalServerError, "could not update status")
	}
	if !found {
		return jsonError(c, fiber.StatusNotFound, "order not found")
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": status})
	return c.JSON(fiber.Map{"id": id, "status": status})
}

// GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	st, err := h.Orders.Stats()
	if err != nil {
		applog.Error(c, "admin.stats.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not load stats")
	}
	return c.JSON(st)
}

// POST /api/v1/admin/products/:id/price
//
// Lines already in carts keep the price they were added at.
func (h *AdminHandler) SetPrice(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, errors.New("bad product id"))
	}
	var req priceReq
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}
	err := h.Catalog.SetPrice(id, req.PriceUSD)
	if errors.Is(err, services.ErrProductNotFound) {
		return jsonError(c, fiber.StatusNotFound, "product not found")
	}
	if err != nil {
		applog.Error(c, "admin.price.fail", err, map[string]any{"product": id})
		return jsonError(c, fiber.StatusInternalServerError, "could not save price")
	}
	applog.Audit(c, "admin.price.set", map[string]any{"product": id, "price_usd": req.PriceUSD})
	return c.JSON(fiber.Map{"id": id, "priceUsd": req.PriceUSD})
}

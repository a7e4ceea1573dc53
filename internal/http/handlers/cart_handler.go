package handlers

import (
	"errors"

	"keepsake/internal/domain"
	applog "keepsake/internal/log"
	"keepsake/internal/services"
	"keepsake/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	Cart     *services.CartService
	Currency *services.CurrencyService
}

type addItemReq struct {
	ProductID           string `json:"productId" validate:"required,max=64"`
	Quantity            int    `json:"quantity" validate:"lte=50"`
	EngravingLeftHeart  string `json:"engravingLeftHeart" validate:"engraving"`
	EngravingRightHeart string `json:"engravingRightHeart" validate:"engraving"`
}

type updateItemReq struct {
	Quantity *int `json:"quantity" validate:"required,lte=50"`
}

// GET /api/v1/cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	cart, err := h.Cart.Cart(sessionID(c))
	if err != nil {
		return h.fail(c, "cart.load.fail", err)
	}
	return h.respond(c, cart)
}

// POST /api/v1/cart/items
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var req addItemReq
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}
	productID, ok := validate.ID(req.ProductID)
	if !ok {
		return badRequest(c, errors.New("bad product id"))
	}
	left, _ := validate.Engraving(req.EngravingLeftHeart)
	right, _ := validate.Engraving(req.EngravingRightHeart)

	sid := sessionID(c)
	line, err := h.Cart.Add(sid, productID, req.Quantity, domain.Personalization{
		EngravingLeftHeart:  left,
		EngravingRightHeart: right,
	})
	if errors.Is(err, services.ErrProductNotFound) {
		return jsonError(c, fiber.StatusNotFound, "this item is no longer available")
	}
	if err != nil {
		return h.fail(c, "cart.add.fail", err)
	}
	applog.Info(c, "cart.add", map[string]any{"product": productID, "line": line.LineID, "qty": line.Quantity})

	cart, err := h.Cart.Cart(sid)
	if err != nil {
		return h.fail(c, "cart.load.fail", err)
	}
	view, err := h.view(c, cart)
	if err != nil {
		return h.fail(c, "currency.load.fail", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"line": line, "cart": view})
}

// PATCH /api/v1/cart/items/:lineId
func (h *CartHandler) Update(c *fiber.Ctx) error {
	lineID, ok := validate.ID(c.Params("lineId"))
	if !ok {
		return badRequest(c, errors.New("bad line id"))
	}
	var req updateItemReq
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}
	cart, err := h.Cart.UpdateQuantity(sessionID(c), lineID, *req.Quantity)
	if err != nil {
		return h.fail(c, "cart.update.fail", err)
	}
	return h.respond(c, cart)
}

// DELETE /api/v1/cart/items/:lineId
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	lineID, ok := validate.ID(c.Params("lineId"))
	if !ok {
		return badRequest(c, errors.New("bad line id"))
	}
	cart, err := h.Cart.Remove(sessionID(c), lineID)
	if err != nil {
		return h.fail(c, "cart.remove.fail", err)
	}
	return h.respond(c, cart)
}

// DELETE /api/v1/cart
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	if err := h.Cart.Clear(sessionID(c)); err != nil {
		return h.fail(c, "cart.clear.fail", err)
	}
	return h.respond(c, domain.Cart{})
}

func (h *CartHandler) view(c *fiber.Ctx, cart domain.Cart) (services.CartView, error) {
	sel, err := h.Currency.Selection(c.UserContext(), sessionID(c))
	if err != nil {
		return services.CartView{}, err
	}
	return services.NewCartView(cart, sel, locale(c)), nil
}

func (h *CartHandler) respond(c *fiber.Ctx, cart domain.Cart) error {
	v, err := h.view(c, cart)
	if err != nil {
		return h.fail(c, "currency.load.fail", err)
	}
	return c.JSON(v)
}

func (h *CartHandler) fail(c *fiber.Ctx, action string, err error) error {
	applog.Error(c, action, err, nil)
	return jsonError(c, fiber.StatusInternalServerError, "could not update your cart, please try again")
}

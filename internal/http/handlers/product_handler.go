package handlers

import (
	"errors"

	"keepsake/internal/domain"
	"keepsake/internal/log"
	"keepsake/internal/services"
	"keepsake/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	Catalog  *services.CatalogService
	Currency *services.CurrencyService
}

// productView adds the price as the shopper sees it.
type productView struct {
	domain.Product
	Price    string `json:"price"`
	Currency string `json:"currency"`
}

// GET /api/v1/products?category=&q=&page=
func (h *ProductHandler) List(c *fiber.Ctx) error {
	q := c.Query("q")
	if q != "" {
		var ok bool
		if q, ok = validate.Q(q); !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "q"})
			return jsonError(c, fiber.StatusBadRequest, "invalid search")
		}
	}
	cat := c.Query("category")
	if cat != "" {
		var ok bool
		if cat, ok = validate.ID(cat); !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "category"})
			return jsonError(c, fiber.StatusBadRequest, "invalid category")
		}
	}
	products, err := h.Catalog.Search(q, cat, c.QueryInt("page", 1), 12)
	if err != nil {
		log.Error(c, "catalog.products.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not load products")
	}

	sel := h.selection(c)
	tag := locale(c)
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, productView{Product: p, Price: sel.FormatPrice(p.PriceUSD, tag), Currency: sel.Currency})
	}
	return c.JSON(fiber.Map{"products": out})
}

// GET /api/v1/products/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return jsonError(c, fiber.StatusNotFound, "this item is no longer available")
	}
	p, err := h.Catalog.GetProduct(id)
	if errors.Is(err, services.ErrProductNotFound) {
		return jsonError(c, fiber.StatusNotFound, "this item is no longer available")
	}
	if err != nil {
		log.Error(c, "catalog.product.fail", err, map[string]any{"product": id})
		return jsonError(c, fiber.StatusInternalServerError, "could not load product")
	}
	sel := h.selection(c)
	return c.JSON(productView{Product: p, Price: sel.FormatPrice(p.PriceUSD, locale(c)), Currency: sel.Currency})
}

// selection falls back to USD; a price list never fails on currency state.
func (h *ProductHandler) selection(c *fiber.Ctx) domain.Selection {
	sel, err := h.Currency.Selection(c.UserContext(), sessionID(c))
	if err != nil {
		log.Warn(c, "currency.load.fail", err, nil)
		return domain.NewSelection()
	}
	return sel
}

package handlers

import (
	"errors"
	"time"

	"keepsake/internal/domain"
	applog "keepsake/internal/log"
	"keepsake/internal/services"
	"keepsake/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CurrencyHandler struct {
	Currency *services.CurrencyService
	Rates    services.RatesProvider
}

type setCurrencyReq struct {
	Currency string `json:"currency" validate:"required,currency"`
}

type currencyView struct {
	domain.Selection
	Supported []string  `json:"supported"`
	Source    string    `json:"source,omitempty"`
	FetchedAt time.Time `json:"fetchedAt,omitzero"`
}

// GET /api/v1/currency
func (h *CurrencyHandler) Get(c *fiber.Ctx) error {
	sel, err := h.Currency.Selection(c.UserContext(), sessionID(c))
	if err != nil {
		applog.Error(c, "currency.load.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not load currency")
	}
	return c.JSON(currencyView{Selection: sel, Supported: domain.Supported})
}

// PUT /api/v1/currency
func (h *CurrencyHandler) Set(c *fiber.Ctx) error {
	var req setCurrencyReq
	if err := decode(c, &req); err != nil {
		return badRequest(c, err)
	}
	code, _ := validate.Currency(req.Currency)
	sel, err := h.Currency.SetCurrency(c.UserContext(), sessionID(c), code)
	if errors.Is(err, services.ErrUnknownCurrency) {
		return jsonError(c, fiber.StatusBadRequest, "unsupported currency")
	}
	if err != nil {
		applog.Error(c, "currency.set.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not change currency")
	}
	applog.Info(c, "currency.set", map[string]any{"currency": sel.Currency, "rate": sel.ExchangeRate})
	return c.JSON(currencyView{Selection: sel, Supported: domain.Supported})
}

// POST /api/v1/currency/refresh
func (h *CurrencyHandler) Refresh(c *fiber.Ctx) error {
	sel, q, err := h.Currency.RefreshRates(c.UserContext(), sessionID(c))
	if err != nil {
		applog.Error(c, "currency.refresh.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, "could not refresh rates")
	}
	return c.JSON(currencyView{Selection: sel, Supported: domain.Supported, Source: q.Source, FetchedAt: q.FetchedAt})
}

// GET /api/v1/rates
func (h *CurrencyHandler) Latest(c *fiber.Ctx) error {
	q := h.Rates.Latest(c.UserContext())
	return c.JSON(fiber.Map{
		"base":      domain.BaseCurrency,
		"rates":     q.Rates,
		"source":    q.Source,
		"fetchedAt": q.FetchedAt,
	})
}

package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"keepsake/internal/domain"
	"keepsake/internal/money"
	"keepsake/internal/repos"
)

var ErrCartEmpty = errors.New("cart empty")

type Contact struct {
	Name  string
	Email string
}

// PlacedOrder is what the shopper gets back. Amounts are USD only.
type PlacedOrder struct {
	ID         string  `json:"orderId"`
	TotalUSD   float64 `json:"totalUsd"`
	TotalItems int     `json:"totalItems"`
}

type OrderService struct {
	Cart     *CartService
	Currency *CurrencyService
	Orders   *repos.OrderRepo
	Auth     *AuthService
}

func NewOrderService(cart *CartService, currency *CurrencyService, orders *repos.OrderRepo, auth *AuthService) *OrderService {
	return &OrderService{Cart: cart, Currency: currency, Orders: orders, Auth: auth}
}

// Place records the session cart as a USD order and clears the cart. The
// display currency is stored for reference; nothing converted leaves the
// shopper's view. A logged-in shopper owns the order from the start.
func (s *OrderService) Place(ctx context.Context, sessionID, provider string, contact Contact) (PlacedOrder, error) {
	var userID string
	if s.Auth != nil {
		u, err := s.Auth.CurrentUser(sessionID)
		if err != nil {
			return PlacedOrder{}, err
		}
		if u != nil {
			userID = u.ID
		}
	}
	displayCurrency := domain.BaseCurrency
	if sel, err := s.Currency.Selection(ctx, sessionID); err == nil {
		displayCurrency = sel.Currency
	}

	var placed PlacedOrder
	err := s.Cart.Checkout(sessionID, func(c domain.Cart) error {
		o := repos.OrderRow{
			ID:              uuid.NewString(),
			SessionID:       sessionID,
			UserID:          userID,
			Customer:        contact.Name,
			Email:           contact.Email,
			Provider:        provider,
			DisplayCurrency: displayCurrency,
			TotalUSD:        money.RoundCents(c.SubtotalUSD()),
		}
		items := make([]repos.OrderItemRow, 0, len(c.Items))
		for _, it := range c.Items {
			items = append(items, repos.OrderItemRow{
				LineID:         it.LineID,
				ProductID:      it.Product.ID,
				ProductName:    it.Product.Name,
				PriceUSD:       it.Product.PriceUSD,
				Qty:            it.Quantity,
				EngravingLeft:  it.EngravingLeftHeart,
				EngravingRight: it.EngravingRightHeart,
			})
		}
		if err := s.Orders.Create(o, items); err != nil {
			return err
		}
		placed = PlacedOrder{ID: o.ID, TotalUSD: o.TotalUSD, TotalItems: c.TotalItems()}
		return nil
	})
	return placed, err
}

func (s *OrderService) History(sessionID string) ([]repos.OrderRow, error) {
	return s.Orders.ListForSession(sessionID)
}

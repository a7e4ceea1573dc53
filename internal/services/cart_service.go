package services

import (
	"golang.org/x/text/language"

	"keepsake/internal/domain"
	"keepsake/internal/repos"
)

// CartService owns the session cart. Every mutation is a serialized
// load, mutate, save cycle, so a save always follows a change and no
// caller sees half of one.
type CartService struct {
	Carts   *repos.CartRepo
	Catalog *CatalogService
	locks   sessionLocks
}

func NewCartService(carts *repos.CartRepo, catalog *CatalogService) *CartService {
	return &CartService{Carts: carts, Catalog: catalog}
}

// Add snapshots the product from the catalog and merges or appends a line.
func (s *CartService) Add(sessionID, productID string, qty int, pers domain.Personalization) (domain.CartLine, error) {
	p, err := s.Catalog.GetProduct(productID)
	if err != nil {
		return domain.CartLine{}, err
	}

	defer s.locks.lock(sessionID)()
	c, err := s.Carts.Load(sessionID)
	if err != nil {
		return domain.CartLine{}, err
	}
	line := c.AddItem(p.Snapshot(), qty, pers)
	if err := s.Carts.Save(sessionID, c); err != nil {
		return domain.CartLine{}, err
	}
	return line, nil
}

// Remove is a no-op for unknown lines.
func (s *CartService) Remove(sessionID, lineID string) (domain.Cart, error) {
	return s.mutate(sessionID, func(c *domain.Cart) bool { return c.RemoveItem(lineID) })
}

// UpdateQuantity removes the line when qty <= 0.
func (s *CartService) UpdateQuantity(sessionID, lineID string, qty int) (domain.Cart, error) {
	return s.mutate(sessionID, func(c *domain.Cart) bool { return c.UpdateQuantity(lineID, qty) })
}

func (s *CartService) Clear(sessionID string) error {
	_, err := s.mutate(sessionID, func(c *domain.Cart) bool {
		changed := !c.Empty()
		c.Clear()
		return changed
	})
	return err
}

func (s *CartService) Cart(sessionID string) (domain.Cart, error) {
	defer s.locks.lock(sessionID)()
	return s.Carts.Load(sessionID)
}

// Checkout hands the current cart to place and clears it only if place
// succeeds. The session stays locked meanwhile so no line is lost.
func (s *CartService) Checkout(sessionID string, place func(domain.Cart) error) error {
	defer s.locks.lock(sessionID)()
	c, err := s.Carts.Load(sessionID)
	if err != nil {
		return err
	}
	if c.Empty() {
		return ErrCartEmpty
	}
	if err := place(c); err != nil {
		return err
	}
	c.Clear()
	return s.Carts.Save(sessionID, c)
}

func (s *CartService) mutate(sessionID string, fn func(*domain.Cart) bool) (domain.Cart, error) {
	defer s.locks.lock(sessionID)()
	c, err := s.Carts.Load(sessionID)
	if err != nil {
		return domain.Cart{}, err
	}
	if !fn(&c) {
		return c, nil
	}
	if err := s.Carts.Save(sessionID, c); err != nil {
		return domain.Cart{}, err
	}
	return c, nil
}

type CartLineView struct {
	domain.CartLine
	LineTotalUSD float64 `json:"lineTotalUsd"`
	LineTotal    string  `json:"lineTotal"`
}

// CartView is the cart as rendered for one shopper: USD figures plus
// display strings in the selected currency.
type CartView struct {
	Items       []CartLineView `json:"items"`
	TotalItems  int            `json:"totalItems"`
	SubtotalUSD float64        `json:"subtotalUsd"`
	Subtotal    string         `json:"subtotal"`
	Currency    string         `json:"currency"`
}

func NewCartView(c domain.Cart, sel domain.Selection, locale language.Tag) CartView {
	v := CartView{
		Items:       make([]CartLineView, 0, len(c.Items)),
		TotalItems:  c.TotalItems(),
		SubtotalUSD: c.SubtotalUSD(),
		Currency:    sel.Currency,
	}
	for _, it := range c.Items {
		v.Items = append(v.Items, CartLineView{
			CartLine:     it,
			LineTotalUSD: it.LineTotalUSD(),
			LineTotal:    sel.FormatPrice(it.LineTotalUSD(), locale),
		})
	}
	v.Subtotal = sel.FormatPrice(v.SubtotalUSD, locale)
	return v
}

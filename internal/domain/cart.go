package domain

import "github.com/google/uuid"

// ProductSnapshot is the product as it was when the line was added.
type ProductSnapshot struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	PriceUSD float64 `json:"priceUsd"`
	Image    string  `json:"image"`
}

// Personalization is the optional engraving pair. The zero value means
// "no engraving" and is a personalization of its own for merging.
type Personalization struct {
	EngravingLeftHeart  string `json:"engravingLeftHeart,omitempty"`
	EngravingRightHeart string `json:"engravingRightHeart,omitempty"`
}

type CartLine struct {
	LineID   string          `json:"lineId"`
	Product  ProductSnapshot `json:"product"`
	Quantity int             `json:"quantity"`
	Personalization
}

// LineTotalUSD is the unrounded USD amount of the line.
func (l CartLine) LineTotalUSD() float64 {
	return l.Product.PriceUSD * float64(l.Quantity)
}

// Cart is the list of lines a shopper intends to buy. Every stored line
// has Quantity >= 1. Lines keep insertion order.
type Cart struct {
	Items []CartLine `json:"items"`
}

// NewLineID generates line identifiers; replaced in tests.
var NewLineID = uuid.NewString

// AddItem merges into the line with the same product id and identical
// personalization, or appends a new line. Quantities below 1 count as 1.
func (c *Cart) AddItem(p ProductSnapshot, quantity int, pers Personalization) CartLine {
	if quantity < 1 {
		quantity = 1
	}
	for i := range c.Items {
		it := &c.Items[i]
		if it.Product.ID == p.ID && it.Personalization == pers {
			it.Quantity += quantity
			return *it
		}
	}
	line := CartLine{LineID: NewLineID(), Product: p, Quantity: quantity, Personalization: pers}
	c.Items = append(c.Items, line)
	return line
}

// RemoveItem drops the line and reports whether it existed.
func (c *Cart) RemoveItem(lineID string) bool {
	for i := range c.Items {
		if c.Items[i].LineID == lineID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateQuantity sets the line quantity; quantity <= 0 removes the line.
// It reports whether a line was touched.
func (c *Cart) UpdateQuantity(lineID string, quantity int) bool {
	if quantity <= 0 {
		return c.RemoveItem(lineID)
	}
	for i := range c.Items {
		if c.Items[i].LineID == lineID {
			c.Items[i].Quantity = quantity
			return true
		}
	}
	return false
}

func (c *Cart) Clear() { c.Items = nil }

// TotalItems is the number of units, not the number of lines.
func (c Cart) TotalItems() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// SubtotalUSD is unrounded; rounding happens at display or order time.
func (c Cart) SubtotalUSD() float64 {
	total := 0.0
	for _, it := range c.Items {
		total += it.LineTotalUSD()
	}
	return total
}

func (c Cart) Empty() bool { return len(c.Items) == 0 }

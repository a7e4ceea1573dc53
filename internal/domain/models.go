package domain

type Category struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	CreatedAt string `db:"created_at" json:"-"`
	UpdatedAt string `db:"updated_at" json:"-"`
}

// Product is a catalog entry. PriceUSD is the canonical price; every other
// currency is derived for display only.
type Product struct {
	ID          string  `db:"id" json:"id"`
	CategoryID  string  `db:"category_id" json:"category"`
	Name        string  `db:"name" json:"name"`
	Description string  `db:"description" json:"description"`
	PriceUSD    float64 `db:"price_usd" json:"priceUsd"`
	Image       string  `db:"image" json:"image"`
	Badge       string  `db:"badge" json:"badge,omitempty"` // e.g. BESTSELLER | NEW
	Active      bool    `db:"active" json:"-"`
	CreatedAt   string  `db:"created_at" json:"-"`
	UpdatedAt   string  `db:"updated_at" json:"-"`
}

// Snapshot copies the fields a cart line keeps, so later catalog price
// changes do not reach lines already in a cart.
func (p Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{ID: p.ID, Name: p.Name, PriceUSD: p.PriceUSD, Image: p.Image}
}

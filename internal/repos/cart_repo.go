package repos

import (
	"time"

	"github.com/jmoiron/sqlx"

	"keepsake/internal/domain"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

type cartLineRow struct {
	LineID         string  `db:"line_id"`
	ProductID      string  `db:"product_id"`
	ProductName    string  `db:"product_name"`
	PriceUSD       float64 `db:"price_usd"`
	Image          string  `db:"image"`
	Qty            int     `db:"qty"`
	EngravingLeft  string  `db:"engraving_left"`
	EngravingRight string  `db:"engraving_right"`
}

func (r cartLineRow) line() domain.CartLine {
	return domain.CartLine{
		LineID:   r.LineID,
		Product:  domain.ProductSnapshot{ID: r.ProductID, Name: r.ProductName, PriceUSD: r.PriceUSD, Image: r.Image},
		Quantity: r.Qty,
		Personalization: domain.Personalization{
			EngravingLeftHeart:  r.EngravingLeft,
			EngravingRightHeart: r.EngravingRight,
		},
	}
}

// Load rehydrates the session's cart. A session without a cart gets an
// empty one.
func (r *CartRepo) Load(sessionID string) (domain.Cart, error) {
	rows := []cartLineRow{}
	if err := r.db.Select(&rows, `
	  SELECT line_id, product_id, product_name, price_usd, image, qty, engraving_left, engraving_right
	  FROM cart_lines
	  WHERE session_id = ?
	  ORDER BY position
	`, sessionID); err != nil {
		return domain.Cart{}, err
	}
	var c domain.Cart
	for _, row := range rows {
		c.Items = append(c.Items, row.line())
	}
	return c, nil
}

// Save replaces the stored lines with the cart's current lines.
func (r *CartRepo) Save(sessionID string, c domain.Cart) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		INSERT INTO carts(session_id, updated_at) VALUES(?, ?)
		ON CONFLICT(session_id) DO UPDATE SET updated_at = excluded.updated_at
	`, sessionID, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM cart_lines WHERE session_id = ?`, sessionID); err != nil {
		return err
	}
	for i, it := range c.Items {
		if _, err := tx.Exec(`
			INSERT INTO cart_lines(line_id, session_id, position, product_id, product_name, price_usd, image, qty, engraving_left, engraving_right)
			VALUES(?,?,?,?,?,?,?,?,?,?)
		`, it.LineID, sessionID, i, it.Product.ID, it.Product.Name, it.Product.PriceUSD, it.Product.Image,
			it.Quantity, it.EngravingLeftHeart, it.EngravingRightHeart); err != nil {
			return err
		}
	}
	return tx.Commit()
}

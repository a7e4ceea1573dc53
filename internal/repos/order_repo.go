package repos

import "github.com/jmoiron/sqlx"

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// OrderRow is the order header. All amounts are USD; DisplayCurrency is
// only what the shopper was looking at.
type OrderRow struct {
	ID              string  `db:"id" json:"id"`
	SessionID       string  `db:"session_id" json:"-"`
	UserID          string  `db:"user_id" json:"-"`
	Customer        string  `db:"customer_name" json:"customerName"`
	Email           string  `db:"customer_email" json:"customerEmail"`
	Provider        string  `db:"provider" json:"provider"`
	DisplayCurrency string  `db:"display_currency" json:"displayCurrency"`
	TotalUSD        float64 `db:"total_usd" json:"totalUsd"`
	Status          string  `db:"status" json:"status"`
	CreatedAt       string  `db:"created_at" json:"createdAt"`
}

type OrderItemRow struct {
	LineID         string  `db:"line_id" json:"lineId"`
	ProductID      string  `db:"product_id" json:"productId"`
	ProductName    string  `db:"product_name" json:"productName"`
	PriceUSD       float64 `db:"price_usd" json:"priceUsd"`
	Qty            int     `db:"qty" json:"quantity"`
	EngravingLeft  string  `db:"engraving_left" json:"engravingLeftHeart,omitempty"`
	EngravingRight string  `db:"engraving_right" json:"engravingRightHeart,omitempty"`
	SubtotalUSD    float64 `db:"subtotal_usd" json:"subtotalUsd"`
}

// Create inserts the header and its items in one transaction.
func (r *OrderRepo) Create(o OrderRow, items []OrderItemRow) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
	  INSERT INTO orders
	    (id, session_id, user_id,      customer_name, customer_email, provider, display_currency, total_usd, status, created_at)
	  VALUES
	    (?,  ?,          NULLIF(?,''), ?,             ?,              ?,        ?,                ?,         'PLACED', CURRENT_TIMESTAMP)
	`, o.ID, o.SessionID, o.UserID, o.Customer, o.Email, o.Provider, o.DisplayCurrency, o.TotalUSD); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := tx.Exec(`
		  INSERT INTO order_items(order_id, line_id, product_id, product_name, price_usd, qty, engraving_left, engraving_right)
		  VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		`, o.ID, it.LineID, it.ProductID, it.ProductName, it.PriceUSD, it.Qty, it.EngravingLeft, it.EngravingRight); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *OrderRepo) Get(orderID string) (OrderRow, []OrderItemRow, error) {
	var o OrderRow
	if err := r.db.Get(&o, `
		SELECT id, COALESCE(session_id,'') AS session_id, COALESCE(user_id,'') AS user_id, customer_name, customer_email,
		       provider, display_currency, total_usd, status, created_at
		FROM orders
		WHERE id = ?
	`, orderID); err != nil {
		return OrderRow{}, nil, err
	}

	items := []OrderItemRow{}
	if err := r.db.Select(&items, `
		SELECT line_id, product_id, product_name, price_usd, qty, engraving_left, engraving_right,
		       (qty * price_usd) AS subtotal_usd
		FROM order_items
		WHERE order_id = ?
		ORDER BY product_name, line_id
	`, orderID); err != nil {
		return OrderRow{}, nil, err
	}
	return o, items, nil
}

func (r *OrderRepo) ListLatest(limit int) ([]OrderRow, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []OrderRow{}
	err := r.db.Select(&out, `
		SELECT id, COALESCE(session_id,'') AS session_id, COALESCE(user_id,'') AS user_id, customer_name, customer_email,
		       provider, display_currency, total_usd, status, created_at
		FROM orders
		ORDER BY datetime(created_at) DESC
		LIMIT ?
	`, limit)
	return out, err
}

// ListForSession returns the orders placed from sid, plus those owned by
// the user currently bound to sid. Ownership is stored on the order, so it
// survives the placing session logging out.
func (r *OrderRepo) ListForSession(sid string) ([]OrderRow, error) {
	out := []OrderRow{}
	err := r.db.Select(&out, `
		SELECT id, COALESCE(session_id,'') AS session_id, COALESCE(user_id,'') AS user_id, customer_name, customer_email,
		       provider, display_currency, total_usd, status, created_at
		FROM orders
		WHERE session_id = ?
		   OR (user_id IS NOT NULL AND user_id = (SELECT user_id FROM sessions WHERE id = ?))
		ORDER BY datetime(created_at) DESC, id
	`, sid, sid)
	return out, err
}

func (r *OrderRepo) UpdateStatus(id, status string) (bool, error) {
	res, err := r.db.Exec(`UPDATE orders SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Stats is the admin dashboard summary. Canceled orders are excluded.
type Stats struct {
	Orders     int     `db:"orders" json:"orders"`
	RevenueUSD float64 `db:"revenue_usd" json:"revenueUsd"`
	ItemsSold  int     `db:"items_sold" json:"itemsSold"`
}

func (r *OrderRepo) Stats() (Stats, error) {
	var s Stats
	err := r.db.Get(&s, `
		SELECT
		  COUNT(*) AS orders,
		  COALESCE(SUM(total_usd), 0) AS revenue_usd,
		  COALESCE((SELECT SUM(oi.qty) FROM order_items oi JOIN orders o2 ON o2.id = oi.order_id
		            WHERE o2.status != 'CANCELED'), 0) AS items_sold
		FROM orders
		WHERE status != 'CANCELED'
	`)
	return s, err
}

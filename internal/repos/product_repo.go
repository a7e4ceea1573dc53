package repos

import (
	"github.com/jmoiron/sqlx"

	"keepsake/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
    id, category_id, name, COALESCE(description,'') AS description, price_usd,
    COALESCE(image,'') AS image, COALESCE(badge,'') AS badge, active,
    created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return p, err
}

// Search lists active products, optionally filtered by a lower-case name or
// description fragment and a category.
func (r *ProductRepo) Search(q, catID string, limit, offset int) ([]domain.Product, error) {
	where := `active = 1`
	args := []any{}
	if q != "" {
		where += ` AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)`
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	if catID != "" {
		where += ` AND category_id = ?`
		args = append(args, catID)
	}
	args = append(args, limit, offset)

	out := []domain.Product{}
	err := r.db.Select(&out, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE `+where+`
	  ORDER BY created_at DESC, name
	  LIMIT ? OFFSET ?`, args...)
	return out, err
}

// SetPrice is used by catalog maintenance; existing cart lines keep their snapshot.
func (r *ProductRepo) SetPrice(id string, priceUSD float64) error {
	_, err := r.db.Exec(`UPDATE products SET price_usd = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, priceUSD, id)
	return err
}

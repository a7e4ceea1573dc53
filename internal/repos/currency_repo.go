package repos

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"keepsake/internal/domain"
)

type CurrencyRepo struct{ db *sqlx.DB }

func NewCurrencyRepo(db *sqlx.DB) *CurrencyRepo { return &CurrencyRepo{db: db} }

type selectionRow struct {
	Currency     string  `db:"currency"`
	RatesJSON    string  `db:"rates_json"`
	ExchangeRate float64 `db:"exchange_rate"`
	UpdatedAt    string  `db:"updated_at"`
}

// Load returns the persisted selection and when its rates were stored.
// It returns sql.ErrNoRows from sqlx.Get when the session has none.
// ExchangeRate is recomputed from currency and rates, not trusted.
func (r *CurrencyRepo) Load(sessionID string) (domain.Selection, time.Time, error) {
	var row selectionRow
	if err := r.db.Get(&row, `
		SELECT currency, rates_json, exchange_rate, updated_at
		FROM currency_selections WHERE session_id = ?
	`, sessionID); err != nil {
		return domain.Selection{}, time.Time{}, err
	}
	var rates domain.Rates
	if err := json.Unmarshal([]byte(row.RatesJSON), &rates); err != nil {
		rates = nil
	}
	updated, _ := time.Parse(time.RFC3339, row.UpdatedAt)
	return domain.RestoreSelection(row.Currency, rates), updated, nil
}

// Save stores the selection; ratesAt is when the rate table was obtained.
func (r *CurrencyRepo) Save(sessionID string, sel domain.Selection, ratesAt time.Time) error {
	b, err := json.Marshal(sel.Rates)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`
		INSERT INTO currency_selections(session_id, currency, rates_json, exchange_rate, updated_at)
		VALUES(?,?,?,?,?)
		ON CONFLICT(session_id) DO UPDATE SET
		  currency = excluded.currency,
		  rates_json = excluded.rates_json,
		  exchange_rate = excluded.exchange_rate,
		  updated_at = excluded.updated_at
	`, sessionID, sel.Currency, string(b), sel.ExchangeRate, ratesAt.UTC().Format(time.RFC3339))
	return err
}

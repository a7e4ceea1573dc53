package domain

import (
	"math"
	"strings"

	"golang.org/x/text/language"

	"keepsake/internal/money"
)

const BaseCurrency = "USD"

// Supported is the set offered in the currency switcher.
var Supported = []string{"USD", "EUR", "GBP", "CAD", "AUD", "JPY", "CHF"}

// Known codes are accepted as rate-table keys and as a selection.
var Known = append(append([]string{}, Supported...), "CNY", "INR", "MXN")

func IsKnownCurrency(code string) bool {
	for _, k := range Known {
		if k == code {
			return true
		}
	}
	return false
}

// Rates maps a currency code to units of that currency per 1 USD.
type Rates map[string]float64

// FallbackRates is used whenever the live rate source is unavailable.
func FallbackRates() Rates {
	return Rates{
		"USD": 1,
		"EUR": 0.92,
		"GBP": 0.79,
		"CAD": 1.36,
		"AUD": 1.53,
		"JPY": 149.50,
		"CHF": 0.88,
		"CNY": 7.24,
		"INR": 83.12,
		"MXN": 17.15,
	}
}

// Clean returns a copy without unusable entries, with USD pinned to 1.
func (r Rates) Clean() Rates {
	out := make(Rates, len(r)+1)
	for code, v := range r {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			continue
		}
		out[code] = v
	}
	out[BaseCurrency] = 1
	return out
}

// Selection is the shopper's display currency. ExchangeRate always equals
// Rates[Currency], or 1 when the table has no entry for it.
type Selection struct {
	Currency     string  `json:"currency"`
	Rates        Rates   `json:"rates"`
	ExchangeRate float64 `json:"exchangeRate"`
}

func NewSelection() Selection {
	return Selection{Currency: BaseCurrency, Rates: Rates{BaseCurrency: 1}, ExchangeRate: 1}
}

// RestoreSelection rebuilds a persisted selection, recomputing the derived rate.
func RestoreSelection(currency string, rates Rates) Selection {
	s := Selection{Currency: currency}
	s.SetRates(rates)
	return s
}

// SetCurrency does not fetch rates; it only re-reads the cached table.
func (s *Selection) SetCurrency(code string) {
	s.Currency = strings.ToUpper(strings.TrimSpace(code))
	s.recompute()
}

func (s *Selection) SetRates(r Rates) {
	s.Rates = r.Clean()
	s.recompute()
}

func (s *Selection) recompute() {
	if v, ok := s.Rates[s.Currency]; ok {
		s.ExchangeRate = v
		return
	}
	s.ExchangeRate = 1
}

func (s Selection) ConvertFromUSD(amountUSD float64) float64 {
	return amountUSD * s.ExchangeRate
}

// FormatPrice converts and renders with two decimals. fallback is the
// shopper's own locale, used when the currency has no display locale.
func (s Selection) FormatPrice(amountUSD float64, fallback language.Tag) string {
	return money.Format(s.ConvertFromUSD(amountUSD), s.Currency, fallback)
}

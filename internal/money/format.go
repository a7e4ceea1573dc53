// Package money formats prices for display. Amounts are never rounded
// before this point; Format always renders exactly two decimals.
package money

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

type display struct {
	locale language.Tag
	after  bool // symbol follows the number
}

// displays maps a currency to the locale shoppers of that currency expect.
var displays = map[string]display{
	"USD": {locale: language.MustParse("en-US")},
	"EUR": {locale: language.MustParse("en-IE")},
	"GBP": {locale: language.MustParse("en-GB")},
	"CAD": {locale: language.MustParse("en-CA")},
	"AUD": {locale: language.MustParse("en-AU")},
	"JPY": {locale: language.MustParse("ja-JP")},
	"CHF": {locale: language.MustParse("de-CH")},
	"CNY": {locale: language.MustParse("zh-CN")},
	"INR": {locale: language.MustParse("en-IN")},
	"MXN": {locale: language.MustParse("es-MX")},
}

// Languages that write the symbol after the amount ("1 234,56 €").
var symbolAfter = map[string]bool{
	"de": true, "fr": true, "es": true, "it": true, "pt": true, "sv": true,
	"pl": true, "cs": true, "ru": true, "fi": true, "da": true, "nb": true,
}

var DefaultLocale = language.AmericanEnglish

// Format renders amount in the currency identified by code. The locale is
// the currency's own display locale, else fallback, else en-US. Unknown
// codes are printed as-is in place of a symbol; a non-finite amount renders
// as zero.
func Format(amount float64, code string, fallback language.Tag) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = "USD"
	}

	d, ok := displays[code]
	if !ok {
		d.locale = fallback
		if d.locale.IsRoot() {
			d.locale = DefaultLocale
		}
		base, _ := d.locale.Base()
		d.after = symbolAfter[base.String()]
	}

	// the sign leads the whole price, symbol included
	sign := ""
	if math.Round(amount*100) < 0 {
		sign = "-"
	}
	amount = math.Abs(amount)

	p := message.NewPrinter(d.locale)
	num := p.Sprint(number.Decimal(amount, number.Scale(2)))

	sym := code
	if unit, err := currency.ParseISO(code); err == nil {
		if s := p.Sprint(currency.Symbol(unit)); s != "" {
			sym = s
		}
	}

	if d.after {
		return sign + num + " " + sym
	}
	if r, _ := utf8.DecodeLastRuneInString(sym); unicode.IsLetter(r) {
		return sign + sym + " " + num
	}
	return sign + sym + num
}

// RoundCents rounds a USD amount to the minor unit, half away from zero.
func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

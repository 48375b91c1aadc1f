package common

import (
	"math"
	"strconv"
	"strings"

	"github.com/ternarybob/finview/internal/models"
)

// NotAvailable is the display text for an absent value.
const NotAvailable = "N/A"

// currencySymbols maps ISO currency codes to display symbols.
var currencySymbols = map[string]string{
	"USD": "$",
	"AUD": "A$",
	"CAD": "C$",
	"NZD": "NZ$",
	"HKD": "HK$",
	"SGD": "S$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "¥",
	"INR": "₹",
	"KRW": "₩",
	"CHF": "CHF ",
	"SEK": "kr ",
}

// CurrencySymbol returns the display symbol for a currency code.
// Unknown codes render as "<CODE> "; an empty code renders as "$".
func CurrencySymbol(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "$"
	}
	if sym, ok := currencySymbols[code]; ok {
		return sym
	}
	return code + " "
}

// FormatCurrency renders a value for display.
//
//	absent          -> "N/A"
//	|v| >= 1e9      -> symbol + v/1e9 (2dp) + "B"
//	|v| >= 1e6      -> symbol + v/1e6 (2dp) + "M"
//	otherwise       -> symbol + v with thousands separators (2dp)
//
// The sign follows the symbol: FormatCurrency(Some(-2.5e6), "$") == "$-2.50M".
func FormatCurrency(v models.Number, symbol string) string {
	f, ok := v.Float()
	if !ok {
		return NotAvailable
	}

	abs := math.Abs(f)
	switch {
	case abs >= 1e9:
		return symbol + strconv.FormatFloat(f/1e9, 'f', 2, 64) + "B"
	case abs >= 1e6:
		return symbol + strconv.FormatFloat(f/1e6, 'f', 2, 64) + "M"
	default:
		return symbol + groupThousands(strconv.FormatFloat(f, 'f', 2, 64))
	}
}

// FormatFloat is FormatCurrency for a plain float.
func FormatFloat(v float64, symbol string) string {
	return FormatCurrency(models.Some(v), symbol)
}

// groupThousands inserts commas into the integer part of a formatted number.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, frac := s, ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart, frac = s[:idx], s[idx:]
	}

	if len(intPart) <= 3 {
		return sign + intPart + frac
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + frac
}

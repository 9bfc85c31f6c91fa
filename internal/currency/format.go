package currency

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Format renders amount with the currency symbol and digit grouping,
// e.g. "G$10,000,000" or "$47,619.05". Unknown codes are suffixed instead.
func Format(amount float64, code string) string {
	info, found := Lookup(code)
	if !found {
		return printer.Sprintf("%.2f %s", amount, Normalize(code))
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return info.Symbol + "-"
	}
	layout := fmt.Sprintf("%%.%df", info.Decimals)
	if amount < 0 {
		return "-" + info.Symbol + printer.Sprintf(layout, -amount)
	}
	return info.Symbol + printer.Sprintf(layout, amount)
}

// FormatRate renders a display rate such as "1 GYD = 0.0048 USD".
func FormatRate(rate float64, fromCode, toCode string) string {
	return printer.Sprintf("1 %s = %.4f %s", Normalize(fromCode), rate, Normalize(toCode))
}

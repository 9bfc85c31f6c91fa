package currency

// Convert converts amount between two currencies using table. Cross rates
// always pivot through the base currency. Amounts are not validated.
func Convert(table RateTable, amount float64, fromCode, toCode string) float64 {
	fromCode, toCode = Normalize(fromCode), Normalize(toCode)
	if fromCode == toCode {
		return amount
	}

	switch {
	case fromCode == BaseCurrency:
		toRate, _ := table.Rate(toCode)
		return amount * toRate
	case toCode == BaseCurrency:
		fromRate, _ := table.Rate(fromCode)
		return amount / fromRate
	default:
		fromRate, _ := table.Rate(fromCode)
		toRate, _ := table.Rate(toCode)
		return (amount / fromRate) * toRate
	}
}

// DisplayRate returns how many units of toCode one unit of fromCode buys.
func DisplayRate(table RateTable, fromCode, toCode string) float64 {
	return Convert(table, 1, fromCode, toCode)
}

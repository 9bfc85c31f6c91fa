package pricing

import "github.com/shopspring/decimal"

// Region is a payment region with its settlement currency and fee schedule.
// FixedFee is expressed in the settlement currency.
type Region struct {
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Currency   string          `json:"currency"`
	PercentFee decimal.Decimal `json:"percent_fee"`
	FixedFee   decimal.Decimal `json:"fixed_fee"`
	Methods    []string        `json:"methods"`
}

func percent(value string) decimal.Decimal {
	return decimal.RequireFromString(value).Div(decimal.NewFromInt(100))
}

// DefaultRegions returns the regions the marketplace accepts payments from
func DefaultRegions() []Region {
	return []Region{
		{
			Code:       "GY",
			Name:       "Guyana",
			Currency:   "GYD",
			PercentFee: percent("1.5"),
			FixedFee:   decimal.Zero,
			Methods:    []string{"bank_transfer", "mobile_money", "cash"},
		},
		{
			Code:       "CARICOM",
			Name:       "Caribbean Community",
			Currency:   "TTD",
			PercentFee: percent("2.5"),
			FixedFee:   decimal.RequireFromString("5.00"),
			Methods:    []string{"bank_transfer", "card"},
		},
		{
			Code:       "NA",
			Name:       "United States",
			Currency:   "USD",
			PercentFee: percent("2.9"),
			FixedFee:   decimal.RequireFromString("0.30"),
			Methods:    []string{"card", "ach", "wire"},
		},
		{
			Code:       "CA",
			Name:       "Canada",
			Currency:   "CAD",
			PercentFee: percent("2.9"),
			FixedFee:   decimal.RequireFromString("0.30"),
			Methods:    []string{"card", "interac", "wire"},
		},
		{
			Code:       "EU",
			Name:       "European Union",
			Currency:   "EUR",
			PercentFee: percent("1.4"),
			FixedFee:   decimal.RequireFromString("0.25"),
			Methods:    []string{"card", "sepa"},
		},
		{
			Code:       "UK",
			Name:       "United Kingdom",
			Currency:   "GBP",
			PercentFee: percent("1.5"),
			FixedFee:   decimal.RequireFromString("0.20"),
			Methods:    []string{"card", "faster_payments"},
		},
		{
			Code:       "INTL",
			Name:       "International",
			Currency:   "USD",
			PercentFee: percent("3.9"),
			FixedFee:   decimal.RequireFromString("0.30"),
			Methods:    []string{"card", "wire"},
		},
	}
}

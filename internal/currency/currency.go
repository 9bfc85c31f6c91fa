package currency

import (
	"sort"
	"strings"
)

// BaseCurrency is the pivot every rate is quoted against.
const BaseCurrency = "USD"

// CurrencyInfo describes a supported currency
type CurrencyInfo struct {
	Code     string `json:"code"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Flag     string `json:"flag"`
	Decimals int    `json:"decimals"`
}

// catalogue is fixed at build time and never mutated
var catalogue = map[string]CurrencyInfo{
	"USD": {Code: "USD", Symbol: "$", Name: "US Dollar", Flag: "🇺🇸", Decimals: 2},
	"GYD": {Code: "GYD", Symbol: "G$", Name: "Guyanese Dollar", Flag: "🇬🇾", Decimals: 0},
	"EUR": {Code: "EUR", Symbol: "€", Name: "Euro", Flag: "🇪🇺", Decimals: 2},
	"GBP": {Code: "GBP", Symbol: "£", Name: "British Pound", Flag: "🇬🇧", Decimals: 2},
	"CAD": {Code: "CAD", Symbol: "C$", Name: "Canadian Dollar", Flag: "🇨🇦", Decimals: 2},
	"TTD": {Code: "TTD", Symbol: "TT$", Name: "Trinidad and Tobago Dollar", Flag: "🇹🇹", Decimals: 2},
	"BBD": {Code: "BBD", Symbol: "Bds$", Name: "Barbadian Dollar", Flag: "🇧🇧", Decimals: 2},
	"JMD": {Code: "JMD", Symbol: "J$", Name: "Jamaican Dollar", Flag: "🇯🇲", Decimals: 2},
	"XCD": {Code: "XCD", Symbol: "EC$", Name: "East Caribbean Dollar", Flag: "🇦🇬", Decimals: 2},
	"SRD": {Code: "SRD", Symbol: "Sr$", Name: "Surinamese Dollar", Flag: "🇸🇷", Decimals: 2},
	"BRL": {Code: "BRL", Symbol: "R$", Name: "Brazilian Real", Flag: "🇧🇷", Decimals: 2},
}

// Normalize trims and upper-cases a currency code
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Lookup returns the catalogue entry for code.
func Lookup(code string) (CurrencyInfo, bool) {
	info, found := catalogue[Normalize(code)]
	return info, found
}

// IsSupported reports whether code is in the catalogue
func IsSupported(code string) bool {
	_, found := Lookup(code)
	return found
}

// Codes returns every supported code, base currency first and the rest sorted.
func Codes() []string {
	codes := make([]string, 0, len(catalogue))
	for code := range catalogue {
		if code != BaseCurrency {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return append([]string{BaseCurrency}, codes...)
}

// All returns the catalogue in Codes order
func All() []CurrencyInfo {
	codes := Codes()
	infos := make([]CurrencyInfo, len(codes))
	for i, code := range codes {
		infos[i] = catalogue[code]
	}
	return infos
}

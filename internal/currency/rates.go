package currency

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrIncompleteTable is returned when a table misses a supported currency.
	ErrIncompleteTable = errors.New("rate table is incomplete")
	// ErrInvalidRate is returned for zero, negative or non-finite rates.
	ErrInvalidRate = errors.New("invalid exchange rate")
	// ErrBaseRateMismatch is returned when the base currency is quoted at anything but 1.
	ErrBaseRateMismatch = errors.New("base currency rate must be 1")
)

// fallbackRate is used for codes the table does not know
const fallbackRate = 1.0

// RateTable maps a currency code to the number of units one USD buys.
type RateTable map[string]float64

// defaultRates are served until the first successful fetch
var defaultRates = RateTable{
	"GYD": 210.0,
	"EUR": 0.92,
	"GBP": 0.79,
	"CAD": 1.36,
	"TTD": 6.79,
	"BBD": 2.0,
	"JMD": 156.5,
	"XCD": 2.7,
	"SRD": 36.5,
	"BRL": 5.05,
}

// DefaultRates returns a fresh copy of the hardcoded fallback table.
func DefaultRates() RateTable {
	return defaultRates.Clone()
}

// Clone returns a deep copy of the table
func (table RateTable) Clone() RateTable {
	cloned := make(RateTable, len(table))
	for code, rate := range table {
		cloned[code] = rate
	}
	return cloned
}

// Rate returns the rate for code and whether the table actually knows it.
// Unknown codes and unusable entries resolve to 1.0, as if pegged to USD.
func (table RateTable) Rate(code string) (float64, bool) {
	code = Normalize(code)
	if code == BaseCurrency {
		return 1.0, true
	}
	rate, found := table[code]
	if !found || !usableRate(rate) {
		return fallbackRate, false
	}
	return rate, true
}

// Accept validates a table received from a rate source and projects it onto
// the catalogue. Codes outside the catalogue are dropped; a missing
// supported currency rejects the whole table.
func Accept(received map[string]float64) (RateTable, error) {
	accepted := make(RateTable, len(catalogue))
	seen := make(map[string]string, len(received))
	for rawCode, rate := range received {
		code := Normalize(rawCode)
		if !IsSupported(code) {
			continue
		}
		// "gyd" and "GYD" would otherwise race on map order
		if previous, duplicate := seen[code]; duplicate {
			return nil, fmt.Errorf("%w: %s quoted twice as %q and %q", ErrInvalidRate, code, previous, rawCode)
		}
		seen[code] = rawCode
		if !usableRate(rate) {
			return nil, fmt.Errorf("%w: %s=%v", ErrInvalidRate, code, rate)
		}
		if code == BaseCurrency {
			if rate != 1.0 {
				return nil, fmt.Errorf("%w: got %v", ErrBaseRateMismatch, rate)
			}
			continue
		}
		accepted[code] = rate
	}

	for code := range catalogue {
		if code == BaseCurrency {
			continue
		}
		if _, found := accepted[code]; !found {
			return nil, fmt.Errorf("%w: missing %s", ErrIncompleteTable, code)
		}
	}
	return accepted, nil
}

func usableRate(rate float64) bool {
	return rate > 0 && !math.IsNaN(rate) && !math.IsInf(rate, 0)
}

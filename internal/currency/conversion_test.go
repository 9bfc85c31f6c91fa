package currency

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable() RateTable {
	return RateTable{
		"USD": 1,
		"GYD": 210,
		"EUR": 0.92,
		"GBP": 0.79,
		"JMD": 156.5,
	}
}

func TestConvert_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		from     string
		to       string
		expected float64
	}{
		{name: "listing price GYD to USD", amount: 10_000_000, from: "GYD", to: "USD", expected: 10_000_000.0 / 210},
		{name: "USD to GYD", amount: 500, from: "USD", to: "GYD", expected: 105_000},
		{name: "cross rate pivots through USD", amount: 920, from: "EUR", to: "GYD", expected: (920 / 0.92) * 210},
		{name: "lower case codes", amount: 500, from: "usd", to: " gyd ", expected: 105_000},
		{name: "zero amount", amount: 0, from: "GBP", to: "JMD", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Convert(testTable(), tt.amount, tt.from, tt.to), 1e-9)
		})
	}

	assert.InDelta(t, 47619.05, Convert(testTable(), 10_000_000, "GYD", "USD"), 0.005)
}

func TestConvert_Identity(t *testing.T) {
	amounts := []float64{0, 0.01, 1, 123.456, 10_000_000, 1e15}
	for _, code := range append(Codes(), "ZZZ") {
		for _, amount := range amounts {
			assert.Equal(t, amount, Convert(testTable(), amount, code, code), "%s %v", code, amount)
		}
	}
}

func TestConvert_PivotConsistency(t *testing.T) {
	codes := []string{"GYD", "EUR", "GBP", "JMD"}
	for _, from := range codes {
		for _, to := range codes {
			if from == to {
				continue
			}
			direct := Convert(testTable(), 2500, from, to)
			viaBase := Convert(testTable(), Convert(testTable(), 2500, from, BaseCurrency), BaseCurrency, to)
			assert.Equal(t, viaBase, direct, "%s->%s", from, to)
		}
	}
}

func TestConvert_InverseRoundTrip(t *testing.T) {
	codes := []string{"USD", "GYD", "EUR", "GBP", "JMD"}
	for _, from := range codes {
		for _, to := range codes {
			original := 987654.321
			back := Convert(testTable(), Convert(testTable(), original, from, to), to, from)
			assert.InEpsilon(t, original, back, 1e-6, "%s->%s->%s", from, to, from)
		}
	}
}

func TestConvert_UnknownCodeFallsBackToBase(t *testing.T) {
	result := Convert(testTable(), 1000, "ZZZ", "USD")
	require.False(t, math.IsNaN(result))
	require.False(t, math.IsInf(result, 0))
	assert.Equal(t, 1000.0, result)

	assert.Equal(t, 210_000.0, Convert(testTable(), 1000, "ZZZ", "GYD"))
	assert.Equal(t, 1000.0, Convert(RateTable{}, 1000, "GYD", "EUR"))
}

func TestConvert_UnusableEntriesFallBack(t *testing.T) {
	table := RateTable{"GYD": 0, "EUR": math.NaN(), "GBP": math.Inf(1)}
	for _, code := range []string{"GYD", "EUR", "GBP"} {
		result := Convert(table, 50, code, "USD")
		assert.Equal(t, 50.0, result, code)
	}
}

func TestDisplayRate(t *testing.T) {
	assert.InDelta(t, 1.0/210, DisplayRate(testTable(), "GYD", "USD"), 1e-12)
	assert.Equal(t, 210.0, DisplayRate(testTable(), "USD", "GYD"))
	assert.Equal(t, 1.0, DisplayRate(testTable(), "EUR", "EUR"))
	assert.InDelta(t, 0.79/0.92, DisplayRate(testTable(), "EUR", "GBP"), 1e-12)
}

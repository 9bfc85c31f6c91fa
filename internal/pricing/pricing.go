package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dalfonso89/marketplace-currency-service/internal/currency"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownRegion is returned for region codes outside DefaultRegions.
	ErrUnknownRegion = errors.New("unknown payment region")
	// ErrUnsupportedCurrency is returned for codes outside the catalogue.
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	// ErrInvalidAmount is returned for negative or non-finite amounts.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrAmountOutOfRange is returned when a converted amount is not representable.
	ErrAmountOutOfRange = errors.New("amount out of range")
)

// Converter is the conversion surface pricing needs; *service.RateCache satisfies it.
type Converter interface {
	Convert(amount float64, fromCode, toCode string) float64
	DisplayRate(fromCode, toCode string) float64
}

// DisplayPrice is an amount rendered in one display currency
type DisplayPrice struct {
	Currency  string  `json:"currency"`
	Symbol    string  `json:"symbol"`
	Flag      string  `json:"flag"`
	Amount    float64 `json:"amount"`
	Formatted string  `json:"formatted"`
}

// Quote is the cost of paying a listing price from one region
type Quote struct {
	Region          string          `json:"region"`
	RegionName      string          `json:"region_name"`
	Currency        string          `json:"currency"`
	ListingAmount   float64         `json:"listing_amount"`
	ListingCurrency string          `json:"listing_currency"`
	Rate            float64         `json:"rate"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Fee             decimal.Decimal `json:"fee"`
	Total           decimal.Decimal `json:"total"`
	Methods         []string        `json:"methods"`

	SubtotalFormatted string `json:"subtotal_formatted"`
	FeeFormatted      string `json:"fee_formatted"`
	TotalFormatted    string `json:"total_formatted"`
}

// Calculator prices listings across currencies and payment regions
type Calculator struct {
	converter Converter
	regions   []Region
}

// NewCalculator creates a calculator over the default regions
func NewCalculator(converter Converter) *Calculator {
	return &Calculator{converter: converter, regions: DefaultRegions()}
}

// Regions returns the configured payment regions
func (calculator *Calculator) Regions() []Region {
	return calculator.regions
}

// Region looks up a region by code, case-insensitively
func (calculator *Calculator) Region(code string) (Region, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, region := range calculator.regions {
		if region.Code == code {
			return region, true
		}
	}
	return Region{}, false
}

// Display renders amount in every target currency. With no targets every
// catalogue currency is used.
func (calculator *Calculator) Display(amount float64, fromCode string, targets []string) ([]DisplayPrice, error) {
	if err := validate(amount, fromCode); err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		targets = currency.Codes()
	}

	prices := make([]DisplayPrice, 0, len(targets))
	for _, target := range targets {
		info, found := currency.Lookup(target)
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, currency.Normalize(target))
		}
		converted := calculator.converter.Convert(amount, fromCode, info.Code)
		if !finite(converted) {
			return nil, outOfRange(amount, fromCode, info.Code)
		}
		prices = append(prices, DisplayPrice{
			Currency:  info.Code,
			Symbol:    info.Symbol,
			Flag:      info.Flag,
			Amount:    converted,
			Formatted: currency.Format(converted, info.Code),
		})
	}
	return prices, nil
}

// Quote converts amount into the region's settlement currency and applies its fees
func (calculator *Calculator) Quote(amount float64, fromCode, regionCode string) (Quote, error) {
	if err := validate(amount, fromCode); err != nil {
		return Quote{}, err
	}
	region, found := calculator.Region(regionCode)
	if !found {
		return Quote{}, fmt.Errorf("%w: %s", ErrUnknownRegion, regionCode)
	}
	return calculator.quote(amount, fromCode, region)
}

// QuoteAll returns a quote for every region
func (calculator *Calculator) QuoteAll(amount float64, fromCode string) ([]Quote, error) {
	if err := validate(amount, fromCode); err != nil {
		return nil, err
	}
	quotes := make([]Quote, len(calculator.regions))
	for i, region := range calculator.regions {
		quote, err := calculator.quote(amount, fromCode, region)
		if err != nil {
			return nil, err
		}
		quotes[i] = quote
	}
	return quotes, nil
}

func (calculator *Calculator) quote(amount float64, fromCode string, region Region) (Quote, error) {
	info, _ := currency.Lookup(region.Currency)
	places := int32(info.Decimals)

	// decimal.NewFromFloat panics on Inf and NaN
	converted := calculator.converter.Convert(amount, fromCode, region.Currency)
	if !finite(converted) {
		return Quote{}, outOfRange(amount, fromCode, region.Currency)
	}
	subtotal := decimal.NewFromFloat(converted).Round(places)
	fee := subtotal.Mul(region.PercentFee).Add(region.FixedFee).Round(places)
	total := subtotal.Add(fee)
	if !finite(total.InexactFloat64()) {
		return Quote{}, outOfRange(amount, fromCode, region.Currency)
	}

	return Quote{
		Region:          region.Code,
		RegionName:      region.Name,
		Currency:        region.Currency,
		ListingAmount:   amount,
		ListingCurrency: currency.Normalize(fromCode),
		Rate:            calculator.converter.DisplayRate(fromCode, region.Currency),
		Subtotal:        subtotal,
		Fee:             fee,
		Total:           total,
		Methods:         region.Methods,

		SubtotalFormatted: currency.Format(subtotal.InexactFloat64(), region.Currency),
		FeeFormatted:      currency.Format(fee.InexactFloat64(), region.Currency),
		TotalFormatted:    currency.Format(total.InexactFloat64(), region.Currency),
	}, nil
}

func finite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

func outOfRange(amount float64, fromCode, toCode string) error {
	return fmt.Errorf("%w: %v %s in %s", ErrAmountOutOfRange, amount, currency.Normalize(fromCode), toCode)
}

func validate(amount float64, fromCode string) error {
	if amount < 0 || !finite(amount) {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	if !currency.IsSupported(fromCode) {
		return fmt.Errorf("%w: %s", ErrUnsupportedCurrency, currency.Normalize(fromCode))
	}
	return nil
}

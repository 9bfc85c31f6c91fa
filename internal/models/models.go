package models

import (
	"time"

	"github.com/dalfonso89/marketplace-currency-service/internal/currency"
	"github.com/dalfonso89/marketplace-currency-service/internal/pricing"
)

// RatesPayload is the wire shape served by a rate source
type RatesPayload struct {
	Rates     map[string]float64 `json:"rates"`
	UpdatedAt string             `json:"updated_at"`
}

type SnapshotResponse struct {
	Base        string             `json:"base"`
	Rates       map[string]float64 `json:"rates"`
	UpdatedAt   *time.Time         `json:"updated_at"`
	LastUpdated string             `json:"last_updated"`
	State       string             `json:"state"`
}

type ConvertQuery struct {
	Amount float64 `form:"amount"`
	From   string  `form:"from" binding:"required"`
	To     string  `form:"to" binding:"required"`
}

type ConvertResponse struct {
	From          string  `json:"from"`
	To            string  `json:"to"`
	Amount        float64 `json:"amount"`
	Rate          float64 `json:"rate"`
	Converted     float64 `json:"converted"`
	Formatted     string  `json:"formatted"`
	RateFormatted string  `json:"rate_formatted"`
	State         string  `json:"state"`
}

type RateQuery struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}

type RateResponse struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Rate      float64 `json:"rate"`
	Formatted string  `json:"formatted"`
	State     string  `json:"state"`
}

type CurrenciesResponse struct {
	Base       string                  `json:"base"`
	Currencies []currency.CurrencyInfo `json:"currencies"`
}

type RefreshResponse struct {
	State     string     `json:"state"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// PricesQuery asks for one amount in several display currencies
type PricesQuery struct {
	Amount   float64 `form:"amount"`
	Currency string  `form:"currency" binding:"required"`
	Targets  string  `form:"targets"`
}

type PricesResponse struct {
	Amount   float64                `json:"amount"`
	Currency string                 `json:"currency"`
	Prices   []pricing.DisplayPrice `json:"prices"`
	State    string                 `json:"state"`
}

// QuoteQuery asks for payment quotes; an empty Region quotes every region
type QuoteQuery struct {
	Amount   float64 `form:"amount"`
	Currency string  `form:"currency" binding:"required"`
	Region   string  `form:"region"`
}

type QuotesResponse struct {
	Quotes []pricing.Quote `json:"quotes"`
	State  string          `json:"state"`
}

type RegionsResponse struct {
	Regions []pricing.Region `json:"regions"`
}

type HealthCheck struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	RateState string    `json:"rate_state"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

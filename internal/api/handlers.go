package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/dalfonso89/marketplace-currency-service/internal/config"
	"github.com/dalfonso89/marketplace-currency-service/internal/currency"
	"github.com/dalfonso89/marketplace-currency-service/internal/middleware"
	"github.com/dalfonso89/marketplace-currency-service/internal/models"
	"github.com/dalfonso89/marketplace-currency-service/internal/pricing"
	"github.com/dalfonso89/marketplace-currency-service/internal/ratelimit"
	"github.com/dalfonso89/marketplace-currency-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HandlerConfig wires the handler dependencies
type HandlerConfig struct {
	Configuration *config.Config
	Logger        logrus.FieldLogger
	RateCache     *service.RateCache
	Pricing       *pricing.Calculator
	RateLimiter   *ratelimit.Limiter
}

// Handlers contains all HTTP handlers
type Handlers struct {
	configuration *config.Config
	logger        logrus.FieldLogger
	rateCache     *service.RateCache
	pricing       *pricing.Calculator
	rateLimiter   *ratelimit.Limiter
	startTime     time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(handlerConfig HandlerConfig) *Handlers {
	calculator := handlerConfig.Pricing
	if calculator == nil {
		calculator = pricing.NewCalculator(handlerConfig.RateCache)
	}
	return &Handlers{
		configuration: handlerConfig.Configuration,
		logger:        handlerConfig.Logger,
		rateCache:     handlerConfig.RateCache,
		pricing:       calculator,
		rateLimiter:   handlerConfig.RateLimiter,
		startTime:     time.Now(),
	}
}

// SetupRoutes configures all the routes using Gin
func (handlers *Handlers) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(handlers.logger))
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS())

	if handlers.rateLimiter != nil {
		router.Use(handlers.rateLimiter.Middleware())
	}

	router.GET("/health", handlers.HealthCheck)

	// same shape the service consumes, so one instance can feed another
	router.GET("/api/exchange-rates", handlers.GetExchangeRates)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/currencies", handlers.GetCurrencies)
		apiV1.GET("/rates", handlers.GetRates)
		apiV1.POST("/rates/refresh", handlers.RefreshRates)
		apiV1.GET("/convert", handlers.Convert)
		apiV1.GET("/rate", handlers.GetRate)
		apiV1.GET("/prices", handlers.GetPrices)
		apiV1.GET("/payments/quote", handlers.GetQuote)
		apiV1.GET("/payments/regions", handlers.GetRegions)
	}

	return router
}

// HealthCheck reports liveness and where the served rates came from.
// The service stays healthy on defaults, only degraded.
func (handlers *Handlers) HealthCheck(context *gin.Context) {
	state := handlers.rateCache.State()

	healthStatus := "healthy"
	if state != service.StateFetched {
		healthStatus = "degraded"
	}

	context.JSON(http.StatusOK, models.HealthCheck{
		Status:    healthStatus,
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    time.Since(handlers.startTime).String(),
		RateState: state.String(),
	})
}

// GetExchangeRates serves the current table in rate source format. Default
// rates are never served this way so peers cannot mistake them for fetched data.
func (handlers *Handlers) GetExchangeRates(context *gin.Context) {
	snapshot := handlers.rateCache.Snapshot()
	if snapshot.State == service.StateDefault {
		handlers.writeErrorResponse(context, http.StatusServiceUnavailable, "rates unavailable", "no rates have been fetched yet")
		return
	}

	context.JSON(http.StatusOK, models.RatesPayload{
		Rates:     withBase(snapshot.Rates),
		UpdatedAt: snapshot.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

// GetCurrencies lists the supported currencies
func (handlers *Handlers) GetCurrencies(context *gin.Context) {
	context.JSON(http.StatusOK, models.CurrenciesResponse{
		Base:       currency.BaseCurrency,
		Currencies: currency.All(),
	})
}

// GetRates returns the cached snapshot
func (handlers *Handlers) GetRates(context *gin.Context) {
	context.JSON(http.StatusOK, snapshotResponse(handlers.rateCache.Snapshot()))
}

// RefreshRates triggers a refresh and reports the resulting state
func (handlers *Handlers) RefreshRates(context *gin.Context) {
	state := handlers.rateCache.Refresh(context.Request.Context())
	snapshot := handlers.rateCache.Snapshot()

	handlers.logger.WithField("state", state.String()).Info("Manual rate refresh")
	context.JSON(http.StatusOK, models.RefreshResponse{
		State:     state.String(),
		UpdatedAt: optionalTime(snapshot.UpdatedAt),
	})
}

// Convert converts an amount between two currencies
func (handlers *Handlers) Convert(context *gin.Context) {
	var query models.ConvertQuery
	if bindError := context.ShouldBindQuery(&query); bindError != nil {
		handlers.writeErrorResponse(context, http.StatusBadRequest, "invalid query", bindError.Error())
		return
	}
	if !handlers.validAmount(context, query.Amount) || !handlers.supportedCodes(context, query.From, query.To) {
		return
	}

	from, to := currency.Normalize(query.From), currency.Normalize(query.To)
	rate := handlers.rateCache.DisplayRate(from, to)
	converted := handlers.rateCache.Convert(query.Amount, from, to)
	// encoding/json cannot write Inf, so gin would commit 200 with no body
	if math.IsInf(converted, 0) || math.IsNaN(converted) {
		handlers.writeErrorResponse(context, http.StatusBadRequest, "amount out of range",
			fmt.Sprintf("%v %s does not fit in %s", query.Amount, from, to))
		return
	}

	context.JSON(http.StatusOK, models.ConvertResponse{
		From:          from,
		To:            to,
		Amount:        query.Amount,
		Rate:          rate,
		Converted:     converted,
		Formatted:     currency.Format(converted, to),
		RateFormatted: currency.FormatRate(rate, from, to),
		State:         handlers.rateCache.State().String(),
	})
}

// GetRate returns the display rate between two currencies
func (handlers *Handlers) GetRate(context *gin.Context) {
	var query models.RateQuery
	if bindError := context.ShouldBindQuery(&query); bindError != nil {
		handlers.writeErrorResponse(context, http.StatusBadRequest, "invalid query", bindError.Error())
		return
	}
	if !handlers.supportedCodes(context, query.From, query.To) {
		return
	}

	from, to := currency.Normalize(query.From), currency.Normalize(query.To)
	rate := handlers.rateCache.DisplayRate(from, to)

	context.JSON(http.StatusOK, models.RateResponse{
		From:      from,
		To:        to,
		Rate:      rate,
		Formatted: currency.FormatRate(rate, from, to),
		State:     handlers.rateCache.State().String(),
	})
}

// GetPrices renders one amount in several display currencies
func (handlers *Handlers) GetPrices(context *gin.Context) {
	var query models.PricesQuery
	if bindError := context.ShouldBindQuery(&query); bindError != nil {
		handlers.writeErrorResponse(context, http.StatusBadRequest, "invalid query", bindError.Error())
		return
	}

	targets := splitCodes(query.Targets)
	if len(targets) == 0 && handlers.configuration != nil {
		targets = handlers.configuration.DisplayCurrencies
	}

	prices, pricingError := handlers.pricing.Display(query.Amount, query.Currency, targets)
	if pricingError != nil {
		handlers.writePricingError(context, pricingError)
		return
	}

	context.JSON(http.StatusOK, models.PricesResponse{
		Amount:   query.Amount,
		Currency: currency.Normalize(query.Currency),
		Prices:   prices,
		State:    handlers.rateCache.State().String(),
	})
}

// GetQuote returns payment quotes for one region or all of them
func (handlers *Handlers) GetQuote(context *gin.Context) {
	var query models.QuoteQuery
	if bindError := context.ShouldBindQuery(&query); bindError != nil {
		handlers.writeErrorResponse(context, http.StatusBadRequest, "invalid query", bindError.Error())
		return
	}

	var quotes []pricing.Quote
	var pricingError error
	if strings.TrimSpace(query.Region) == "" {
		quotes, pricingError = handlers.pricing.QuoteAll(query.Amount, query.Currency)
	} else {
		var quote pricing.Quote
		quote, pricingError = handlers.pricing.Quote(query.Amount, query.Currency, query.Region)
		quotes = []pricing.Quote{quote}
	}
	if pricingError != nil {
		handlers.writePricingError(context, pricingError)
		return
	}

	context.JSON(http.StatusOK, models.QuotesResponse{
		Quotes: quotes,
		State:  handlers.rateCache.State().String(),
	})
}

// GetRegions lists the payment regions
func (handlers *Handlers) GetRegions(context *gin.Context) {
	context.JSON(http.StatusOK, models.RegionsResponse{Regions: handlers.pricing.Regions()})
}

func (handlers *Handlers) validAmount(context *gin.Context, amount float64) bool {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		handlers.writeErrorResponse(context, http.StatusBadRequest, "invalid amount", "amount must be a finite, non-negative number")
		return false
	}
	return true
}

func (handlers *Handlers) supportedCodes(context *gin.Context, codes ...string) bool {
	for _, code := range codes {
		if !currency.IsSupported(code) {
			handlers.writeErrorResponse(context, http.StatusBadRequest, "unsupported currency",
				fmt.Sprintf("currency %q is not supported", currency.Normalize(code)))
			return false
		}
	}
	return true
}

func (handlers *Handlers) writePricingError(context *gin.Context, pricingError error) {
	switch {
	case errors.Is(pricingError, pricing.ErrInvalidAmount):
		handlers.writeErrorResponse(context, http.StatusBadRequest, "invalid amount", pricingError.Error())
	case errors.Is(pricingError, pricing.ErrUnsupportedCurrency):
		handlers.writeErrorResponse(context, http.StatusBadRequest, "unsupported currency", pricingError.Error())
	case errors.Is(pricingError, pricing.ErrUnknownRegion):
		handlers.writeErrorResponse(context, http.StatusBadRequest, "unknown region", pricingError.Error())
	case errors.Is(pricingError, pricing.ErrAmountOutOfRange):
		handlers.writeErrorResponse(context, http.StatusBadRequest, "amount out of range", pricingError.Error())
	default:
		handlers.logger.Errorf("Pricing failed: %v", pricingError)
		handlers.writeErrorResponse(context, http.StatusInternalServerError, "pricing failed", pricingError.Error())
	}
}

// writeErrorResponse writes an error response using Gin context
func (handlers *Handlers) writeErrorResponse(context *gin.Context, statusCode int, errorMessage, errorDetails string) {
	context.AbortWithStatusJSON(statusCode, models.ErrorResponse{
		Error:   errorMessage,
		Message: errorDetails,
		Code:    statusCode,
	})
}

func snapshotResponse(snapshot service.Snapshot) models.SnapshotResponse {
	lastUpdated := "never"
	if !snapshot.UpdatedAt.IsZero() {
		lastUpdated = snapshot.UpdatedAt.UTC().Format("Jan 2, 2006 15:04 MST")
	}
	return models.SnapshotResponse{
		Base:        currency.BaseCurrency,
		Rates:       withBase(snapshot.Rates),
		UpdatedAt:   optionalTime(snapshot.UpdatedAt),
		LastUpdated: lastUpdated,
		State:       snapshot.State.String(),
	}
}

func withBase(rates currency.RateTable) map[string]float64 {
	out := make(map[string]float64, len(rates)+1)
	for code, rate := range rates {
		out[code] = rate
	}
	out[currency.BaseCurrency] = 1
	return out
}

func optionalTime(value time.Time) *time.Time {
	if value.IsZero() {
		return nil
	}
	return &value
}

func splitCodes(raw string) []string {
	var codes []string
	for _, part := range strings.Split(raw, ",") {
		if code := currency.Normalize(part); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

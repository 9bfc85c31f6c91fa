package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dalfonso89/marketplace-currency-service/internal/currency"
	"github.com/dalfonso89/marketplace-currency-service/internal/models"

	"github.com/sirupsen/logrus"
)

// maxPayloadBytes bounds how much of a rate source response is read
const maxPayloadBytes = 1 << 20

// FetchedRates is a validated table together with the time the source produced it
type FetchedRates struct {
	Rates     currency.RateTable
	UpdatedAt time.Time
	Source    string
}

// RateSource supplies complete rate tables
type RateSource interface {
	Name() string
	FetchRates(ctx context.Context) (FetchedRates, error)
}

// HTTPRateSource fetches {"rates": {...}, "updated_at": "..."} with a single GET
type HTTPRateSource struct {
	url        string
	logger     logrus.FieldLogger
	httpClient *http.Client
}

// NewHTTPRateSource creates a new HTTP rate source
func NewHTTPRateSource(url string, timeout time.Duration, logger logrus.FieldLogger) *HTTPRateSource {
	httpTransport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPRateSource{
		url:        url,
		logger:     logger.WithField("source", url),
		httpClient: &http.Client{Timeout: timeout, Transport: httpTransport},
	}
}

// Name returns the source URL
func (source *HTTPRateSource) Name() string {
	return source.url
}

// FetchRates performs the GET and validates the payload
func (source *HTTPRateSource) FetchRates(ctx context.Context) (FetchedRates, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, source.url, nil)
	if err != nil {
		return FetchedRates{}, newServiceError(ErrorTypeSourceFailed, "failed to create request", err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := source.httpClient.Do(request)
	if err != nil {
		errorType := ErrorTypeNetworkError
		if ctx.Err() != nil {
			errorType = ErrorTypeContextCancelled
		}
		return FetchedRates{}, newServiceError(errorType, "failed to make request", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return FetchedRates{}, newServiceError(ErrorTypeBadStatus, fmt.Sprintf("source returned status %d", response.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxPayloadBytes))
	if err != nil {
		return FetchedRates{}, newServiceError(ErrorTypeNetworkError, "failed to read response body", err)
	}

	fetched, err := parseRatesPayload(body)
	if err != nil {
		return FetchedRates{}, err
	}
	fetched.Source = source.url

	source.logger.Debugf("Fetched %d rates updated at %s", len(fetched.Rates), fetched.UpdatedAt.Format(time.RFC3339))
	return fetched, nil
}

// parseRatesPayload decodes and validates a rate source body
func parseRatesPayload(body []byte) (FetchedRates, error) {
	var payload models.RatesPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return FetchedRates{}, newServiceError(ErrorTypeInvalidResponse, "failed to parse rates payload", err)
	}
	if payload.Rates == nil {
		return FetchedRates{}, newServiceError(ErrorTypeInvalidResponse, "rates payload has no rates", nil)
	}
	if payload.UpdatedAt == "" {
		return FetchedRates{}, newServiceError(ErrorTypeInvalidResponse, "rates payload has no updated_at", nil)
	}

	updatedAt, err := time.Parse(time.RFC3339, payload.UpdatedAt)
	if err != nil {
		return FetchedRates{}, newServiceError(ErrorTypeInvalidResponse, "invalid updated_at", err)
	}

	table, err := currency.Accept(payload.Rates)
	if err != nil {
		return FetchedRates{}, newServiceError(ErrorTypeInvalidResponse, "rejected rate table", err)
	}

	return FetchedRates{Rates: table, UpdatedAt: updatedAt.UTC()}, nil
}

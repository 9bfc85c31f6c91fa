package service

import (
	"context"
	"strings"

	"github.com/dalfonso89/marketplace-currency-service/internal/config"

	"github.com/sirupsen/logrus"
)

// NewRateSourceFromConfig builds the configured rate source. A single URL is
// used directly; several are queried concurrently.
func NewRateSourceFromConfig(configuration *config.Config, logger logrus.FieldLogger) RateSource {
	sources := make([]RateSource, len(configuration.RatesSourceURLs))
	for i, url := range configuration.RatesSourceURLs {
		sources[i] = NewHTTPRateSource(url, configuration.RatesFetchTimeout, logger)
	}
	if len(sources) == 1 {
		return sources[0]
	}
	return NewMultiRateSource(sources, configuration.MaxConcurrentRequests, logger)
}

// MultiRateSource queries several sources concurrently and returns the first
// complete table. It fails only when every source fails.
type MultiRateSource struct {
	sources       []RateSource
	maxConcurrent int
	logger        logrus.FieldLogger
}

// NewMultiRateSource creates a fan-out source over sources
func NewMultiRateSource(sources []RateSource, maxConcurrent int, logger logrus.FieldLogger) *MultiRateSource {
	return &MultiRateSource{
		sources:       sources,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// Name joins the names of the underlying sources
func (multiSource *MultiRateSource) Name() string {
	names := make([]string, len(multiSource.sources))
	for i, source := range multiSource.sources {
		names[i] = source.Name()
	}
	return strings.Join(names, ",")
}

// FetchRates fans out to all sources and returns the first success
func (multiSource *MultiRateSource) FetchRates(requestContext context.Context) (FetchedRates, error) {
	if len(multiSource.sources) == 0 {
		return FetchedRates{}, newServiceError(ErrorTypeNoSources, "no rate sources configured", nil)
	}

	type sourceResult struct {
		name    string
		fetched FetchedRates
		err     error
	}

	// losers keep running until their own request finishes; cancel them once we have a winner
	fanOutContext, cancel := context.WithCancel(requestContext)
	defer cancel()

	resultsChannel := make(chan sourceResult, len(multiSource.sources))

	maxConcurrent := multiSource.maxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = len(multiSource.sources)
	}
	semaphore := make(chan struct{}, maxConcurrent)

	for _, source := range multiSource.sources {
		go func(s RateSource) {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			multiSource.logger.Debugf("Fetching rates from source: %s", s.Name())
			fetched, err := s.FetchRates(fanOutContext)
			resultsChannel <- sourceResult{name: s.Name(), fetched: fetched, err: err}
		}(source)
	}

	var firstError error
	for range multiSource.sources {
		select {
		case <-requestContext.Done():
			return FetchedRates{}, newServiceError(ErrorTypeContextCancelled, "request context cancelled", requestContext.Err())
		case result := <-resultsChannel:
			if result.err == nil {
				return result.fetched, nil
			}

			multiSource.logger.WithFields(logrus.Fields{
				"source":     result.name,
				"error_type": ClassifyError(result.err).String(),
			}).Warnf("Rate source failed: %v", result.err)

			if firstError == nil {
				firstError = result.err
			}
		}
	}

	return FetchedRates{}, newServiceError(ErrorTypeSourceFailed, "all rate sources failed", firstError)
}

package service

import (
	"context"
	"sync"
	"time"

	"github.com/dalfonso89/marketplace-currency-service/internal/config"
	"github.com/dalfonso89/marketplace-currency-service/internal/currency"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// State tags where the cached rates came from
type State int

const (
	// StateDefault means no fetch has ever succeeded; the hardcoded table is served.
	StateDefault State = iota
	// StateFetched means the table came from the last refresh attempt.
	StateFetched
	// StateStale means a fetched table is served but it is old or the latest refresh failed.
	StateStale
)

func (state State) String() string {
	switch state {
	case StateFetched:
		return "fetched"
	case StateStale:
		return "stale"
	default:
		return "default"
	}
}

// Snapshot is the externally visible cache state. Rates and UpdatedAt always
// belong to the same fetch.
type Snapshot struct {
	Rates     currency.RateTable
	UpdatedAt time.Time
	Source    string
	State     State
}

// RateResult is a rate lookup tagged with its provenance
type RateResult struct {
	Rate  float64
	Known bool
	State State
}

// RateCache holds the single current rate table. Reads never block on a
// refresh; a refresh swaps the whole table at once or leaves it untouched.
type RateCache struct {
	configuration *config.Config
	source        RateSource
	logger        logrus.FieldLogger
	now           func() time.Time

	cacheMutex        sync.RWMutex
	rates             currency.RateTable
	updatedAt         time.Time
	sourceName        string
	everFetched       bool
	lastRefreshFailed bool

	singleFlightGroup singleflight.Group
}

// NewRateCache creates a cache already populated with the default rates
func NewRateCache(configuration *config.Config, source RateSource, logger logrus.FieldLogger) *RateCache {
	rateCache := &RateCache{
		configuration: configuration,
		source:        source,
		logger:        logger.WithField("component", "rate_cache"),
		now:           time.Now,
	}
	rateCache.Initialize()
	return rateCache
}

// Initialize installs the default rates. It is a no-op once a fetch has
// succeeded so a fresh table is never replaced by defaults.
func (rateCache *RateCache) Initialize() {
	rateCache.cacheMutex.Lock()
	defer rateCache.cacheMutex.Unlock()

	if rateCache.everFetched {
		return
	}
	rateCache.rates = currency.DefaultRates()
	rateCache.updatedAt = time.Time{}
	rateCache.sourceName = "default"
}

// InitializeRates installs defaults and then attempts one refresh
func (rateCache *RateCache) InitializeRates(ctx context.Context) State {
	rateCache.Initialize()
	return rateCache.Refresh(ctx)
}

// Refresh fetches a new table from the source. Failures are logged and
// absorbed; the returned State reflects the cache after the attempt.
// Concurrent callers share a single fetch. A caller whose ctx ends stops
// waiting but the shared fetch still completes and is applied.
func (rateCache *RateCache) Refresh(ctx context.Context) State {
	resultChannel := rateCache.singleFlightGroup.DoChan("refresh", func() (interface{}, error) {
		return nil, rateCache.fetchAndApply(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		rateCache.logger.Debugf("Stopped waiting for refresh: %v", ctx.Err())
	case <-resultChannel:
	}
	return rateCache.State()
}

func (rateCache *RateCache) fetchAndApply(ctx context.Context) error {
	if rateCache.source == nil {
		return rateCache.recordFailure(newServiceError(ErrorTypeNoSources, "no rate source configured", nil))
	}

	fetchContext, cancel := context.WithTimeout(ctx, rateCache.fetchTimeout())
	defer cancel()

	fetched, err := rateCache.source.FetchRates(fetchContext)
	if err != nil {
		return rateCache.recordFailure(err)
	}

	// sources other than HTTPRateSource may hand back unchecked tables
	table, err := currency.Accept(fetched.Rates)
	if err != nil {
		return rateCache.recordFailure(newServiceError(ErrorTypeInvalidResponse, "rejected rate table", err))
	}

	updatedAt := fetched.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = rateCache.now().UTC()
	}

	rateCache.cacheMutex.Lock()
	rateCache.rates = table
	rateCache.updatedAt = updatedAt
	rateCache.sourceName = fetched.Source
	rateCache.everFetched = true
	rateCache.lastRefreshFailed = false
	rateCache.cacheMutex.Unlock()

	rateCache.logger.WithFields(logrus.Fields{
		"source":     fetched.Source,
		"updated_at": updatedAt.Format(time.RFC3339),
		"currencies": len(table),
	}).Info("Exchange rates refreshed")
	return nil
}

func (rateCache *RateCache) recordFailure(err error) error {
	rateCache.cacheMutex.Lock()
	if rateCache.everFetched {
		rateCache.lastRefreshFailed = true
	}
	rateCache.cacheMutex.Unlock()

	rateCache.logger.WithField("error_type", ClassifyError(err).String()).
		Warnf("Exchange rate refresh failed, keeping current rates: %v", err)
	return err
}

func (rateCache *RateCache) fetchTimeout() time.Duration {
	if rateCache.configuration != nil && rateCache.configuration.RatesFetchTimeout > 0 {
		return rateCache.configuration.RatesFetchTimeout
	}
	return 10 * time.Second
}

// State returns the current provenance tag
func (rateCache *RateCache) State() State {
	rateCache.cacheMutex.RLock()
	defer rateCache.cacheMutex.RUnlock()
	return rateCache.stateLocked()
}

func (rateCache *RateCache) stateLocked() State {
	if !rateCache.everFetched {
		return StateDefault
	}
	if rateCache.lastRefreshFailed {
		return StateStale
	}
	if rateCache.configuration != nil && rateCache.configuration.RatesStaleAfter > 0 &&
		rateCache.now().Sub(rateCache.updatedAt) > rateCache.configuration.RatesStaleAfter {
		return StateStale
	}
	return StateFetched
}

// Snapshot returns a copy of the current rates and timestamp
func (rateCache *RateCache) Snapshot() Snapshot {
	rateCache.cacheMutex.RLock()
	defer rateCache.cacheMutex.RUnlock()

	return Snapshot{
		Rates:     rateCache.rates.Clone(),
		UpdatedAt: rateCache.updatedAt,
		Source:    rateCache.sourceName,
		State:     rateCache.stateLocked(),
	}
}

// Lookup returns the rate for code with its provenance. Unknown codes
// resolve to 1.0 with Known set to false.
func (rateCache *RateCache) Lookup(code string) RateResult {
	rateCache.cacheMutex.RLock()
	rate, known := rateCache.rates.Rate(code)
	state := rateCache.stateLocked()
	rateCache.cacheMutex.RUnlock()

	if !known {
		rateCache.logger.Debugf("Unknown currency code %q, using rate 1.0", code)
	}
	return RateResult{Rate: rate, Known: known, State: state}
}

// Rate returns the rate for code, or 1.0 when it is unknown
func (rateCache *RateCache) Rate(code string) float64 {
	return rateCache.Lookup(code).Rate
}

// Convert converts amount with the current table
func (rateCache *RateCache) Convert(amount float64, fromCode, toCode string) float64 {
	return currency.Convert(rateCache.table(), amount, fromCode, toCode)
}

// DisplayRate returns how many units of toCode one fromCode buys
func (rateCache *RateCache) DisplayRate(fromCode, toCode string) float64 {
	return currency.DisplayRate(rateCache.table(), fromCode, toCode)
}

// table returns the installed map. Installed maps are never mutated, so
// callers may read it after the lock is released.
func (rateCache *RateCache) table() currency.RateTable {
	rateCache.cacheMutex.RLock()
	defer rateCache.cacheMutex.RUnlock()
	return rateCache.rates
}

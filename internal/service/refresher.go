package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Refresher polls a RateCache on a fixed interval
type Refresher struct {
	rateCache *RateCache
	interval  time.Duration
	logger    logrus.FieldLogger
}

// NewRefresher creates a poller; an interval of zero disables polling
func NewRefresher(rateCache *RateCache, interval time.Duration, logger logrus.FieldLogger) *Refresher {
	return &Refresher{
		rateCache: rateCache,
		interval:  interval,
		logger:    logger.WithField("component", "rate_refresher"),
	}
}

// Run refreshes every interval until ctx is done. It does not perform an
// initial refresh; callers use RateCache.InitializeRates for that.
func (refresher *Refresher) Run(ctx context.Context) {
	if refresher.interval <= 0 {
		refresher.logger.Debug("Periodic refresh disabled")
		return
	}

	ticker := time.NewTicker(refresher.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			state := refresher.rateCache.Refresh(ctx)
			refresher.logger.Debugf("Periodic refresh finished with state %s", state)
		case <-ctx.Done():
			refresher.logger.Debug("Stopping periodic refresh")
			return
		}
	}
}

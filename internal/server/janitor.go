package server

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ministry/internal/logging"
)

type purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type purgeCounter interface {
	AddPurged(n int64)
}

// janitor deletes expired refresh-token records on a fixed interval.
type janitor struct {
	store    purger
	counter  purgeCounter
	logger   logging.Logger
	interval time.Duration
}

func newJanitor(p purger, c purgeCounter, l logging.Logger, interval time.Duration) *janitor {
	return &janitor{store: p, counter: c, logger: l.With("module", "janitor"), interval: interval}
}

// Run purges once immediately, then every interval until ctx is done.
func (j *janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		j.sweep(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (j *janitor) sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	n, err := j.store.PurgeExpired(ctx)
	if err != nil {
		j.logger.Warn(ctx, "purge expired refresh tokens failed", "error", err)
		return
	}
	if n > 0 {
		j.counter.AddPurged(n)
		j.logger.Info(ctx, "purged expired refresh tokens", "count", n)
	}
}

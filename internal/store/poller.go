package store

import (
	"context"
	"errors"
	"time"

	"artmarket/internal/pkg/logger"

	"go.uber.org/zap"
)

// Poller periodically runs a refresh function, typically the feed
// refresh action. It is the only recurring background task in the
// client and stops as soon as the owning view's context is cancelled.
type Poller struct {
	interval time.Duration
	refresh  func(ctx context.Context) error
	log      *logger.Logger
}

// NewPoller creates a poller around the given refresh function.
func NewPoller(interval time.Duration, refresh func(ctx context.Context) error, l *logger.Logger) *Poller {
	return &Poller{interval: interval, refresh: refresh, log: l}
}

// Run refreshes once immediately and then on every tick until ctx is
// cancelled. Refresh errors are logged and the loop keeps going; a fresh
// user action, not the poller, decides whether to retry anything.
func (p *Poller) Run(ctx context.Context) {
	if err := p.refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.log.Warn("feed refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				p.log.Warn("feed refresh failed", zap.Error(err))
			}
		}
	}
}

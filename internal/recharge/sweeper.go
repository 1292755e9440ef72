package recharge

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically expires stale unpaid orders. It only transitions orders
// already past their deadline, so running it alongside settlement is safe.
type Sweeper struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper builds a sweeper ticking at the given interval.
func NewSweeper(service *Service, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{service: service, interval: interval, logger: logger}
}

// Run blocks sweeping until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.service.ExpireStale(ctx, time.Now().UTC())
			if err != nil {
				s.logger.Warn("expire stale recharge orders", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info("expired stale recharge orders", "count", n)
			}
		}
	}
}

package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/bookmarker/internal/logger"
	"github.com/MrSnakeDoc/bookmarker/internal/metrics"
)

// DefaultInterval is the collection period when none is configured.
const DefaultInterval = 24 * time.Hour

// OrphanSweeper deletes bookmark collections whose owner is gone.
type OrphanSweeper interface {
	SweepOrphans(ctx context.Context) (int, error)
}

// SlotSweeper deletes expired session slots.
type SlotSweeper interface {
	SweepExpiredSlots(ctx context.Context) (int, error)
}

// Collector periodically removes data nothing can reach anymore. Either
// sweeper may be nil.
type Collector struct {
	orphans  OrphanSweeper
	slots    SlotSweeper
	metrics  *metrics.Metrics
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCollector creates a new collector
func NewCollector(
	orphans OrphanSweeper,
	slots SlotSweeper,
	m *metrics.Metrics,
	log logger.Logger,
	interval time.Duration,
) *Collector {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Collector{
		orphans:  orphans,
		slots:    slots,
		metrics:  m,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Enabled reports whether there is anything to sweep.
func (c *Collector) Enabled() bool {
	return c.orphans != nil || c.slots != nil
}

// Start runs one collection, then repeats it every interval until Stop
// or ctx is done.
func (c *Collector) Start(ctx context.Context) {
	// Run immediately on start
	if err := c.Collect(ctx); err != nil {
		c.logger.Warn("initial collection failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(c.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := c.Collect(ctx); err != nil {
					c.logger.Error("collection failed",
						logger.Error(err))
				}
			case <-c.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the collector. It is safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// Collect runs both sweeps once. The slot sweep still runs when the
// orphan sweep fails; the first error is returned.
func (c *Collector) Collect(ctx context.Context) error {
	var firstErr error
	orphans, slots := 0, 0

	if c.orphans != nil {
		n, err := c.orphans.SweepOrphans(ctx)
		if err != nil {
			firstErr = err
		}
		orphans = n
		c.metrics.OrphansRemoved(n)
	}

	if c.slots != nil {
		n, err := c.slots.SweepExpiredSlots(ctx)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		slots = n
	}

	if orphans+slots > 0 {
		c.logger.Info("collection completed",
			logger.Int("orphan_collections_removed", orphans),
			logger.Int("expired_sessions_removed", slots))
	} else {
		c.logger.Debug("nothing to collect")
	}

	return firstErr
}

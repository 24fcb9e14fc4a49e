// Package scheduler drives periodic and on-demand population of the
// snapshot cache. Each (marketplace, direction) pair is fetched on its own
// goroutine and written to its own slot, so one slow or failing source
// never delays or fails another.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lamvh/p2prank/internal/cache"
	"github.com/lamvh/p2prank/internal/exchange"
	"github.com/lamvh/p2prank/internal/models"
)

type Scheduler struct {
	markets  []exchange.Marketplace
	cache    *cache.Cache
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

func New(markets []exchange.Marketplace, c *cache.Cache, interval time.Duration) *Scheduler {
	return &Scheduler{
		markets:  markets,
		cache:    c,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs one cycle to completion so the cache is populated before the
// service answers requests, then begins the polling loop in a background
// goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.RunCycle(ctx)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.RunCycle(ctx)
			case <-ctx.Done():
				log.Info().Msg("scheduler stopped: context done")
				return
			case <-s.stopCh:
				log.Info().Msg("scheduler stopped")
				return
			}
		}
	}()

	log.Info().
		Stringer("interval", s.interval).
		Int("markets", len(s.markets)).
		Msg("scheduler started")
}

// Stop signals the background goroutine to exit cleanly.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Trigger fires an extra refresh cycle without waiting for the timer. Safe
// to call concurrently with a timer-driven cycle: overlapping cycles may
// fetch redundantly but slot writes stay atomic.
func (s *Scheduler) Trigger() {
	go s.RunCycle(context.Background())
}

// RunCycle fetches every (marketplace, direction) pair concurrently and
// updates each pair's slot independently. Partial failures are recorded
// per slot and never abort the cycle.
func (s *Scheduler) RunCycle(ctx context.Context) {
	var wg sync.WaitGroup

	for _, m := range s.markets {
		for _, dir := range models.Directions {
			wg.Add(1)

			go func(m exchange.Marketplace, dir models.Direction) {
				defer wg.Done()
				s.refreshSlot(ctx, m, dir)
			}(m, dir)
		}
	}

	wg.Wait()
}

func (s *Scheduler) refreshSlot(ctx context.Context, m exchange.Marketplace, dir models.Direction) {
	offers, err := m.Fetch(ctx, dir)
	if err != nil {
		s.cache.PutError(m.Name(), dir, err)
		log.Warn().
			Err(err).
			Str("source", m.Name()).
			Str("direction", string(dir)).
			Msg("refresh failed, keeping last snapshot")
		return
	}

	s.cache.Put(m.Name(), dir, offers)
	log.Info().
		Str("source", m.Name()).
		Str("direction", string(dir)).
		Int("offers", len(offers)).
		Msg("snapshot updated")
}

// Package maintenance runs the periodic background jobs that bound the
// memory the admission controller and the cache consume: a rate limiter
// cleanup pass and a cache stats pass. The scheduler is fully decoupled
// from request handling; a failing or panicking run is logged and never
// cancels future runs.
package maintenance

import (
	"log/slog"
	"sync"
	"time"

	"pricegate/internal/cache"
	"pricegate/internal/ratelimit"
)

// Scheduler owns the two maintenance tickers.
type Scheduler struct {
	limiter         ratelimit.Limiter
	cache           *cache.Registry
	cleanupInterval time.Duration
	statsInterval   time.Duration

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewScheduler creates a scheduler that evicts idle rate limiter buckets
// every cleanupInterval and logs cache tier statistics every statsInterval.
func NewScheduler(limiter ratelimit.Limiter, registry *cache.Registry, cleanupInterval, statsInterval time.Duration) *Scheduler {
	return &Scheduler{
		limiter:         limiter,
		cache:           registry,
		cleanupInterval: cleanupInterval,
		statsInterval:   statsInterval,
		done:            make(chan struct{}),
	}
}

// Start launches both jobs. Each runs on its own ticker so a slow stats
// pass never delays a cleanup pass.
func (s *Scheduler) Start() {
	s.wg.Add(2)
	go s.loop(s.cleanupInterval, "ratelimit_cleanup", s.cleanupPass)
	go s.loop(s.statsInterval, "cache_stats", s.statsPass)
	slog.Info("maintenance scheduler started",
		"cleanup_interval", s.cleanupInterval,
		"stats_interval", s.statsInterval)
}

// Close stops both jobs and waits for any in-progress run to finish. Safe
// to call more than once.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

func (s *Scheduler) loop(interval time.Duration, name string, job func()) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			runGuarded(name, job)
		}
	}
}

// runGuarded keeps a panicking job from killing its scheduler goroutine.
func runGuarded(name string, job func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("maintenance job panicked", "job", name, "panic", r)
		}
	}()
	job()
}

func (s *Scheduler) cleanupPass() {
	evicted := s.limiter.CleanupExpired()
	slog.Debug("rate limiter cleanup complete",
		"evicted", evicted,
		"tracked", s.limiter.Len())
}

func (s *Scheduler) statsPass() {
	pruned := s.cache.PruneExpired()
	if pruned > 0 {
		slog.Debug("pruned expired cache entries", "count", pruned)
	}
	for _, st := range s.cache.TierStats() {
		slog.Info("cache tier stats",
			"tier", st.Tier,
			"size", st.Size,
			"hits", st.Hits,
			"misses", st.Misses)
	}
}

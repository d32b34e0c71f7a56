// Package scheduler runs the periodic background jobs of the service
package scheduler

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/amirphl/event-funnel/app/dto"
	"github.com/amirphl/event-funnel/config"
	"github.com/robfig/cron/v3"
)

// StatsAggregator is the part of the marketing stats flow the scheduler drives
type StatsAggregator interface {
	Aggregate(ctx context.Context, from, to time.Time) (*dto.AggregateMarketingStatsResult, error)
}

// Locker grants a single-holder lease; release is always safe to call
type Locker interface {
	TryAcquire(ctx context.Context) (release func(), ok bool, err error)
}

// MarketingStatsScheduler rolls visits and entries up into marketing_stats_daily on a cron schedule
type MarketingStatsScheduler struct {
	stats    StatsAggregator
	lock     Locker
	spec     string
	lookback int
	timeout  time.Duration
	logger   *log.Logger
	now      func() time.Time
}

func NewMarketingStatsScheduler(stats StatsAggregator, lock Locker, cfg config.SchedulerConfig) *MarketingStatsScheduler {
	lookback := cfg.StatsLookbackDays
	if lookback <= 0 {
		lookback = 2
	}
	timeout := cfg.StatsLockTTL
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &MarketingStatsScheduler{
		stats:    stats,
		lock:     lock,
		spec:     cfg.StatsCron,
		lookback: lookback,
		timeout:  timeout,
		logger:   log.New(os.Stdout, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start registers the job and returns a stop function that waits for a running job to finish
func (s *MarketingStatsScheduler) Start(parent context.Context) (func(), error) {
	ctx, cancel := context.WithCancel(parent)

	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cron.PrintfLogger(s.logger))),
	)
	if _, err := c.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		cancel()
		return nil, err
	}
	c.Start()
	s.logger.Printf("scheduler: marketing stats job scheduled with %q", s.spec)

	return func() {
		cancel()
		<-c.Stop().Done()
	}, nil
}

// RunOnce aggregates the lookback window. It skips when another instance holds the lease.
func (s *MarketingStatsScheduler) RunOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	release, ok, err := s.lock.TryAcquire(ctx)
	if err != nil {
		s.logger.Printf("scheduler: marketing stats lock failed: %v", err)
		return
	}
	if !ok {
		s.logger.Printf("scheduler: marketing stats already running elsewhere, skipping")
		return
	}
	defer release()

	to := s.now().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -s.lookback)

	started := time.Now()
	res, err := s.stats.Aggregate(ctx, from, to)
	if err != nil {
		s.logger.Printf("scheduler: marketing stats aggregate %s..%s failed: %v", from.Format(time.DateOnly), to.Format(time.DateOnly), err)
		return
	}
	s.logger.Printf("scheduler: marketing stats %s..%s upserted %d buckets in %s", res.From, res.To, res.Buckets, time.Since(started).Round(time.Millisecond))
}

package schedule

import (
	"context"
	"time"

	"github.com/gorhill/cronexpr"

	"github.com/picobot/picobot/internal/crontab"
	"github.com/picobot/picobot/internal/logger"
)

// Sink receives fired reminders. The events package provides the production
// implementation (queue append plus desktop notification).
type Sink interface {
	Fire(ctx context.Context, label, echoText string) error
}

// Runner is the in-process firing engine for serve mode. Each tick it loads
// the managed entries, skips one-shots guarded for another year, and fires
// everything that became due since the previous tick.
type Runner struct {
	adapter  *crontab.Adapter
	sink     Sink
	log      *logger.Logger
	tick     time.Duration
	lastTick time.Time
}

// NewRunner creates a Runner ticking at the given interval.
func NewRunner(adapter *crontab.Adapter, sink Sink, tick time.Duration, log *logger.Logger) *Runner {
	return &Runner{
		adapter: adapter,
		sink:    sink,
		log:     log,
		tick:    tick,
	}
}

// Run ticks until the context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	r.lastTick = time.Now()

	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	r.log.InfoCtx(ctx, "reminder runner started",
		logger.Field{Key: "tick", Value: r.tick.String()})

	for {
		select {
		case <-ctx.Done():
			r.log.InfoCtx(ctx, "reminder runner stopped")
			return ctx.Err()
		case now := <-ticker.C:
			r.runTick(ctx, now)
		}
	}
}

// runTick fires every entry that became due in (lastTick, now].
func (r *Runner) runTick(ctx context.Context, now time.Time) {
	entries, err := r.adapter.Entries(ctx)
	if err != nil {
		r.log.ErrorCtx(ctx, "runner tick: load entries", err)
		return
	}

	for _, e := range entries {
		if e.GuardYear != 0 && e.GuardYear != now.Year() {
			continue
		}
		due, err := isDue(e, r.lastTick, now)
		if err != nil {
			r.log.WarnCtx(ctx, "runner tick: unparseable schedule",
				logger.Field{Key: "label", Value: e.Label},
				logger.Field{Key: "schedule", Value: e.Schedule()})
			continue
		}
		if !due {
			continue
		}

		if err := r.sink.Fire(ctx, e.Label, e.EchoText()); err != nil {
			r.log.ErrorCtx(ctx, "runner tick: fire reminder", err,
				logger.Field{Key: "label", Value: e.Label})
			continue
		}
		r.log.InfoCtx(ctx, "reminder fired",
			logger.Field{Key: "label", Value: e.Label})
	}

	r.lastTick = now
}

// isDue reports whether the entry's schedule has a fire time after lastTick
// and not after now.
func isDue(e crontab.Entry, lastTick, now time.Time) (bool, error) {
	expr, err := cronexpr.Parse(e.Schedule())
	if err != nil {
		return false, err
	}
	next := expr.Next(lastTick)
	return !next.IsZero() && !next.After(now), nil
}

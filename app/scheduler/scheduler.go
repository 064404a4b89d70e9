package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/user/rss-inbox/app/config"
	"github.com/user/rss-inbox/app/feed"
)

// Scheduler drives the polling loop. Feeds are processed sequentially in
// config order so action side effects never interleave; a per-feed failure
// is logged and the pass continues with the next feed.
type Scheduler struct {
	config    *config.Config
	processor *feed.Processor
	interval  time.Duration
}

func NewScheduler(cfg *config.Config, processor *feed.Processor) *Scheduler {
	return &Scheduler{
		config:    cfg,
		processor: processor,
		interval:  cfg.GetPollInterval(),
	}
}

// Run executes polling passes until the context is cancelled. With once set,
// a single pass is executed and Run returns.
func (s *Scheduler) Run(ctx context.Context, once bool) error {
	for {
		s.runPass(ctx)

		if once {
			return nil
		}

		slog.Debug("Sleeping until next poll", "interval", s.interval.String())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.interval):
		}
	}
}

func (s *Scheduler) runPass(ctx context.Context) {
	feeds := s.config.EnabledFeeds()
	if len(feeds) == 0 {
		slog.Warn("No enabled feeds configured")
		return
	}

	passID := uuid.NewString()
	start := time.Now()
	slog.Info("Starting feed pass", "pass_id", passID, "feeds", len(feeds))

	totalNew := 0
	failed := 0
	for i := range feeds {
		select {
		case <-ctx.Done():
			slog.Info("Feed pass interrupted", "pass_id", passID)
			return
		default:
		}

		feedConfig := feeds[i]
		newCount, err := s.processor.ProcessFeed(ctx, feedConfig)
		if err != nil {
			failed++
			slog.Error("Feed processing failed", "pass_id", passID, "feed", feedConfig.Label(), "error", err)
			continue
		}
		totalNew += newCount
	}

	slog.Info("Feed pass complete", "pass_id", passID, "feeds", len(feeds),
		"failed", failed, "new_entries", totalNew, "elapsed", time.Since(start).Round(time.Millisecond).String())
}

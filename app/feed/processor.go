package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/rss-inbox/app/config"
	"github.com/user/rss-inbox/app/state"
)

// Processor runs one pass over one feed: fetch, parse, dedup, classify,
// dispatch, book-keep. State for the feed is flushed before the processor
// returns; a crash mid-dispatch causes a retry on the next pass, never a
// silent loss.
type Processor struct {
	fetcher    *Fetcher
	parser     *Parser
	classifier *Classifier
	state      *state.Manager
	dispatcher Dispatcher
	maxEntries int
	dryRun     bool
}

func NewProcessor(fetcher *Fetcher, parser *Parser, classifier *Classifier,
	stateManager *state.Manager, dispatcher Dispatcher, maxEntries int, dryRun bool) *Processor {
	return &Processor{
		fetcher:    fetcher,
		parser:     parser,
		classifier: classifier,
		state:      stateManager,
		dispatcher: dispatcher,
		maxEntries: maxEntries,
		dryRun:     dryRun,
	}
}

// ProcessFeed processes a single feed and returns the number of newly
// dispatched entries. Fetch and parse failures increment the feed's error
// counter and are returned to the caller; last_check stays untouched so the
// failure is visible.
func (p *Processor) ProcessFeed(ctx context.Context, feedConfig config.FeedConfig) (int, error) {
	label := feedConfig.Label()
	slog.Info("Processing feed", "feed", label, "url", feedConfig.URL)

	data, err := p.fetcher.Fetch(ctx, feedConfig.URL)
	if err != nil {
		p.countError(feedConfig.URL)
		return 0, fmt.Errorf("failed to fetch feed: %w", err)
	}

	entries, err := p.parser.Run(data)
	if err != nil {
		p.countError(feedConfig.URL)
		return 0, fmt.Errorf("failed to parse feed: %w", err)
	}

	// Preserve the feed's own order (newest-first by convention); truncate,
	// never re-sort.
	if len(entries) > p.maxEntries {
		entries = entries[:p.maxEntries]
	}

	seen := make(map[string]bool)
	for _, id := range p.state.ProcessedEntries(feedConfig.URL) {
		seen[id] = true
	}

	newCount := 0
	for i := range entries {
		entry := &entries[i]
		identity := entry.Identity()
		if seen[identity] {
			continue
		}

		classification := p.classifier.Run(entry, feedConfig.Handler)
		action := feedConfig.ResolveAction(classification)

		classified := &ClassifiedEntry{
			Entry:          *entry,
			FeedURL:        feedConfig.URL,
			FeedName:       feedConfig.Name,
			Classification: classification,
			Action:         action,
			CustomParams:   feedConfig.CustomParams,
		}

		slog.Info("New entry", "feed", label, "title", entry.Title,
			"classification", classification, "action", action)

		outcome := p.dispatcher.Dispatch(ctx, classified)
		if !outcome.Processed() {
			slog.Error("Action failed for entry", "feed", label, "title", entry.Title, "action", action)
			continue
		}

		seen[identity] = true
		newCount++
		if !p.dryRun {
			if err := p.state.AddProcessedEntry(feedConfig.URL, identity); err != nil {
				return newCount, fmt.Errorf("failed to mark entry processed: %w", err)
			}
		}
	}

	if err := p.state.UpdateLastCheck(feedConfig.URL, time.Now().UTC()); err != nil {
		return newCount, fmt.Errorf("failed to update last check: %w", err)
	}

	if newCount > 0 || p.state.ErrorCount(feedConfig.URL) > 0 {
		if err := p.state.ResetErrorCount(feedConfig.URL); err != nil {
			return newCount, fmt.Errorf("failed to reset error count: %w", err)
		}
	}

	if err := p.state.TrimProcessedEntries(feedConfig.URL, state.ProcessedEntriesCap); err != nil {
		return newCount, fmt.Errorf("failed to trim processed entries: %w", err)
	}

	slog.Info("Feed pass completed", "feed", label, "total", len(entries), "new", newCount)
	return newCount, nil
}

func (p *Processor) countError(feedURL string) {
	if _, err := p.state.IncrementErrorCount(feedURL); err != nil {
		slog.Error("Failed to increment error count", "feed_url", feedURL, "error", err)
	}
}

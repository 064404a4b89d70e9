package actions

import (
	"context"
	"log/slog"

	"github.com/user/rss-inbox/app/config"
	"github.com/user/rss-inbox/app/feed"
)

// NoOpAction marks entries as seen without side effects. Used for feeds
// that should be tracked but not acted on.
type NoOpAction struct{}

func NewNoOpAction() *NoOpAction {
	return &NoOpAction{}
}

func (a *NoOpAction) Name() string {
	return config.ActionNone
}

func (a *NoOpAction) Execute(_ context.Context, entry *feed.ClassifiedEntry, _ bool) feed.Outcome {
	slog.Debug("No action configured for entry", "title", entry.Title, "feed", entry.FeedName)
	return feed.OutcomeSuccess
}

package actions

import (
	"context"
	"log/slog"

	"github.com/user/rss-inbox/app/config"
	"github.com/user/rss-inbox/app/cookies"
	"github.com/user/rss-inbox/app/feed"
	"github.com/user/rss-inbox/app/state"
)

var _ feed.Dispatcher = (*Dispatcher)(nil)

// Action executes one entry's side effect: build an invocation, run it with
// a timeout, classify the result. Only the outcome flows back; failure
// details go to the audit log.
type Action interface {
	Name() string
	Execute(ctx context.Context, entry *feed.ClassifiedEntry, dryRun bool) feed.Outcome
}

// Dispatcher routes classified entries to the closed action set. Action
// names are validated at config load, so an unknown name here is a bug and
// is treated as a hard failure.
type Dispatcher struct {
	actions map[string]Action
	dryRun  bool
}

func NewDispatcher(actionConfig *config.ActionConfig, stateManager *state.Manager,
	resolver *cookies.Resolver, scriptBaseDir string, dryRun bool) *Dispatcher {
	registered := []Action{
		NewArchiveAction(actionConfig, stateManager, resolver),
		NewAutomationAction(actionConfig, stateManager, scriptBaseDir),
		NewVideoDownloadAction(actionConfig, stateManager, scriptBaseDir),
		NewNoOpAction(),
	}

	actions := make(map[string]Action, len(registered))
	for _, action := range registered {
		actions[action.Name()] = action
	}

	return &Dispatcher{actions: actions, dryRun: dryRun}
}

// Dispatch hands the entry to its resolved action.
func (d *Dispatcher) Dispatch(ctx context.Context, entry *feed.ClassifiedEntry) feed.Outcome {
	action, ok := d.actions[entry.Action]
	if !ok {
		slog.Error("Unknown action", "action", entry.Action, "title", entry.Title)
		return feed.OutcomeHardFailure
	}

	outcome := action.Execute(ctx, entry, d.dryRun)
	slog.Debug("Action dispatched", "action", entry.Action, "title", entry.Title, "outcome", outcome.String())
	return outcome
}

// Stats collects per-action statistics for the info command.
func (d *Dispatcher) Stats() map[string]map[string]interface{} {
	stats := make(map[string]map[string]interface{}, len(d.actions))
	for name, action := range d.actions {
		if provider, ok := action.(interface{ Stats() map[string]interface{} }); ok {
			stats[name] = provider.Stats()
		}
	}
	return stats
}

package actions

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/user/rss-inbox/app/config"
	"github.com/user/rss-inbox/app/feed"
	"github.com/user/rss-inbox/app/state"
)

// AutomationAction hands entries to a local automation script through
// osascript. Relative script paths resolve against the script base dir.
type AutomationAction struct {
	cfg        *config.ActionConfig
	state      *state.Manager
	scriptPath string
}

func NewAutomationAction(cfg *config.ActionConfig, stateManager *state.Manager, baseDir string) *AutomationAction {
	return &AutomationAction{
		cfg:        cfg,
		state:      stateManager,
		scriptPath: resolveScriptPath(cfg.AutomationScript, baseDir),
	}
}

func (a *AutomationAction) Name() string {
	return config.ActionAutomation
}

func (a *AutomationAction) Execute(ctx context.Context, entry *feed.ClassifiedEntry, dryRun bool) feed.Outcome {
	if entry.Link == "" {
		slog.Warn("No link found for entry", "title", entry.Title)
		a.recordFailure(entry, "missing link")
		return feed.OutcomeHardFailure
	}

	if !fileExists(a.scriptPath) {
		slog.Error("Automation script not found", "path", a.scriptPath)
		a.recordFailure(entry, "script missing")
		return feed.OutcomeHardFailure
	}

	mapping := map[string]string{
		"title":          entry.Title,
		"url":            entry.Link,
		"classification": entry.Classification,
	}
	scriptArgs := expandTemplateArgs(a.cfg.AutomationArgsTemplate, mapping)
	argv := append([]string{"osascript", a.scriptPath}, scriptArgs...)

	if dryRun {
		slog.Info("[DRY RUN] Would execute automation script",
			"script", a.scriptPath, "title", entry.Title, "url", entry.Link)
		return feed.OutcomeSuccess
	}

	slog.Debug("Executing automation script", "title", entry.Title, "script", a.scriptPath)

	timeout := time.Duration(a.cfg.AutomationTimeout) * time.Second
	result, err := runCommand(ctx, timeout, argv)
	if err != nil {
		slog.Error("Error executing automation script", "title", entry.Title, "error", err)
		a.recordFailure(entry, err.Error())
		return feed.OutcomeHardFailure
	}
	if result.timedOut {
		slog.Error("Automation script timeout", "title", entry.Title)
		a.recordFailure(entry, "timeout")
		return feed.OutcomeHardFailure
	}
	if result.exitCode != 0 {
		errText := result.errorText()
		slog.Error("Automation script failed", "title", entry.Title, "error", errText)
		a.recordFailure(entry, errText)
		return feed.OutcomeHardFailure
	}

	slog.Info("Successfully executed automation script", "title", entry.Title)
	if output := strings.TrimSpace(result.stdout); output != "" {
		slog.Debug("Automation script output", "output", output)
	}
	return feed.OutcomeSuccess
}

func (a *AutomationAction) Stats() map[string]interface{} {
	return map[string]interface{}{
		"script_path":   a.scriptPath,
		"script_exists": fileExists(a.scriptPath),
	}
}

func (a *AutomationAction) recordFailure(entry *feed.ClassifiedEntry, reason string) {
	if a.state == nil {
		return
	}
	if err := a.state.RecordFailure(entry.FeedURL, entry.Identity(), entry.Link, a.Name(), reason); err != nil {
		slog.Debug("Failed to record automation failure", "title", entry.Title, "error", err)
	}
}

func resolveScriptPath(script, baseDir string) string {
	script = config.ExpandPath(script)
	if script == "" || filepath.IsAbs(script) {
		return script
	}
	return filepath.Join(baseDir, script)
}

package actions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/user/rss-inbox/app/config"
	"github.com/user/rss-inbox/app/feed"
	"github.com/user/rss-inbox/app/state"
)

// softFailureIndicators mark downloader errors that mean the content is
// permanently unavailable at the source. These are recorded in the audit log
// but still count as processed, so the entry is never retried. Inherently
// fragile substring matching; an explicit exit-code convention with the
// downloader would be the structured alternative.
var softFailureIndicators = []string{
	"tweet status:",
	"failed to scan your link",
	"private/suspended account",
	"deleted tweet",
	"no video links found",
}

// VideoDownloadAction forwards video URLs to the downloader dispatch script.
type VideoDownloadAction struct {
	cfg     *config.ActionConfig
	state   *state.Manager
	baseDir string
}

func NewVideoDownloadAction(cfg *config.ActionConfig, stateManager *state.Manager, baseDir string) *VideoDownloadAction {
	return &VideoDownloadAction{cfg: cfg, state: stateManager, baseDir: baseDir}
}

func (a *VideoDownloadAction) Name() string {
	return config.ActionVideoDownload
}

func (a *VideoDownloadAction) Execute(ctx context.Context, entry *feed.ClassifiedEntry, dryRun bool) feed.Outcome {
	if entry.Link == "" {
		slog.Warn("No link found for entry", "title", entry.Title)
		a.recordFailure(entry, "missing link")
		return feed.OutcomeHardFailure
	}

	argv, timeout, err := a.buildCommand(entry)
	if err != nil {
		slog.Error("Video downloader misconfigured", "title", entry.Title, "error", err)
		a.recordFailure(entry, err.Error())
		return feed.OutcomeHardFailure
	}

	if dryRun {
		slog.Info("[DRY RUN] Would execute video downloader", "command", strings.Join(argv, " "))
		return feed.OutcomeSuccess
	}

	slog.Debug("Executing video downloader", "title", entry.Title, "command", strings.Join(argv, " "))

	result, runErr := runCommand(ctx, timeout, argv)
	if runErr != nil {
		slog.Error("Error executing video downloader", "title", entry.Title, "error", runErr)
		a.recordFailure(entry, runErr.Error())
		return feed.OutcomeHardFailure
	}
	if result.timedOut {
		slog.Error("Video downloader timeout", "title", entry.Title, "timeout", timeout.String())
		a.recordFailure(entry, fmt.Sprintf("timeout after %s", timeout))
		return feed.OutcomeHardFailure
	}
	if result.exitCode == 0 {
		slog.Info("Video downloader succeeded", "title", entry.Title)
		return feed.OutcomeSuccess
	}

	errText := result.errorText()
	if isSoftFailure(errText) {
		slog.Info("Video unavailable, marking as processed", "title", entry.Title, "reason", errText)
		a.recordFailure(entry, errText)
		return feed.OutcomeSoftFailure
	}

	slog.Error("Video downloader failed", "title", entry.Title, "error", errText)
	a.recordFailure(entry, errText)
	return feed.OutcomeHardFailure
}

// buildCommand assembles interpreter + script + templated args, honoring
// per-entry overrides for all of them.
func (a *VideoDownloadAction) buildCommand(entry *feed.ClassifiedEntry) ([]string, time.Duration, error) {
	script := entry.StringParam("video_downloader_script")
	if script == "" {
		script = a.cfg.VideoDownloaderScript
	}
	script = resolveScriptPath(script, a.baseDir)
	if !fileExists(script) {
		return nil, 0, fmt.Errorf("script not found: %s", script)
	}

	interpreter := entry.StringParam("video_downloader_interpreter")
	if interpreter == "" {
		interpreter = a.cfg.VideoDownloaderInterpreter
	}
	interpreterParts, err := shlex.Split(interpreter)
	if err != nil || len(interpreterParts) == 0 {
		return nil, 0, fmt.Errorf("invalid interpreter command: %s", interpreter)
	}

	template := a.argsTemplate(entry)
	mapping := map[string]string{
		"url":            entry.Link,
		"title":          entry.Title,
		"classification": entry.Classification,
		"feed_url":       entry.FeedURL,
		"feed_name":      entry.FeedName,
	}
	for key, value := range entry.CustomParams {
		if _, exists := mapping[key]; exists {
			continue
		}
		switch v := value.(type) {
		case string:
			mapping[key] = v
		case int:
			mapping[key] = fmt.Sprintf("%d", v)
		case float64:
			mapping[key] = strings.TrimSuffix(fmt.Sprintf("%v", v), ".0")
		}
	}

	args := expandTemplateArgs(template, mapping)
	if !templateHasURL(template) {
		args = append(args, entry.Link)
	}

	timeout := time.Duration(a.cfg.VideoDownloaderTimeout) * time.Second
	if override := entry.StringParam("video_downloader_timeout"); override != "" {
		if parsed, err := time.ParseDuration(override + "s"); err == nil {
			timeout = parsed
		}
	} else if raw, ok := entry.CustomParams["video_downloader_timeout"].(int); ok && raw > 0 {
		timeout = time.Duration(raw) * time.Second
	}

	argv := append(interpreterParts, script)
	argv = append(argv, args...)
	return argv, timeout, nil
}

func (a *VideoDownloadAction) argsTemplate(entry *feed.ClassifiedEntry) []string {
	if raw, ok := entry.CustomParams["video_downloader_args"]; ok {
		switch v := raw.(type) {
		case string:
			if parts, err := shlex.Split(v); err == nil && len(parts) > 0 {
				return parts
			}
		case []interface{}:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				return parts
			}
		}
	}
	if len(a.cfg.VideoDownloaderArgsTemplate) > 0 {
		return a.cfg.VideoDownloaderArgsTemplate
	}
	return []string{"{url}"}
}

func (a *VideoDownloadAction) Stats() map[string]interface{} {
	script := resolveScriptPath(a.cfg.VideoDownloaderScript, a.baseDir)
	return map[string]interface{}{
		"script_path":   script,
		"script_exists": fileExists(script),
		"interpreter":   a.cfg.VideoDownloaderInterpreter,
	}
}

func (a *VideoDownloadAction) recordFailure(entry *feed.ClassifiedEntry, reason string) {
	if a.state == nil {
		return
	}
	if err := a.state.RecordFailure(entry.FeedURL, entry.Identity(), entry.Link, a.Name(), reason); err != nil {
		slog.Debug("Failed to record video downloader failure", "title", entry.Title, "error", err)
	}
}

func templateHasURL(template []string) bool {
	for _, arg := range template {
		if strings.Contains(arg, "{url}") {
			return true
		}
	}
	return false
}

func isSoftFailure(errText string) bool {
	normalized := strings.ToLower(errText)
	for _, indicator := range softFailureIndicators {
		if strings.Contains(normalized, indicator) {
			return true
		}
	}
	return false
}

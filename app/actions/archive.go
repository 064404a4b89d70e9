package actions

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/user/rss-inbox/app/config"
	"github.com/user/rss-inbox/app/cookies"
	"github.com/user/rss-inbox/app/feed"
	"github.com/user/rss-inbox/app/state"
)

// archiveExtensions are the output files counted as successful archives.
var archiveExtensions = map[string]bool{".html": true, ".htm": true}

// ArchiveAction saves webpages through the archiver toolchain, preferring
// the standalone binary, then the module entrypoint, then the legacy CLI.
type ArchiveAction struct {
	cfg     *config.ActionConfig
	state   *state.Manager
	cookies *cookies.Resolver
}

func NewArchiveAction(cfg *config.ActionConfig, stateManager *state.Manager,
	resolver *cookies.Resolver) *ArchiveAction {
	return &ArchiveAction{cfg: cfg, state: stateManager, cookies: resolver}
}

func (a *ArchiveAction) Name() string {
	return config.ActionArchive
}

func (a *ArchiveAction) Execute(ctx context.Context, entry *feed.ClassifiedEntry, dryRun bool) feed.Outcome {
	if entry.Link == "" {
		slog.Warn("No link found for entry", "title", entry.Title)
		a.recordFailure(entry, "missing link")
		return feed.OutcomeHardFailure
	}

	outputDir := a.resolveOutputDir(entry)
	argv := a.buildCommand(ctx, entry, outputDir)

	if dryRun {
		slog.Info("[DRY RUN] Would execute archive command",
			"command", strings.Join(argv, " "), "output_dir", outputDir)
		return feed.OutcomeSuccess
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		slog.Error("Failed to create archive output dir", "path", outputDir, "error", err)
		a.recordFailure(entry, "output dir: "+err.Error())
		return feed.OutcomeHardFailure
	}

	slog.Debug("Executing archive command", "title", entry.Title, "url", entry.Link)

	timeout := time.Duration(a.cfg.ArchiveTimeout) * time.Second
	result, err := runCommand(ctx, timeout, argv)
	if err != nil {
		slog.Error("Error executing archiver", "title", entry.Title, "error", err)
		a.recordFailure(entry, err.Error())
		return feed.OutcomeHardFailure
	}
	if result.timedOut {
		slog.Error("Archiver timeout", "title", entry.Title)
		a.recordFailure(entry, "timeout")
		return feed.OutcomeHardFailure
	}
	if result.exitCode != 0 {
		errText := result.errorText()
		slog.Error("Archiver failed", "title", entry.Title, "error", errText)
		a.recordFailure(entry, errText)
		return feed.OutcomeHardFailure
	}

	slog.Info("Successfully archived", "title", entry.Title)
	return feed.OutcomeSuccess
}

// resolveOutputDir applies entry-level overrides before action-level ones.
func (a *ArchiveAction) resolveOutputDir(entry *feed.ClassifiedEntry) string {
	candidates := []string{
		entry.StringParam("archive_dir"),
		a.cfg.ArchiveDir,
		entry.StringParam("archive_output_dir"),
		a.cfg.ArchiveOutputDir,
	}
	for _, candidate := range candidates {
		if candidate != "" {
			return config.ExpandPath(candidate)
		}
	}
	return config.ExpandPath("~/Downloads/Archive")
}

func (a *ArchiveAction) buildCommand(ctx context.Context, entry *feed.ClassifiedEntry, outputDir string) []string {
	prefer := strings.ToLower(entry.StringParam("archive_prefer"))
	if prefer == "" {
		prefer = strings.ToLower(a.cfg.ArchivePrefer)
	}
	if prefer == "" {
		prefer = "bin"
	}

	binPath := entry.StringParam("archiver_bin")
	if binPath == "" {
		binPath = a.cfg.ArchiverBin
	}
	binPath = config.ExpandPath(binPath)

	moduleExec := entry.StringParam("archiver_module_exec")
	if moduleExec == "" {
		moduleExec = a.cfg.ArchiverModuleExec
	}

	legacyCmd := entry.StringParam("archive_command")
	if legacyCmd == "" {
		legacyCmd = a.cfg.ArchiveCommand
	}

	cookieFile := a.resolveCookieFile(ctx, entry)

	if (prefer == "bin" || prefer == "auto") && binPath != "" && fileExists(binPath) {
		argv := []string{binPath, "archive", "single", entry.Link, "--output", outputDir}
		if cookieFile != "" {
			argv = append(argv, "--cookies-file", cookieFile)
		}
		return argv
	}

	if prefer == "bin" || prefer == "module" {
		if moduleCmd, err := shlex.Split(moduleExec); err == nil && len(moduleCmd) > 0 {
			argv := append(moduleCmd, "archive", "single", entry.Link, "--output", outputDir)
			if cookieFile != "" {
				argv = append(argv, "--cookies-file", cookieFile)
			}
			return argv
		}
	}

	// Legacy direct CLI fallback
	argv := []string{legacyCmd, entry.Link, "--filename-template", filepath.Join(outputDir, "page.html")}
	if cookieFile != "" {
		argv = append(argv, "--browser-cookies-file", cookieFile)
	}
	return argv
}

// resolveCookieFile prefers an explicitly configured cookie file, then the
// per-domain bundle from the resolver; either must exist on disk.
func (a *ArchiveAction) resolveCookieFile(ctx context.Context, entry *feed.ClassifiedEntry) string {
	configured := entry.StringParam("archive_cookies_file")
	if configured == "" {
		configured = a.cfg.ArchiveCookiesFile
	}
	if configured != "" {
		configured = config.ExpandPath(configured)
		if fileExists(configured) {
			return configured
		}
		slog.Warn("Cookies file not found, ignoring", "path", configured)
	}

	if a.cookies == nil {
		return ""
	}
	bundle := a.cookies.BundleForURL(ctx, entry.Link)
	if bundle == nil || bundle.CookieFile == "" || !fileExists(bundle.CookieFile) {
		return ""
	}
	slog.Debug("Using resolved cookies", "domain", bundle.Domain, "source", bundle.Source)
	return bundle.CookieFile
}

// Stats counts archived files with a known extension under the output dir.
func (a *ArchiveAction) Stats() map[string]interface{} {
	outputDir := config.ExpandPath(a.cfg.ArchiveDir)
	if outputDir == "" {
		outputDir = config.ExpandPath(a.cfg.ArchiveOutputDir)
	}

	saved := 0
	if items, err := os.ReadDir(outputDir); err == nil {
		for _, item := range items {
			if !item.IsDir() && archiveExtensions[strings.ToLower(filepath.Ext(item.Name()))] {
				saved++
			}
		}
	}

	return map[string]interface{}{
		"saved_files":      saved,
		"output_directory": outputDir,
	}
}

func (a *ArchiveAction) recordFailure(entry *feed.ClassifiedEntry, reason string) {
	if a.state == nil {
		return
	}
	if err := a.state.RecordFailure(entry.FeedURL, entry.Identity(), entry.Link, a.Name(), reason); err != nil {
		slog.Debug("Failed to record archive failure", "title", entry.Title, "error", err)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

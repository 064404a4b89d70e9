package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/user/rss-inbox/app/actions"
	"github.com/user/rss-inbox/app/api"
	"github.com/user/rss-inbox/app/cfg"
	"github.com/user/rss-inbox/app/config"
	"github.com/user/rss-inbox/app/cookies"
	"github.com/user/rss-inbox/app/feed"
	"github.com/user/rss-inbox/app/scheduler"
	"github.com/user/rss-inbox/app/state"
)

const fetchTimeout = 30 * time.Second

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	if err := run(appCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(appCfg *cfg.Cfg) error {
	switch appCfg.Command {
	case "run":
		return runProcess(appCfg)
	case "read":
		return runRead(appCfg)
	case "write":
		return runWrite(appCfg)
	case "info":
		return runInfo(appCfg)
	case "config":
		return runConfig(appCfg)
	default:
		return fmt.Errorf("unknown command: %s", appCfg.Command)
	}
}

// runProcess executes the feed processing loop, optionally serving the
// status API alongside it.
func runProcess(appCfg *cfg.Cfg) error {
	appConfig, err := config.Load(appCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	setupLogging(appCfg, appConfig)

	slog.Info("Starting RSS Inbox", "version", appCfg.Version,
		"config", appCfg.ConfigPath, "feeds", len(appConfig.EnabledFeeds()),
		"dry_run", appCfg.Run.DryRun, "once", appCfg.Run.Once)

	stateManager := state.NewManager(appCfg.DataDir)
	dispatcher := buildDispatcher(appCfg, appConfig, stateManager)

	fetcher := feed.NewFetcher(appCfg.UserAgent, appConfig.RetryAttempts,
		appConfig.GetRetryDelay(), fetchTimeout)
	processor := feed.NewProcessor(fetcher, feed.NewParser(),
		feed.NewClassifier(appConfig.Classification), stateManager, dispatcher,
		appConfig.MaxEntries, appCfg.Run.DryRun)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if appCfg.Port != "" && !appCfg.Run.Once {
		handler := api.NewHandler(appConfig, stateManager, dispatcher)
		go api.Run(api.NewServer(handler), appCfg.Port)
	}

	err = scheduler.NewScheduler(appConfig, processor).Run(ctx, appCfg.Run.Once)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	slog.Info("Shutdown complete")
	return nil
}

func runRead(appCfg *cfg.Cfg) error {
	stateManager := state.NewManager(appCfg.DataDir)

	var payload interface{}
	if appCfg.Read.Key != "" {
		value, ok := stateManager.ReadKey(appCfg.Read.Key)
		if !ok {
			return fmt.Errorf("key not found: %s", appCfg.Read.Key)
		}
		payload = value
	} else {
		payload = stateManager.ReadAll()
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func runWrite(appCfg *cfg.Cfg) error {
	stateManager := state.NewManager(appCfg.DataDir)

	// Values that parse as JSON are stored structured, anything else as a
	// plain string.
	var value interface{}
	if err := json.Unmarshal([]byte(appCfg.Write.Value), &value); err != nil {
		value = appCfg.Write.Value
	}

	if err := stateManager.WriteKey(appCfg.Write.Key, value); err != nil {
		return fmt.Errorf("failed to write key %s: %w", appCfg.Write.Key, err)
	}

	fmt.Printf("Wrote %s\n", appCfg.Write.Key)
	return nil
}

func runInfo(appCfg *cfg.Cfg) error {
	stateManager := state.NewManager(appCfg.DataDir)

	fmt.Printf("RSS Inbox %s\n", appCfg.Version)
	fmt.Printf("Config: %s\n", appCfg.ConfigPath)
	fmt.Printf("Data directory: %s\n", appCfg.DataDir)
	fmt.Println(stateManager.Stats().String())

	// Config-dependent sections are best effort; info stays usable when the
	// config file is absent.
	appConfig, err := config.Load(appCfg.ConfigPath)
	if err != nil {
		fmt.Printf("Config not loaded: %v\n", err)
		return nil
	}

	fmt.Printf("Feeds: %d configured, %d enabled\n",
		len(appConfig.Feeds), len(appConfig.EnabledFeeds()))

	dispatcher := buildDispatcher(appCfg, appConfig, stateManager)
	actionStats, err := json.MarshalIndent(dispatcher.Stats(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("Actions: %s\n", actionStats)
	return nil
}

func runConfig(appCfg *cfg.Cfg) error {
	if appCfg.Config.Example {
		example, err := config.Example()
		if err != nil {
			return err
		}
		fmt.Print(example)
		return nil
	}

	appConfig, err := config.Load(appCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	rendered, err := config.Render(appConfig)
	if err != nil {
		return err
	}
	fmt.Print(rendered)
	return nil
}

func buildDispatcher(appCfg *cfg.Cfg, appConfig *config.Config, stateManager *state.Manager) *actions.Dispatcher {
	actionConfig := &appConfig.Actions

	cacheDir := config.ExpandPath(actionConfig.CookieCacheDir)
	if cacheDir == "" {
		cacheDir = filepath.Join(appCfg.DataDir, "cookies")
	}
	tempDir := config.ExpandPath(actionConfig.CookieTempDir)
	if tempDir == "" {
		tempDir = filepath.Join(appCfg.DataDir, "tmp")
	}

	var remote cookies.Fetcher
	if actionConfig.CookieRemoteFetch {
		remote = cookies.NewFetcherFromEnv()
		if remote == nil {
			slog.Warn("Remote cookie fetch enabled but Cloudflare credentials are not set")
		}
	}
	resolver := cookies.NewResolver(cacheDir, tempDir, remote)

	// Relative action scripts resolve against the config file location.
	scriptBaseDir := filepath.Dir(appCfg.ConfigPath)

	return actions.NewDispatcher(actionConfig, stateManager, resolver, scriptBaseDir, appCfg.Run.DryRun)
}

func setupLogging(appCfg *cfg.Cfg, appConfig *config.Config) {
	level := appConfig.SlogLevel()

	switch strings.ToUpper(appCfg.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	}

	if appCfg.Debug || appCfg.Run.Verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

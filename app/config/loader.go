package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// legacy action spellings accepted in config files
var actionAliases = map[string]string{
	"singlefile":       ActionArchive,
	"singlefile_cli":   ActionArchive,
	"webpage":          ActionArchive,
	"applescript":      ActionAutomation,
	"video":            ActionVideoDownload,
	"downie":           ActionVideoDownload,
	"downloader":       ActionVideoDownload,
	"video_downloader": ActionVideoDownload,
}

var validActions = map[string]bool{
	ActionAuto:          true,
	ActionArchive:       true,
	ActionAutomation:    true,
	ActionVideoDownload: true,
	ActionNone:          true,
}

var validLogLevels = map[string]bool{
	"DEBUG":   true,
	"INFO":    true,
	"WARNING": true,
	"ERROR":   true,
}

// Load reads and validates the application configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	setDefaults(&config)
	normalize(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &config, nil
}

func setDefaults(config *Config) {
	if config.PollInterval == 0 {
		config.PollInterval = 900 // seconds
	}
	if config.MaxEntries == 0 && config.MaxEntriesPerFeed != 0 {
		config.MaxEntries = config.MaxEntriesPerFeed
	}
	if config.MaxEntries == 0 {
		config.MaxEntries = 20
	}
	if config.RetryAttempts == 0 {
		config.RetryAttempts = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 60 // seconds
	}
	if config.LogLevel == "" {
		config.LogLevel = "INFO"
	}
	if len(config.Classification.VideoDomains) == 0 {
		config.Classification.VideoDomains = []string{
			"youtube.com", "youtu.be", "vimeo.com", "twitch.tv",
		}
	}
	if len(config.Classification.VideoKeywords) == 0 {
		config.Classification.VideoKeywords = []string{
			"video", "youtube", "vimeo", "twitch",
		}
	}

	actions := &config.Actions
	if actions.ArchivePrefer == "" {
		actions.ArchivePrefer = "bin"
	}
	if actions.ArchiveCommand == "" {
		actions.ArchiveCommand = "single-file"
	}
	if actions.ArchiveOutputDir == "" {
		actions.ArchiveOutputDir = "~/Downloads/Archive"
	}
	if actions.ArchiveTimeout == 0 {
		actions.ArchiveTimeout = 300 // seconds
	}
	if len(actions.AutomationArgsTemplate) == 0 {
		actions.AutomationArgsTemplate = []string{"{url}", "{title}"}
	}
	if actions.AutomationTimeout == 0 {
		actions.AutomationTimeout = 60 // seconds
	}
	if actions.VideoDownloaderInterpreter == "" {
		actions.VideoDownloaderInterpreter = "python3"
	}
	if len(actions.VideoDownloaderArgsTemplate) == 0 {
		actions.VideoDownloaderArgsTemplate = []string{"{url}"}
	}
	if actions.VideoDownloaderTimeout == 0 {
		actions.VideoDownloaderTimeout = 180 // seconds
	}
}

func normalize(config *Config) {
	config.LogLevel = strings.ToUpper(config.LogLevel)

	for i := range config.Feeds {
		normalizeFeed(&config.Feeds[i])
	}
}

func normalizeFeed(feed *FeedConfig) {
	// Map legacy category/type/kind fields onto handler when handler missing
	if feed.Handler == "" {
		for _, legacy := range []string{feed.Category, feed.Type, feed.Kind} {
			if legacy != "" {
				feed.Handler = legacy
				break
			}
		}
	}

	action := strings.ToLower(feed.Action)

	// Derive handler from legacy action names when still missing
	if feed.Handler == "" {
		switch action {
		case "applescript", "video_downloader", "video", "downie":
			feed.Handler = HandlerVideo
		case "singlefile", "singlefile_cli", "webpage":
			feed.Handler = HandlerWebpage
		}
	}

	feed.Handler = strings.ToLower(feed.Handler)
	if feed.Handler == "" {
		feed.Handler = HandlerWebpage
	}

	if mapped, ok := actionAliases[action]; ok {
		action = mapped
	}
	if action == "" {
		action = ActionAuto
	}
	feed.Action = action
}

func validate(config *Config) error {
	if config.PollInterval < 0 {
		return fmt.Errorf("poll interval must be non-negative")
	}
	if config.MaxEntries < 0 {
		return fmt.Errorf("max entries must be non-negative")
	}
	if config.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts must be non-negative")
	}
	if !validLogLevels[config.LogLevel] {
		return fmt.Errorf("log level must be one of DEBUG, INFO, WARNING, ERROR")
	}

	for i, feed := range config.Feeds {
		if feed.URL == "" {
			return fmt.Errorf("feed at index %d: URL is required", i)
		}
		if feed.Handler != HandlerWebpage && feed.Handler != HandlerVideo {
			return fmt.Errorf("feed %s: handler must be webpage or video, got %q", feed.URL, feed.Handler)
		}
		if !validActions[feed.Action] {
			return fmt.Errorf("feed %s: unknown action %q", feed.URL, feed.Action)
		}
	}

	switch config.Actions.ArchivePrefer {
	case "bin", "module", "legacy":
	default:
		return fmt.Errorf("archive_prefer must be bin, module or legacy, got %q", config.Actions.ArchivePrefer)
	}

	return nil
}

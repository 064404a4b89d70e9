package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// GetPollInterval returns the poll interval as time.Duration
func (c *Config) GetPollInterval() time.Duration {
	if c.PollInterval <= 0 {
		return 900 * time.Second
	}
	return time.Duration(c.PollInterval) * time.Second
}

// GetRetryDelay returns the retry delay as time.Duration
func (c *Config) GetRetryDelay() time.Duration {
	if c.RetryDelay <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.RetryDelay) * time.Second
}

// SlogLevel maps the configured log level onto a slog.Level
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "DEBUG":
		return slog.LevelDebug
	case "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// EnabledFeeds returns the enabled feeds in configuration order.
func (c *Config) EnabledFeeds() []FeedConfig {
	enabled := make([]FeedConfig, 0, len(c.Feeds))
	for _, feed := range c.Feeds {
		if feed.IsEnabled() {
			enabled = append(enabled, feed)
		}
	}
	return enabled
}

// IsEnabled reports whether the feed is enabled; feeds are enabled unless
// explicitly disabled.
func (f *FeedConfig) IsEnabled() bool {
	return f.Enabled == nil || *f.Enabled
}

// Label returns the display name, falling back to the URL.
func (f *FeedConfig) Label() string {
	if f.Name != "" {
		return f.Name
	}
	return f.URL
}

// ResolveAction resolves the action for the feed given a classification.
// An explicit non-auto action always wins.
func (f *FeedConfig) ResolveAction(classification string) string {
	if f.Action != "" && f.Action != ActionAuto {
		return f.Action
	}

	base := classification
	if base == "" {
		base = f.Handler
	}
	if base == HandlerVideo {
		return ActionVideoDownload
	}
	return ActionArchive
}

// StringParam returns a string-valued custom parameter, or "" when absent
// or not a string.
func (f *FeedConfig) StringParam(key string) string {
	if f.CustomParams == nil {
		return ""
	}
	if value, ok := f.CustomParams[key].(string); ok {
		return value
	}
	return ""
}

// ExpandPath expands a leading ~/ against the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

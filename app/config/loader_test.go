package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfigFile(t, `
feeds:
  - name: Example
    url: https://example.com/feed.xml
`)

	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.PollInterval != 900 {
		t.Errorf("Expected default poll interval 900, got %d", config.PollInterval)
	}
	if config.MaxEntries != 20 {
		t.Errorf("Expected default max entries 20, got %d", config.MaxEntries)
	}
	if config.RetryAttempts != 3 {
		t.Errorf("Expected default retry attempts 3, got %d", config.RetryAttempts)
	}
	if config.LogLevel != "INFO" {
		t.Errorf("Expected default log level INFO, got %s", config.LogLevel)
	}
	if len(config.Classification.VideoDomains) == 0 {
		t.Error("Expected default video domains to be set")
	}
	if config.Actions.ArchivePrefer != "bin" {
		t.Errorf("Expected default archive_prefer bin, got %s", config.Actions.ArchivePrefer)
	}
	if config.Actions.VideoDownloaderInterpreter != "python3" {
		t.Errorf("Expected default interpreter python3, got %s", config.Actions.VideoDownloaderInterpreter)
	}
}

func TestLoad_FeedNormalization(t *testing.T) {
	path := writeConfigFile(t, `
feeds:
  - name: Plain
    url: https://a.example/feed.xml
  - name: Legacy action
    url: https://b.example/feed.xml
    action: singlefile
  - name: Legacy video action
    url: https://c.example/feed.xml
    action: downie
  - name: Legacy category
    url: https://d.example/feed.xml
    category: video
`)

	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cases := []struct {
		index   int
		handler string
		action  string
	}{
		{0, HandlerWebpage, ActionAuto},
		{1, HandlerWebpage, ActionArchive},
		{2, HandlerVideo, ActionVideoDownload},
		{3, HandlerVideo, ActionAuto},
	}

	for _, tc := range cases {
		feed := config.Feeds[tc.index]
		if feed.Handler != tc.handler {
			t.Errorf("Feed %d: expected handler %s, got %s", tc.index, tc.handler, feed.Handler)
		}
		if feed.Action != tc.action {
			t.Errorf("Feed %d: expected action %s, got %s", tc.index, tc.action, feed.Action)
		}
	}
}

func TestLoad_LegacyMaxEntriesAlias(t *testing.T) {
	path := writeConfigFile(t, `
max_entries_per_feed: 5
feeds:
  - url: https://example.com/feed.xml
`)

	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.MaxEntries != 5 {
		t.Errorf("Expected max_entries_per_feed alias to map to 5, got %d", config.MaxEntries)
	}
}

func TestLoad_UnknownActionRejected(t *testing.T) {
	path := writeConfigFile(t, `
feeds:
  - url: https://example.com/feed.xml
    action: teleport
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Expected error for unknown action, got nil")
	}
	if !strings.Contains(err.Error(), "unknown action") {
		t.Errorf("Expected unknown action error, got: %v", err)
	}
}

func TestLoad_UnknownHandlerRejected(t *testing.T) {
	path := writeConfigFile(t, `
feeds:
  - url: https://example.com/feed.xml
    handler: podcast
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Expected error for unknown handler, got nil")
	}
}

func TestLoad_MissingURLRejected(t *testing.T) {
	path := writeConfigFile(t, `
feeds:
  - name: No URL
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Expected error for feed without URL, got nil")
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing config file, got nil")
	}
}

func TestLoad_InvalidLogLevelRejected(t *testing.T) {
	path := writeConfigFile(t, `
log_level: verbose
feeds:
  - url: https://example.com/feed.xml
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Expected error for invalid log level, got nil")
	}
}

func TestFeedConfig_IsEnabled(t *testing.T) {
	enabled := true
	disabled := false

	cases := []struct {
		name     string
		feed     FeedConfig
		expected bool
	}{
		{"default", FeedConfig{}, true},
		{"explicit true", FeedConfig{Enabled: &enabled}, true},
		{"explicit false", FeedConfig{Enabled: &disabled}, false},
	}

	for _, tc := range cases {
		if got := tc.feed.IsEnabled(); got != tc.expected {
			t.Errorf("%s: expected IsEnabled %v, got %v", tc.name, tc.expected, got)
		}
	}
}

func TestFeedConfig_ResolveAction(t *testing.T) {
	cases := []struct {
		name           string
		feed           FeedConfig
		classification string
		expected       string
	}{
		{"explicit action wins", FeedConfig{Action: ActionAutomation}, HandlerVideo, ActionAutomation},
		{"auto with video classification", FeedConfig{Action: ActionAuto}, HandlerVideo, ActionVideoDownload},
		{"auto with webpage classification", FeedConfig{Action: ActionAuto}, HandlerWebpage, ActionArchive},
		{"auto falls back to handler", FeedConfig{Action: ActionAuto, Handler: HandlerVideo}, "", ActionVideoDownload},
		{"none stays none", FeedConfig{Action: ActionNone}, HandlerVideo, ActionNone},
	}

	for _, tc := range cases {
		if got := tc.feed.ResolveAction(tc.classification); got != tc.expected {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.expected, got)
		}
	}
}

func TestConfig_EnabledFeeds_PreservesOrder(t *testing.T) {
	disabled := false
	config := &Config{
		Feeds: []FeedConfig{
			{Name: "first", URL: "https://a.example/feed"},
			{Name: "second", URL: "https://b.example/feed", Enabled: &disabled},
			{Name: "third", URL: "https://c.example/feed"},
		},
	}

	feeds := config.EnabledFeeds()
	if len(feeds) != 2 {
		t.Fatalf("Expected 2 enabled feeds, got %d", len(feeds))
	}
	if feeds[0].Name != "first" || feeds[1].Name != "third" {
		t.Errorf("Expected config order preserved, got %s, %s", feeds[0].Name, feeds[1].Name)
	}
}

func TestExample_RoundTrips(t *testing.T) {
	example, err := Example()
	if err != nil {
		t.Fatalf("Example failed: %v", err)
	}

	path := writeConfigFile(t, example)
	config, err := Load(path)
	if err != nil {
		t.Fatalf("Example config should load cleanly: %v", err)
	}
	if len(config.Feeds) == 0 {
		t.Error("Example config should include at least one feed")
	}
}

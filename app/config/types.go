package config

// Handler categories and action names form small closed sets; anything else
// is rejected at load time.
const (
	HandlerWebpage = "webpage"
	HandlerVideo   = "video"

	ActionAuto          = "auto"
	ActionArchive       = "archive"
	ActionAutomation    = "automation"
	ActionVideoDownload = "video_download"
	ActionNone          = "none"
)

// Config is the full application configuration.
type Config struct {
	Feeds          []FeedConfig         `yaml:"feeds"`
	PollInterval   int                  `yaml:"poll_interval"` // seconds
	MaxEntries     int                  `yaml:"max_entries"`   // per feed, per pass
	Classification ClassificationConfig `yaml:"classification"`
	Actions        ActionConfig         `yaml:"actions"`
	RetryAttempts  int                  `yaml:"retry_attempts"`
	RetryDelay     int                  `yaml:"retry_delay"` // seconds
	LogLevel       string               `yaml:"log_level"`

	// Legacy alias for max_entries
	MaxEntriesPerFeed int `yaml:"max_entries_per_feed,omitempty"`
}

// FeedConfig describes a single feed source. Immutable per run.
type FeedConfig struct {
	Name         string                 `yaml:"name"`
	URL          string                 `yaml:"url"`
	Handler      string                 `yaml:"handler"` // webpage|video
	Action       string                 `yaml:"action"`  // auto|archive|automation|video_download|none
	Enabled      *bool                  `yaml:"enabled"` // default true
	CustomParams map[string]interface{} `yaml:"custom_params,omitempty"`

	// Legacy keys mapped onto Handler during normalization
	Category string `yaml:"category,omitempty"`
	Type     string `yaml:"type,omitempty"`
	Kind     string `yaml:"kind,omitempty"`
}

// ClassificationConfig drives the webpage/video classifier.
type ClassificationConfig struct {
	VideoDomains  []string `yaml:"video_domains"`
	VideoKeywords []string `yaml:"video_keywords"`
}

// ActionConfig holds settings for the action set.
type ActionConfig struct {
	// Archive action: preferred archiver binary, module fallback, legacy CLI
	ArchiverBin        string `yaml:"archiver_bin"`
	ArchiverModuleExec string `yaml:"archiver_module_exec"`
	ArchivePrefer      string `yaml:"archive_prefer"` // bin|module|legacy
	ArchiveDir         string `yaml:"archive_dir"`
	ArchiveCommand     string `yaml:"archive_command"`
	ArchiveOutputDir   string `yaml:"archive_output_dir"`
	ArchiveCookiesFile string `yaml:"archive_cookies_file"`
	ArchiveTimeout     int    `yaml:"archive_timeout"` // seconds

	// Automation action
	AutomationScript       string   `yaml:"automation_script"`
	AutomationArgsTemplate []string `yaml:"automation_args_template"`
	AutomationTimeout      int      `yaml:"automation_timeout"` // seconds

	// Video downloader action
	VideoDownloaderInterpreter   string   `yaml:"video_downloader_interpreter"`
	VideoDownloaderScript        string   `yaml:"video_downloader_script"`
	VideoDownloaderArgsTemplate  []string `yaml:"video_downloader_args_template"`
	VideoDownloaderTimeout       int      `yaml:"video_downloader_timeout"` // seconds

	// Cookie resolution
	CookieCacheDir    string `yaml:"cookie_cache_dir"`
	CookieTempDir     string `yaml:"cookie_temp_dir"`
	CookieRemoteFetch bool   `yaml:"cookie_remote_fetch"`
}

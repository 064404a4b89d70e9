package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	ConfigPath string `short:"c" long:"config" env:"RSS_INBOX_CONFIG" default:"config.yaml" description:"Path to the application configuration file"`
	DataDir    string `long:"data-dir" env:"RSS_INBOX_DATA_DIR" default:"./data" description:"Directory holding state, audit log and cookie files"`
	Port       string `long:"port" env:"PORT" description:"Status API port (disabled when empty)"`
	UserAgent  string `long:"user-agent" env:"USER_AGENT" default:"RSS Inbox/1.0" description:"User agent string for HTTP requests"`
	LogLevel   string `long:"log-level" env:"RSS_INBOX_LOG_LEVEL" description:"Override the configured log level (DEBUG, INFO, WARNING, ERROR)"`
	Debug      bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load parses command-line flags and environment variables. It returns
// (nil, nil) when help was requested.
func Load() (*Cfg, error) {
	var raw rawCfg
	cfg := &Cfg{}

	parser := flags.NewParser(&raw, flags.Default)

	commands := []struct {
		name  string
		short string
		data  interface{}
	}{
		{"run", "Run the feed processing loop", &cfg.Run},
		{"read", "Read a key from the state file", &cfg.Read},
		{"write", "Write a key-value pair to the state file", &cfg.Write},
		{"info", "Show version and state information", &struct{}{}},
		{"config", "Show or generate configuration", &cfg.Config},
	}
	for _, cmd := range commands {
		if _, err := parser.AddCommand(cmd.name, cmd.short, cmd.short, cmd.data); err != nil {
			return nil, fmt.Errorf("failed to register %s command: %w", cmd.name, err)
		}
	}

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if parser.Active == nil {
		return nil, fmt.Errorf("no command specified")
	}

	cfg.ConfigPath = raw.ConfigPath
	cfg.DataDir = raw.DataDir
	cfg.Port = raw.Port
	cfg.UserAgent = raw.UserAgent
	cfg.LogLevel = raw.LogLevel
	cfg.Debug = raw.Debug
	cfg.Version = GetVersion()
	cfg.Command = parser.Active.Name

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Example renders an example configuration file.
func Example() (string, error) {
	enabled := true
	example := Config{
		Feeds: []FeedConfig{
			{
				Name:    "Tech articles",
				URL:     "https://example.com/feed.xml",
				Handler: HandlerWebpage,
				Action:  ActionArchive,
				Enabled: &enabled,
			},
			{
				Name:    "Video channel",
				URL:     "https://www.youtube.com/feeds/videos.xml?channel_id=UCBJycsmduvYEL83R_U4JriQ",
				Handler: HandlerVideo,
				Action:  ActionVideoDownload,
				Enabled: &enabled,
			},
		},
		PollInterval: 3600,
		MaxEntries:   50,
		LogLevel:     "INFO",
	}

	setDefaults(&example)

	data, err := yaml.Marshal(&example)
	if err != nil {
		return "", fmt.Errorf("failed to render example config: %w", err)
	}
	return string(data), nil
}

// Render marshals a loaded configuration back to YAML.
func Render(config *Config) (string, error) {
	data, err := yaml.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}
	return string(data), nil
}

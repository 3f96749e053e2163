package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:    ":memory:",
			Timeout: 1 * time.Second,
		},
		Feed: FeedConfig{
			HTTPTimeout:     5 * time.Second,
			RefreshInterval: 1 * time.Minute,
			PollInterval:    10 * time.Second,
			UserAgent:       "inreader-test/1.0",
		},
		List: ListConfig{
			PageSize: 5,
			Dwell:    50 * time.Millisecond,
		},
		Gesture: defaultConfig().Gesture,
		AI:      defaultConfig().AI,
		Log:     LogConfig{Level: "off"},
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Feed     FeedConfig     `mapstructure:"feed"`
	List     ListConfig     `mapstructure:"list"`
	Gesture  GestureConfig  `mapstructure:"gesture"`
	AI       AIConfig       `mapstructure:"ai"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

type FeedConfig struct {
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	UserAgent       string        `mapstructure:"user_agent"`
}

// ListConfig tunes the entry list: the fixed page size and the dwell
// duration before a focused entry is auto-marked read.
type ListConfig struct {
	PageSize int           `mapstructure:"page_size"`
	Dwell    time.Duration `mapstructure:"dwell"`
}

// GestureConfig holds the swipe classification thresholds in pixels and the
// long-press delay.
type GestureConfig struct {
	Deadzone         float64       `mapstructure:"deadzone"`
	RevealThreshold  float64       `mapstructure:"reveal_threshold"`
	ArchiveThreshold float64       `mapstructure:"archive_threshold"`
	LongPressDelay   time.Duration `mapstructure:"long_press_delay"`
}

type AIConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	ChatModel string `mapstructure:"chat_model"`
	TTSModel  string `mapstructure:"tts_model"`
	TTSVoice  string `mapstructure:"tts_voice"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Database: DatabaseConfig{
			Path:        filepath.Join(homeDir, ".inreader.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(homeDir, ".inreader", "index.bleve"),
		},
		Feed: FeedConfig{
			HTTPTimeout:     30 * time.Second,
			RefreshInterval: 5 * time.Minute,
			PollInterval:    2 * time.Minute,
			UserAgent:       "inreader/1.0 (feed reader)",
		},
		List: ListConfig{
			PageSize: 20,
			Dwell:    2 * time.Second,
		},
		Gesture: GestureConfig{
			Deadzone:         10,
			RevealThreshold:  72,
			ArchiveThreshold: 180,
			LongPressDelay:   500 * time.Millisecond,
		},
		AI: AIConfig{
			ChatModel: "gpt-4o-mini",
			TTSModel:  "tts-1",
			TTSVoice:  "alloy",
		},
		Log: LogConfig{
			Level: "off",
		},
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("database", cfg.Database)
	v.SetDefault("feed", cfg.Feed)
	v.SetDefault("list", cfg.List)
	v.SetDefault("gesture", cfg.Gesture)
	v.SetDefault("ai", cfg.AI)
	v.SetDefault("log", cfg.Log)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "inreader")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("INREADER")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	return &config, nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.Path = expandPath(cfg.Log.Path)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations as strings for TOML readability.
	v.Set("database", map[string]interface{}{
		"path":         config.Database.Path,
		"timeout":      config.Database.Timeout.String(),
		"search_index": config.Database.SearchIndex,
	})
	v.Set("feed", map[string]interface{}{
		"http_timeout":     config.Feed.HTTPTimeout.String(),
		"refresh_interval": config.Feed.RefreshInterval.String(),
		"poll_interval":    config.Feed.PollInterval.String(),
		"user_agent":       config.Feed.UserAgent,
	})
	v.Set("list", map[string]interface{}{
		"page_size": config.List.PageSize,
		"dwell":     config.List.Dwell.String(),
	})
	v.Set("gesture", map[string]interface{}{
		"deadzone":          config.Gesture.Deadzone,
		"reveal_threshold":  config.Gesture.RevealThreshold,
		"archive_threshold": config.Gesture.ArchiveThreshold,
		"long_press_delay":  config.Gesture.LongPressDelay.String(),
	})
	v.Set("ai", config.AI)
	v.Set("log", config.Log)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}

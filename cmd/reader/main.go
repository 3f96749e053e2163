package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/JamesDavid/InReader-sub001/internal/ai"
	"github.com/JamesDavid/InReader-sub001/internal/config"
	"github.com/JamesDavid/InReader-sub001/internal/debuglog"
	"github.com/JamesDavid/InReader-sub001/internal/event"
	"github.com/JamesDavid/InReader-sub001/internal/feed"
	"github.com/JamesDavid/InReader-sub001/internal/search"
	"github.com/JamesDavid/InReader-sub001/internal/storage"
	"github.com/JamesDavid/InReader-sub001/internal/tui"
	"github.com/JamesDavid/InReader-sub001/internal/view"
)

// Version is set at build time.
var Version = "dev"

var (
	configPath string
	dbPath     string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "reader",
		Short: "Terminal feed reader with AI summaries and full-text search",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI()
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file")
	root.PersistentFlags().StringVar(&dbPath, "db", "", "path to database file (overrides config)")

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch all feeds once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh(cmd.Context())
		},
	}

	addCmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Subscribe to a feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(args[0])
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			path := filepath.Join(home, ".config", "inreader", "config.toml")
			if err := config.GenerateDefaultConfig(path); err != nil {
				return fmt.Errorf("generating config: %w", err)
			}
			fmt.Printf("Wrote default configuration to %s\n", path)
			return nil
		},
	})

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reader %s\n", Version)
		},
	}

	root.AddCommand(refreshCmd, addCmd, configCmd, versionCmd)
	return root
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	return cfg, nil
}

func runTUI() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.Path); err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer debuglog.Close()

	bus := event.NewBus()

	store, err := storage.NewStore(cfg.Database.Path, bus)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	manager := feed.NewManager(store, bus, cfg)

	poller := feed.NewPoller(store, bus, cfg.Feed.PollInterval)
	if err := poller.TrackAll(); err != nil {
		debuglog.Warnf("tracking feeds for unread counts: %v", err)
	}
	defer poller.Stop()

	// Search is best-effort: a corrupt or locked index disables it for the
	// session instead of blocking startup.
	var engine *search.Engine
	if engine, err = search.NewEngine(store, bus, cfg.Database.SearchIndex); err != nil {
		debuglog.Errorf("opening search index: %v", err)
		engine = nil
	} else {
		defer engine.Close()
	}

	var processor *ai.Processor
	var speech *ai.Speech
	if cfg.AI.APIKey != "" {
		client := ai.NewOpenAIClient(cfg.AI)
		processor = ai.NewProcessor(store, bus, client)
		speech = ai.NewSpeech(cfg.AI)
	}

	controller := view.NewController(store, manager, bus, view.Options{
		PageSize: cfg.List.PageSize,
		Dwell:    cfg.List.Dwell,
	})
	defer controller.Close()

	app := tui.NewApp(tui.Deps{
		Config:     cfg,
		Store:      store,
		Bus:        bus,
		Controller: controller,
		Manager:    manager,
		Poller:     poller,
		Search:     engine,
		Processor:  processor,
		Speech:     speech,
	})
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	app.AttachProgram(p)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

func runRefresh(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	bus := event.NewBus()
	store, err := storage.NewStore(cfg.Database.Path, bus)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	manager := feed.NewManager(store, bus, cfg)
	manager.SetForceRefresh(true)
	if err := manager.RefreshAllFeeds(ctx); err != nil {
		return fmt.Errorf("refreshing feeds: %w", err)
	}
	fmt.Println("Feeds refreshed.")
	return nil
}

func runAdd(url string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	bus := event.NewBus()
	store, err := storage.NewStore(cfg.Database.Path, bus)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	manager := feed.NewManager(store, bus, cfg)
	added, err := manager.AddFeed(url)
	if err != nil {
		return fmt.Errorf("adding feed: %w", err)
	}
	fmt.Printf("Subscribed to %s\n", added.Title)
	return nil
}

// Package tui is the terminal client: bubbletea screens over the view
// controller, with glamour-rendered entry content.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/JamesDavid/InReader-sub001/internal/ai"
	"github.com/JamesDavid/InReader-sub001/internal/config"
	"github.com/JamesDavid/InReader-sub001/internal/event"
	"github.com/JamesDavid/InReader-sub001/internal/feed"
	"github.com/JamesDavid/InReader-sub001/internal/gesture"
	"github.com/JamesDavid/InReader-sub001/internal/media"
	"github.com/JamesDavid/InReader-sub001/internal/search"
	"github.com/JamesDavid/InReader-sub001/internal/storage"
	"github.com/JamesDavid/InReader-sub001/internal/view"
)

// Deps bundles the wired services the app drives. Search, Processor and
// Speech are optional; their keybindings report unavailability when nil.
type Deps struct {
	Config     *config.Config
	Store      *storage.Store
	Bus        *event.Bus
	Controller *view.Controller
	Manager    *feed.Manager
	Poller     *feed.Poller
	Search     *search.Engine
	Processor  *ai.Processor
	Speech     *ai.Speech
}

type App struct {
	config     *config.Config
	store      *storage.Store
	bus        *event.Bus
	controller *view.Controller
	gestures   *gesture.Interpreter
	manager    *feed.Manager
	poller     *feed.Poller
	engine     *search.Engine
	processor  *ai.Processor
	speech     *ai.Speech
	launcher   *media.Launcher

	keyHandler      *KeyHandler
	feedList        list.Model
	entryList       list.Model
	savedSearchList list.Model
	viewport        viewport.Model
	textInput       textinput.Model
	searchInput     textinput.Model

	screen         Screen
	previousScreen Screen
	feeds          []*storage.Feed
	currentEntry   *storage.Entry
	focusedEntryID string

	width  int
	height int

	status     string
	statusKind StatusKind
	err        error

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
	loadingEntry    bool

	subs []*event.Subscription
}

func NewApp(deps Deps) *App {
	feedList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	feedList.Title = "› feeds"
	feedList.SetShowStatusBar(false)
	feedList.SetFilteringEnabled(true)

	entryList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	entryList.Title = "› entries"
	entryList.SetShowStatusBar(false)
	entryList.SetFilteringEnabled(false)

	savedSearchList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	savedSearchList.Title = "› saved searches"
	savedSearchList.SetShowStatusBar(false)
	savedSearchList.SetFilteringEnabled(false)

	ti := textinput.New()
	ti.Placeholder = "Enter feed URL..."

	si := textinput.New()
	si.Placeholder = "Search entries..."

	gestures := gesture.NewInterpreter(gesture.Config{
		Deadzone:         deps.Config.Gesture.Deadzone,
		RevealThreshold:  deps.Config.Gesture.RevealThreshold,
		ArchiveThreshold: deps.Config.Gesture.ArchiveThreshold,
		LongPressDelay:   deps.Config.Gesture.LongPressDelay,
	}, deps.Bus)

	app := &App{
		config:          deps.Config,
		store:           deps.Store,
		bus:             deps.Bus,
		controller:      deps.Controller,
		gestures:        gestures,
		manager:         deps.Manager,
		poller:          deps.Poller,
		engine:          deps.Search,
		processor:       deps.Processor,
		speech:          deps.Speech,
		launcher:        media.NewLauncher(),
		feedList:        feedList,
		entryList:       entryList,
		savedSearchList: savedSearchList,
		viewport:        viewport.New(0, 0),
		textInput:       ti,
		searchInput:     si,
		screen:          ScreenFeeds,
	}
	app.keyHandler = NewKeyHandler(app)
	return app
}

// AttachProgram bridges bus events into the running program's message loop.
// Must be called before Program.Run.
func (a *App) AttachProgram(p *tea.Program) {
	notify := func(event.Event) { p.Send(entriesChangedMsg{}) }

	// Long-press runs on the interpreter's timer goroutine; route the
	// resulting expand through the program loop.
	a.gestures.SetLongPressFunc(func(entryID string) {
		a.controller.ToggleExpand(entryID)
		p.Send(entriesChangedMsg{})
	})

	a.subs = append(a.subs,
		a.bus.Subscribe(event.KindShowToast, func(e event.Event) {
			evt := e.(event.ShowToast)
			kind := StatusSuccess
			if evt.Type == event.ToastError {
				kind = StatusError
			}
			p.Send(toastMsg{message: evt.Message, kind: kind})
		}),
		a.bus.Subscribe(event.KindEntryReadChanged, notify),
		a.bus.Subscribe(event.KindEntryStarredChanged, notify),
		a.bus.Subscribe(event.KindEntryRefreshComplete, notify),
		a.bus.Subscribe(event.KindFeedRefreshed, notify),
	)
}

// Close cancels the app's bus subscriptions and any in-flight gesture.
func (a *App) Close() {
	a.gestures.Cancel()
	for _, sub := range a.subs {
		sub.Cancel()
	}
}

// handleMouse feeds pointer input through the gesture interpreter. A press
// anchors a gesture on the selected row; an archive-distance release
// publishes the dismiss event the controller consumes.
func (a *App) handleMouse(msg tea.MouseMsg) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		idx, id := a.controller.Selection()
		if id == "" {
			return
		}
		a.gestures.Begin(id, idx, float64(msg.X), float64(msg.Y))
	case tea.MouseActionMotion:
		a.gestures.Move(float64(msg.X), float64(msg.Y))
	case tea.MouseActionRelease:
		res := a.gestures.End(float64(msg.X), float64(msg.Y))
		if res.Action == gesture.ActionArchive {
			a.syncEntryList()
		}
	}
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wrap := (a.width * 9) / 10
	if wrap > 120 {
		wrap = 120
	}
	if wrap < 40 {
		wrap = 40
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wrap) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wrap
	}
	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.loadFeeds(),
		tea.EnterAltScreen,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.feedList.SetSize(msg.Width, msg.Height-2)
		a.entryList.SetSize(msg.Width, msg.Height-2)
		a.savedSearchList.SetSize(msg.Width, msg.Height-2)
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 2
		inputWidth := msg.Width - 4
		if inputWidth < 20 {
			inputWidth = msg.Width
		}
		a.textInput.Width = inputWidth
		a.searchInput.Width = inputWidth

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case tea.MouseMsg:
		if a.screen == ScreenEntries {
			a.handleMouse(msg)
		}

	case feedsLoadedMsg:
		a.feeds = msg.feeds
		items := make([]list.Item, len(msg.feeds))
		for i, f := range msg.feeds {
			items[i] = feedItem{feed: f, unread: a.unreadCount(f.ID)}
		}
		a.feedList.SetItems(items)

	case entriesChangedMsg:
		a.syncEntryList()

	case entryRenderedMsg:
		if a.screen == ScreenReader && a.currentEntry != nil && a.currentEntry.ID == msg.entryID {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.loadingEntry = false
		}

	case feedAddedMsg:
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("Add failed: %v", msg.err), StatusError)
		} else {
			a.setStatus(fmt.Sprintf("Added %s", msg.feed.Title), StatusSuccess)
			a.screen = ScreenFeeds
			if a.poller != nil {
				a.poller.Track(msg.feed.ID)
			}
			return a, a.loadFeeds()
		}

	case refreshDoneMsg:
		if msg.err != nil {
			a.setStatus("Refresh finished with errors", StatusError)
		} else {
			a.setStatus("Refreshed", StatusSuccess)
		}
		a.syncEntryList()
		return a, a.loadFeeds()

	case searchScopeMsg:
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("Search failed: %v", msg.err), StatusError)
		} else {
			a.controller.SetScope(msg.scope)
			a.screen = ScreenEntries
			a.entryList.Title = fmt.Sprintf("› search: %s", msg.query)
			a.syncEntryList()
		}

	case savedSearchesLoadedMsg:
		items := make([]list.Item, len(msg.searches))
		for i, s := range msg.searches {
			items[i] = savedSearchItem{search: s}
		}
		a.savedSearchList.SetItems(items)

	case searchSavedMsg:
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("Save failed: %v", msg.err), StatusError)
		} else {
			a.setStatus(fmt.Sprintf("Saved search %q", msg.search.Query), StatusSuccess)
			a.controller.SetScope(msg.scope)
			a.screen = ScreenEntries
			a.entryList.Title = fmt.Sprintf("› search: %s", msg.search.Query)
			a.syncEntryList()
		}

	case reprocessDoneMsg:
		if msg.err != nil {
			a.setStatus("Reprocess failed", StatusError)
		} else {
			a.setStatus("Entry reprocessed", StatusSuccess)
		}
		a.syncEntryList()

	case listenDoneMsg:
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("Listen failed: %v", msg.err), StatusError)
		} else {
			a.setStatus("Playing audio", StatusSuccess)
			a.syncEntryList()
		}

	case chatReplyMsg:
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("Chat failed: %v", msg.err), StatusError)
		} else if a.currentEntry != nil && a.currentEntry.ID == msg.entryID {
			// The reader holds the entry as it looked when opened; the chat
			// turns were persisted after that, so refetch before rendering.
			fresh, err := a.store.GetEntry(msg.entryID)
			if err != nil {
				a.setStatus(fmt.Sprintf("Chat failed: %v", err), StatusError)
				return a, nil
			}
			a.currentEntry = fresh
			return a, a.renderEntry(fresh)
		}

	case toastMsg:
		a.setStatus(msg.message, msg.kind)

	case errorMsg:
		a.err = msg.err
		a.setStatus(msg.err.Error(), StatusError)
	}

	switch a.screen {
	case ScreenFeeds:
		m, cmd := a.feedList.Update(msg)
		a.feedList = m
		cmds = append(cmds, cmd)
	case ScreenEntries:
		m, cmd := a.entryList.Update(msg)
		a.entryList = m
		cmds = append(cmds, cmd)
	case ScreenReader:
		switch msg.(type) {
		case tea.KeyMsg, tea.WindowSizeMsg, tea.MouseMsg:
			vp, cmd := a.viewport.Update(msg)
			a.viewport = vp
			cmds = append(cmds, cmd)
		}
	case ScreenAddFeed:
		ti, cmd := a.textInput.Update(msg)
		a.textInput = ti
		cmds = append(cmds, cmd)
	case ScreenSearch:
		si, cmd := a.searchInput.Update(msg)
		a.searchInput = si
		cmds = append(cmds, cmd)
	case ScreenSavedSearches:
		m, cmd := a.savedSearchList.Update(msg)
		a.savedSearchList = m
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

// syncEntryList mirrors the controller's visible array into the list model,
// keeping the cursor on the controller's selection.
func (a *App) syncEntryList() {
	visible := a.controller.Visible()
	items := make([]list.Item, len(visible))
	for i, e := range visible {
		items[i] = entryItem{entry: e}
	}
	a.entryList.SetItems(items)

	idx, _ := a.controller.Selection()
	if idx < len(items) {
		a.entryList.Select(idx)
	}
}

func (a *App) unreadCount(feedID string) int {
	if a.poller == nil {
		return 0
	}
	return a.poller.Count(feedID)
}

func (a *App) setStatus(msg string, kind StatusKind) {
	a.status = msg
	a.statusKind = kind
}

func (a *App) View() string {
	var content string

	switch a.screen {
	case ScreenFeeds:
		if len(a.feeds) == 0 {
			content = lipgloss.NewStyle().
				Width(a.width).
				Height(a.height-2).
				Align(lipgloss.Center, lipgloss.Center).
				Render("No feeds yet. Press 'a' to add one.")
		} else {
			content = a.feedList.View()
		}
	case ScreenEntries:
		content = a.entryList.View()
	case ScreenReader:
		if a.loadingEntry {
			content = lipgloss.NewStyle().
				Width(a.width).
				Height(a.height-2).
				Align(lipgloss.Center, lipgloss.Center).
				Render("Loading entry...")
		} else if a.textInput.Focused() {
			content = lipgloss.JoinVertical(lipgloss.Left,
				a.viewport.View(),
				"chat: "+a.textInput.View(),
			)
		} else {
			content = a.viewport.View()
		}
	case ScreenAddFeed:
		content = lipgloss.NewStyle().
			Width(a.width).
			Height(a.height-2).
			Align(lipgloss.Center, lipgloss.Center).
			Render(lipgloss.JoinVertical(lipgloss.Center,
				"Add feed",
				"",
				a.textInput.View(),
				"",
				"enter to add · esc to cancel",
			))
	case ScreenSearch:
		content = lipgloss.NewStyle().
			Width(a.width).
			Height(a.height-2).
			Align(lipgloss.Center, lipgloss.Center).
			Render(lipgloss.JoinVertical(lipgloss.Center,
				"Search",
				"",
				a.searchInput.View(),
				"",
				"enter to search · ctrl+s to save · esc to cancel",
			))
	case ScreenSavedSearches:
		if len(a.savedSearchList.Items()) == 0 {
			content = lipgloss.NewStyle().
				Width(a.width).
				Height(a.height-2).
				Align(lipgloss.Center, lipgloss.Center).
				Render("No saved searches. Save one with ctrl+s on the search screen.")
		} else {
			content = a.savedSearchList.View()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, a.statusBar())
}

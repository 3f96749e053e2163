package ai

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JamesDavid/InReader-sub001/internal/event"
	"github.com/JamesDavid/InReader-sub001/internal/storage"
)

type fakeClient struct {
	summary *Summary
	reply   string
	err     error

	chatHistories [][]storage.ChatMessage
}

func (f *fakeClient) Summarize(_ context.Context, _, _ string) (*Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

func (f *fakeClient) Chat(_ context.Context, _ string, history []storage.ChatMessage) (string, error) {
	f.chatHistories = append(f.chatHistories, history)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func setupProcessor(t *testing.T, client Client) (*Processor, *storage.Store, *event.Bus) {
	t.Helper()
	bus := event.NewBus()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"), bus)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.SaveEntries([]*storage.Entry{{
		ID:          "e1",
		FeedID:      "f1",
		Title:       "A Long Read",
		RSSAbstract: "the abstract",
		FullArticle: "the full article body",
	}}))

	return NewProcessor(store, bus, client), store, bus
}

func TestProcessor_ReprocessEntry(t *testing.T) {
	client := &fakeClient{summary: &Summary{Summary: "tight summary", InterestScore: 0.8}}
	p, store, bus := setupProcessor(t, client)

	var kinds []event.Kind
	var completed *storage.Entry
	bus.Subscribe(event.KindEntryRefreshStart, func(event.Event) {
		kinds = append(kinds, event.KindEntryRefreshStart)
	})
	bus.Subscribe(event.KindEntryRefreshComplete, func(e event.Event) {
		kinds = append(kinds, event.KindEntryRefreshComplete)
		completed = e.(event.EntryRefreshComplete).Entry.(*storage.Entry)
	})

	require.NoError(t, p.ReprocessEntry(context.Background(), "e1"))

	entry, err := store.GetEntry("e1")
	require.NoError(t, err)
	assert.Equal(t, "tight summary", entry.AISummary)
	assert.Equal(t, 0.8, entry.InterestScore)
	assert.Equal(t, storage.ProcessingDone, entry.ProcessingStatus)

	assert.Equal(t, []event.Kind{event.KindEntryRefreshStart, event.KindEntryRefreshComplete}, kinds)
	require.NotNil(t, completed)
	assert.Equal(t, "tight summary", completed.AISummary)
}

func TestProcessor_ReprocessFailureSetsFailedStatus(t *testing.T) {
	client := &fakeClient{err: fmt.Errorf("model unavailable")}
	p, store, bus := setupProcessor(t, client)

	var completed bool
	bus.Subscribe(event.KindEntryRefreshComplete, func(event.Event) { completed = true })

	err := p.ReprocessEntry(context.Background(), "e1")
	require.Error(t, err)

	entry, gerr := store.GetEntry("e1")
	require.NoError(t, gerr)
	assert.Equal(t, storage.ProcessingFailed, entry.ProcessingStatus,
		"never left pending after a failure")
	assert.True(t, completed, "completion is announced even on failure")
}

func TestProcessor_ReprocessUnknownEntry(t *testing.T) {
	p, _, _ := setupProcessor(t, &fakeClient{})
	assert.Error(t, p.ReprocessEntry(context.Background(), "missing"))
}

func TestProcessor_ChatWithEntry(t *testing.T) {
	client := &fakeClient{reply: "it says the sky is blue"}
	p, store, _ := setupProcessor(t, client)

	reply, err := p.ChatWithEntry(context.Background(), "e1", "what does it say?")
	require.NoError(t, err)
	assert.Equal(t, "it says the sky is blue", reply)

	entry, err := store.GetEntry("e1")
	require.NoError(t, err)
	require.Len(t, entry.ChatHistory, 2)
	assert.Equal(t, storage.RoleUser, entry.ChatHistory[0].Role)
	assert.Equal(t, "what does it say?", entry.ChatHistory[0].Content)
	assert.Equal(t, storage.RoleAssistant, entry.ChatHistory[1].Role)

	// The model saw the history including the just-appended user turn.
	require.Len(t, client.chatHistories, 1)
	require.Len(t, client.chatHistories[0], 1)
	assert.Equal(t, "what does it say?", client.chatHistories[0][0].Content)
}

func TestProcessor_ChatFailureLeavesUserTurn(t *testing.T) {
	client := &fakeClient{err: fmt.Errorf("model unavailable")}
	p, store, _ := setupProcessor(t, client)

	_, err := p.ChatWithEntry(context.Background(), "e1", "hello?")
	require.Error(t, err)

	entry, gerr := store.GetEntry("e1")
	require.NoError(t, gerr)
	require.Len(t, entry.ChatHistory, 1, "the user's turn is kept for retry")
	assert.Equal(t, storage.RoleUser, entry.ChatHistory[0].Role)
}

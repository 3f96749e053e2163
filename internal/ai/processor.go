package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/JamesDavid/InReader-sub001/internal/debuglog"
	"github.com/JamesDavid/InReader-sub001/internal/event"
	"github.com/JamesDavid/InReader-sub001/internal/storage"
)

// Processor runs the reprocess lifecycle for an entry: announce the start,
// flip the processing status, call the model, persist the enrichment and
// announce completion. Views track the pending state off the same events.
type Processor struct {
	store  *storage.Store
	bus    *event.Bus
	client Client
}

func NewProcessor(store *storage.Store, bus *event.Bus, client Client) *Processor {
	return &Processor{store: store, bus: bus, client: client}
}

// ReprocessEntry regenerates the AI summary and interest score for one
// entry. Failures land the entry in the failed status instead of leaving it
// pending forever.
func (p *Processor) ReprocessEntry(ctx context.Context, entryID string) error {
	entry, err := p.store.GetEntry(entryID)
	if err != nil {
		return fmt.Errorf("loading entry: %w", err)
	}

	p.bus.Publish(event.EntryRefreshStart{EntryID: entryID})

	pending := storage.ProcessingPending
	if _, err := p.store.UpdateEntry(entryID, storage.EntryPatch{ProcessingStatus: &pending}); err != nil {
		return fmt.Errorf("marking entry pending: %w", err)
	}

	content := entry.FullArticle
	if content == "" {
		content = entry.RSSAbstract
	}

	summary, err := p.client.Summarize(ctx, entry.Title, content)
	if err != nil {
		debuglog.Errorf("summarizing entry %s: %v", entryID, err)
		failed := storage.ProcessingFailed
		updated, saveErr := p.store.UpdateEntry(entryID, storage.EntryPatch{ProcessingStatus: &failed})
		if saveErr == nil {
			p.bus.Publish(event.EntryRefreshComplete{Entry: updated})
		}
		return fmt.Errorf("summarizing entry: %w", err)
	}

	done := storage.ProcessingDone
	updated, err := p.store.UpdateEntry(entryID, storage.EntryPatch{
		AISummary:        &summary.Summary,
		InterestScore:    &summary.InterestScore,
		ProcessingStatus: &done,
	})
	if err != nil {
		return fmt.Errorf("saving enrichment: %w", err)
	}

	p.bus.Publish(event.EntryRefreshComplete{Entry: updated})
	return nil
}

// ChatWithEntry appends the user's message to the entry's chat history,
// asks the model, and persists the reply.
func (p *Processor) ChatWithEntry(ctx context.Context, entryID, message string) (string, error) {
	entry, err := p.store.GetEntry(entryID)
	if err != nil {
		return "", fmt.Errorf("loading entry: %w", err)
	}

	userMsg := storage.ChatMessage{
		Role:      storage.RoleUser,
		Content:   message,
		Timestamp: time.Now(),
	}
	entry, err = p.store.AppendChatMessage(entryID, userMsg)
	if err != nil {
		return "", fmt.Errorf("saving chat message: %w", err)
	}

	content := entry.FullArticle
	if content == "" {
		content = entry.RSSAbstract
	}

	reply, err := p.client.Chat(ctx, content, entry.ChatHistory)
	if err != nil {
		return "", fmt.Errorf("chatting about entry: %w", err)
	}

	_, err = p.store.AppendChatMessage(entryID, storage.ChatMessage{
		Role:      storage.RoleAssistant,
		Content:   reply,
		Timestamp: time.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("saving chat reply: %w", err)
	}

	return reply, nil
}

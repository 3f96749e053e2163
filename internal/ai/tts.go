package ai

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/JamesDavid/InReader-sub001/internal/config"
	"github.com/JamesDavid/InReader-sub001/internal/storage"
)

// Speech synthesizes entry audio for the listen workflow.
type Speech struct {
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.AudioSpeechNewParamsVoice
}

func NewSpeech(cfg config.AIConfig) *Speech {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	return &Speech{
		client: &client,
		model:  openai.SpeechModel(cfg.TTSModel),
		voice:  openai.AudioSpeechNewParamsVoice(cfg.TTSVoice),
	}
}

// SynthesizeEntry renders the entry's best available text to an mp3 in
// destDir and returns the file path. The summary is preferred: spoken
// full articles run long.
func (s *Speech) SynthesizeEntry(ctx context.Context, entry *storage.Entry, destDir string) (string, error) {
	text := entry.AISummary
	if text == "" {
		text = entry.RSSAbstract
	}
	if text == "" {
		text = entry.FullArticle
	}
	if text == "" {
		return "", fmt.Errorf("entry %s has no text to synthesize", entry.ID)
	}

	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: s.model,
		Input: entry.Title + ". " + text,
		Voice: s.voice,
	})
	if err != nil {
		return "", fmt.Errorf("synthesizing speech: %w", err)
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("creating audio directory: %w", err)
	}

	path := filepath.Join(destDir, entry.ID+".mp3")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating audio file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing audio file: %w", err)
	}

	return path, nil
}

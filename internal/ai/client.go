// Package ai enriches entries with model-generated summaries, interest
// scores and per-entry chat.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/JamesDavid/InReader-sub001/internal/config"
	"github.com/JamesDavid/InReader-sub001/internal/storage"
)

const summarizeSystemPrompt = `You are a reading assistant for a personal feed reader. Given one article, produce a concise summary and estimate how interesting the article is to a technical reader.

Rules:
1. The summary is 2-4 sentences, neutral tone, no hype
2. Keep concrete facts: names, numbers, dates
3. interest_score is 0.0-1.0 (1.0 = highly novel and substantive)

Output as JSON only, no other text:
{
  "summary": "the summary",
  "interest_score": 0.0
}`

const chatSystemPrompt = `You are a reading assistant discussing one specific article with the user. Answer strictly from the article content provided; say so when the article does not contain the answer. Keep answers short.`

// Summary is the model's enrichment for one entry.
type Summary struct {
	Summary       string
	InterestScore float64
}

// Client is the model interface the processor consumes.
type Client interface {
	Summarize(ctx context.Context, title, article string) (*Summary, error)
	Chat(ctx context.Context, article string, history []storage.ChatMessage) (string, error)
}

// OpenAIClient talks to an OpenAI-compatible chat completion endpoint.
type OpenAIClient struct {
	client *openai.Client
	model  openai.ChatModel
}

func NewOpenAIClient(cfg config.AIConfig) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIClient{
		client: &client,
		model:  openai.ChatModel(cfg.ChatModel),
	}
}

func (c *OpenAIClient) Summarize(ctx context.Context, title, article string) (*Summary, error) {
	userPrompt := fmt.Sprintf("Title: %s\n\nArticle:\n%s", title, article)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(summarizeSystemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from openai")
	}

	content := cleanJSONResponse(resp.Choices[0].Message.Content)

	var parsed struct {
		Summary       string  `json:"summary"`
		InterestScore float64 `json:"interest_score"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w, content: %s", err, content)
	}

	return &Summary{Summary: parsed.Summary, InterestScore: parsed.InterestScore}, nil
}

func (c *OpenAIClient) Chat(ctx context.Context, article string, history []storage.ChatMessage) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(chatSystemPrompt),
		openai.SystemMessage("Article:\n" + article),
	}
	for _, msg := range history {
		switch msg.Role {
		case storage.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	return resp.Choices[0].Message.Content, nil
}

// cleanJSONResponse strips the markdown fences some models wrap JSON in.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

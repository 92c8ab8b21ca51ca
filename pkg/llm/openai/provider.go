package openai

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/zekaiblog/mywebsite/pkg/llm"

	openai "github.com/sashabaranov/go-openai"
)

// Provider talks to any OpenAI-compatible chat completion endpoint
// (DashScope compatible mode, DeepSeek, OpenAI itself).
type Provider struct {
	client *openai.Client
	model  string
}

var _ llm.Provider = &Provider{}

func NewProvider(apiKey, baseURL, model string) *Provider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	// Hard cap on a single request; callers bound individual calls tighter
	// via context.
	cfg.HTTPClient = &http.Client{Timeout: 120 * time.Second}

	return &Provider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := &llm.Options{
		Temperature: 0.7,
	}
	for _, opt := range opts {
		opt(options)
	}

	model := p.model
	if options.Model != "" {
		model = options.Model
	}

	messages := make([]openai.ChatCompletionMessage, len(history))
	for i, msg := range history {
		messages[i] = toChatMessage(msg)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   options.MaxTokens,
		Temperature: float32(options.Temperature),
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// toChatMessage maps a generic message to the wire format. A turn with an
// image becomes a multi-part payload (image part then text part) so
// multimodal history reaches the model intact.
func toChatMessage(msg llm.Message) openai.ChatCompletionMessage {
	if msg.ImageURL == "" {
		return openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	return openai.ChatCompletionMessage{
		Role: msg.Role,
		MultiContent: []openai.ChatMessagePart{
			{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: msg.ImageURL},
			},
			{
				Type: openai.ChatMessagePartTypeText,
				Text: msg.Content,
			},
		},
	}
}

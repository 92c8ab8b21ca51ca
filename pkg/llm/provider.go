package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat turn in a provider-agnostic format. ImageURL,
// when set, must already be something the provider can fetch: a fully
// qualified URL or an inline data URL.
type Message struct {
	Role     string
	Content  string
	ImageURL string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// Provider defines the contract for any completion backend. Chat returns the
// raw reply text; an empty string with a nil error means the model produced
// no content.
type Provider interface {
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)
}

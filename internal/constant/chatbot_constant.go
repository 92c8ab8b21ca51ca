package constant

// SystemPrompt is the single fixed instruction prepended to every provider
// call. It establishes the assistant persona and the brevity constraint.
const SystemPrompt = `You are a friendly assistant on a personal website. The site owner has enabled you to chat with visitors.
Be helpful, concise, and warm. If someone asks for the site owner, say they can leave a message and the owner will get back to them.
Keep responses reasonably short (a few sentences) unless the user asks for more detail.`

// User-visible fallback replies. These are persisted and broadcast exactly
// like a normal bot message; the underlying failure reason only goes to logs.
const (
	FallbackEmptyReply    = "Sorry, I could not generate a reply."
	FallbackUnavailable   = "Sorry, the assistant is temporarily unavailable. Please try again later."
	FallbackNotConfigured = "Chatbot is not configured. Please set AI_API_KEY."
)

const (
	// MaxMessageLength is the cap applied to human message content after
	// trimming. Longer input is truncated, not rejected.
	MaxMessageLength = 2000

	// ContextFetchLimit is how many recent messages are loaded from the
	// store when building the bot context; ContextModelWindow is how many
	// of those actually reach the provider.
	ContextFetchLimit  = 20
	ContextModelWindow = 10

	DefaultHistoryLimit = 100
	DefaultSessionTitle = "New Chat"
)

package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zekaiblog/mywebsite/internal/config"
	"github.com/zekaiblog/mywebsite/internal/constant"
	"github.com/zekaiblog/mywebsite/internal/entity"
	"github.com/zekaiblog/mywebsite/pkg/llm"
)

// fakeProvider lets each test script the completion call.
type fakeProvider struct {
	mu    sync.Mutex
	calls [][]llm.Message
	chat  func(history []llm.Message) (string, error)
}

func (p *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, history)
	p.mu.Unlock()
	if p.chat != nil {
		return p.chat(history)
	}
	return "scripted reply", nil
}

func (p *fakeProvider) lastCall() []llm.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.calls) == 0 {
		return nil
	}
	return p.calls[len(p.calls)-1]
}

type botFixture struct {
	bot       IBotOrchestrator
	store     *fakeStore
	broadcast *fakeBroadcaster
	provider  *fakeProvider
	sessionID uint
}

func testAIConfig() config.AIConfig {
	return config.AIConfig{
		APIKey:         "test-key",
		Model:          "test-model",
		MaxTokens:      500,
		Temperature:    0.7,
		RequestTimeout: 5 * time.Second,
	}
}

func newBotFixture(t *testing.T, cfg config.AIConfig) *botFixture {
	t.Helper()

	store := newFakeStore()
	factory := &fakeFactory{store: store}
	broadcast := newFakeBroadcaster()
	provider := &fakeProvider{}

	session := &entity.ChatSession{UserId: 1, Title: "chat"}
	require.NoError(t, (&fakeSessionRepo{store: store}).Create(context.Background(), session))

	bot := NewBotOrchestrator(factory, provider, broadcast, NewRoomSync(), cfg, t.TempDir(), nopLogger{})
	return &botFixture{
		bot:       bot,
		store:     store,
		broadcast: broadcast,
		provider:  provider,
		sessionID: session.Id,
	}
}

func (f *botFixture) submitTrigger(t *testing.T, content string) *entity.Message {
	t.Helper()
	trigger := &entity.Message{SessionId: f.sessionID, Content: content}
	require.NoError(t, (&fakeMessageRepo{store: f.store}).Create(context.Background(), trigger))
	return trigger
}

func (f *botFixture) lastBotReply(t *testing.T) *entity.Message {
	t.Helper()
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for i := len(f.store.messages) - 1; i >= 0; i-- {
		if f.store.messages[i].IsFromBot {
			return f.store.messages[i]
		}
	}
	t.Fatal("no bot reply persisted")
	return nil
}

func TestBotReplyPersistedAndBroadcast(t *testing.T) {
	f := newBotFixture(t, testAIConfig())
	f.provider.chat = func([]llm.Message) (string, error) { return "hello back", nil }

	trigger := f.submitTrigger(t, "hello")
	f.bot.EnqueueReply(f.sessionID, trigger)
	require.True(t, f.broadcast.waitForFrames(1, 2*time.Second))

	reply := f.lastBotReply(t)
	assert.Equal(t, "hello back", reply.Content)
	assert.True(t, reply.IsFromBot)
	assert.Greater(t, reply.Id, trigger.Id)
}

func TestBotFallbacks(t *testing.T) {
	t.Run("provider error", func(t *testing.T) {
		f := newBotFixture(t, testAIConfig())
		f.provider.chat = func([]llm.Message) (string, error) { return "", errors.New("upstream 500") }

		f.bot.EnqueueReply(f.sessionID, f.submitTrigger(t, "hello"))
		require.True(t, f.broadcast.waitForFrames(1, 2*time.Second))
		assert.Equal(t, constant.FallbackUnavailable, f.lastBotReply(t).Content)
	})

	t.Run("empty completion", func(t *testing.T) {
		f := newBotFixture(t, testAIConfig())
		f.provider.chat = func([]llm.Message) (string, error) { return "", nil }

		f.bot.EnqueueReply(f.sessionID, f.submitTrigger(t, "hello"))
		require.True(t, f.broadcast.waitForFrames(1, 2*time.Second))
		assert.Equal(t, constant.FallbackEmptyReply, f.lastBotReply(t).Content)
	})

	t.Run("no api key", func(t *testing.T) {
		cfg := testAIConfig()
		cfg.APIKey = ""
		f := newBotFixture(t, cfg)

		f.bot.EnqueueReply(f.sessionID, f.submitTrigger(t, "hello"))
		require.True(t, f.broadcast.waitForFrames(1, 2*time.Second))

		assert.Equal(t, constant.FallbackNotConfigured, f.lastBotReply(t).Content)
		assert.Nil(t, f.provider.lastCall(), "provider must not be called without a key")
	})
}

func TestBotContextWindow(t *testing.T) {
	f := newBotFixture(t, testAIConfig())

	// Seed 15 prior turns; only the trailing window should reach the model.
	repo := &fakeMessageRepo{store: f.store}
	for i := 0; i < 15; i++ {
		fromBot := i%2 == 1
		m := &entity.Message{SessionId: f.sessionID, Content: "turn", IsFromBot: fromBot}
		require.NoError(t, repo.Create(context.Background(), m))
	}

	trigger := f.submitTrigger(t, "latest question")
	f.bot.EnqueueReply(f.sessionID, trigger)
	require.True(t, f.broadcast.waitForFrames(1, 2*time.Second))

	call := f.provider.lastCall()
	require.NotNil(t, call)

	// system + window + trigger
	require.Len(t, call, constant.ContextModelWindow+2)
	assert.Equal(t, llm.RoleSystem, call[0].Role)
	assert.Equal(t, constant.SystemPrompt, call[0].Content)

	last := call[len(call)-1]
	assert.Equal(t, llm.RoleUser, last.Role)
	assert.Equal(t, "latest question", last.Content)

	// History roles alternate the way the seeded turns did.
	for i, turn := range call[1 : len(call)-1] {
		seeded := 15 - constant.ContextModelWindow + i
		wantRole := llm.RoleUser
		if seeded%2 == 1 {
			wantRole = llm.RoleAssistant
		}
		assert.Equal(t, wantRole, turn.Role)
	}
}

func TestBotContextExcludesTrigger(t *testing.T) {
	f := newBotFixture(t, testAIConfig())

	trigger := f.submitTrigger(t, "only message")
	f.bot.EnqueueReply(f.sessionID, trigger)
	require.True(t, f.broadcast.waitForFrames(1, 2*time.Second))

	call := f.provider.lastCall()
	require.Len(t, call, 2, "system plus the trigger, no duplicated history")
	assert.Equal(t, "only message", call[1].Content)
}

func TestBotRepliesStayInTriggerOrder(t *testing.T) {
	f := newBotFixture(t, testAIConfig())

	// The first call is the slowest; ordering must still follow submission.
	var calls int
	var mu sync.Mutex
	f.provider.chat = func(history []llm.Message) (string, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			time.Sleep(100 * time.Millisecond)
		}
		return "reply to " + history[len(history)-1].Content, nil
	}

	first := f.submitTrigger(t, "first")
	second := f.submitTrigger(t, "second")
	third := f.submitTrigger(t, "third")
	f.bot.EnqueueReply(f.sessionID, first)
	f.bot.EnqueueReply(f.sessionID, second)
	f.bot.EnqueueReply(f.sessionID, third)

	require.True(t, f.broadcast.waitForFrames(3, 5*time.Second))

	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var replies []string
	for _, m := range f.store.messages {
		if m.IsFromBot {
			replies = append(replies, m.Content)
		}
	}
	assert.Equal(t, []string{"reply to first", "reply to second", "reply to third"}, replies)
}

func TestBotImageMaterialization(t *testing.T) {
	assetRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(assetRoot, "uploads"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(assetRoot, "uploads", "pic.jpg"), []byte("jpegdata"), 0o644))

	store := newFakeStore()
	broadcast := newFakeBroadcaster()
	provider := &fakeProvider{}
	session := &entity.ChatSession{UserId: 1, Title: "chat"}
	require.NoError(t, (&fakeSessionRepo{store: store}).Create(context.Background(), session))
	bot := NewBotOrchestrator(&fakeFactory{store: store}, provider, broadcast, NewRoomSync(), testAIConfig(), assetRoot, nopLogger{})

	t.Run("relative path inlined as data url", func(t *testing.T) {
		img := "/uploads/pic.jpg"
		trigger := &entity.Message{SessionId: session.Id, Content: "look", ImageUrl: &img}
		require.NoError(t, (&fakeMessageRepo{store: store}).Create(context.Background(), trigger))

		bot.EnqueueReply(session.Id, trigger)
		require.True(t, broadcast.waitForFrames(1, 2*time.Second))

		call := provider.lastCall()
		last := call[len(call)-1]
		assert.True(t, strings.HasPrefix(last.ImageURL, "data:image/jpeg;base64,"))
	})

	t.Run("missing file degrades to text only", func(t *testing.T) {
		img := "/uploads/does-not-exist.png"
		trigger := &entity.Message{SessionId: session.Id, Content: "look", ImageUrl: &img}
		require.NoError(t, (&fakeMessageRepo{store: store}).Create(context.Background(), trigger))

		bot.EnqueueReply(session.Id, trigger)
		require.True(t, broadcast.waitForFrames(2, 2*time.Second))

		call := provider.lastCall()
		last := call[len(call)-1]
		assert.Empty(t, last.ImageURL)
		assert.Equal(t, "look", last.Content)
	})

	t.Run("absolute url passes through", func(t *testing.T) {
		img := "https://example.com/pic.png"
		trigger := &entity.Message{SessionId: session.Id, Content: "look", ImageUrl: &img}
		require.NoError(t, (&fakeMessageRepo{store: store}).Create(context.Background(), trigger))

		bot.EnqueueReply(session.Id, trigger)
		require.True(t, broadcast.waitForFrames(3, 2*time.Second))

		call := provider.lastCall()
		last := call[len(call)-1]
		assert.Equal(t, img, last.ImageURL)
	})
}

func TestBotSkipsReplyWhenSessionDeleted(t *testing.T) {
	f := newBotFixture(t, testAIConfig())
	trigger := f.submitTrigger(t, "hello")

	// Delete the session while the reply is pending.
	require.NoError(t, (&fakeSessionRepo{store: f.store}).Delete(context.Background(), f.sessionID))

	f.bot.EnqueueReply(f.sessionID, trigger)
	assert.False(t, f.broadcast.waitForFrames(1, 300*time.Millisecond))

	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	assert.Empty(t, f.store.messages)
}

package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zekaiblog/mywebsite/internal/config"
	"github.com/zekaiblog/mywebsite/internal/constant"
	"github.com/zekaiblog/mywebsite/internal/entity"
	"github.com/zekaiblog/mywebsite/internal/pkg/logger"
	"github.com/zekaiblog/mywebsite/internal/repository/specification"
	"github.com/zekaiblog/mywebsite/internal/repository/unitofwork"
	"github.com/zekaiblog/mywebsite/internal/websocket"
	"github.com/zekaiblog/mywebsite/pkg/llm"
)

type IBotOrchestrator interface {
	// EnqueueReply schedules a bot reply to the given human message on the
	// session's serial queue. Replies for one room are produced strictly in
	// the order their triggers were submitted.
	EnqueueReply(sessionID uint, trigger *entity.Message)
}

type botOrchestrator struct {
	uowFactory  unitofwork.RepositoryFactory
	provider    llm.Provider
	broadcaster Broadcaster
	roomSync    *RoomSync
	cfg         config.AIConfig
	assetRoot   string
	logger      logger.ILogger
}

func NewBotOrchestrator(
	uowFactory unitofwork.RepositoryFactory,
	provider llm.Provider,
	broadcaster Broadcaster,
	roomSync *RoomSync,
	cfg config.AIConfig,
	assetRoot string,
	log logger.ILogger,
) IBotOrchestrator {
	return &botOrchestrator{
		uowFactory:  uowFactory,
		provider:    provider,
		broadcaster: broadcaster,
		roomSync:    roomSync,
		cfg:         cfg,
		assetRoot:   assetRoot,
		logger:      log,
	}
}

func (o *botOrchestrator) EnqueueReply(sessionID uint, trigger *entity.Message) {
	key := websocket.SessionRoom(sessionID)
	o.roomSync.Enqueue(key, func() {
		o.produceReply(key, sessionID, trigger)
	})
}

// produceReply is the whole reply lifecycle for one trigger: resolve the
// reply text (provider call or fallback), persist it, broadcast it. Provider
// failures end up in the transcript as a fixed fallback string; they never
// escape as errors.
func (o *botOrchestrator) produceReply(key websocket.RoomKey, sessionID uint, trigger *entity.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.RequestTimeout)
	defer cancel()

	var reply string
	text, err := o.callProvider(ctx, sessionID, trigger)
	switch {
	case err != nil:
		o.logger.Error("BotOrchestrator", "Provider call failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		reply = constant.FallbackUnavailable
	case text == "":
		reply = constant.FallbackEmptyReply
	default:
		reply = text
	}

	// Same ingest lock as human messages: the reply's persist+broadcast pair
	// slots into the room's total order.
	lock := o.roomSync.IngestLock(key)
	lock.Lock()
	defer lock.Unlock()

	message := &entity.Message{
		SessionId: sessionID,
		Content:   reply,
		IsFromBot: true,
	}
	uow := o.uowFactory.NewUnitOfWork(context.Background())
	if err := uow.MessageRepository().Create(context.Background(), message); err != nil {
		// Most likely the session was deleted while the call was in flight.
		o.logger.Warn("BotOrchestrator", "Could not persist bot reply", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return
	}
	o.broadcaster.Broadcast(key, websocket.NewEvent(websocket.EventChatMessage, toMessageResponse(message)))
}

// callProvider builds the bounded context window and performs the completion
// call. The returned error is the raw failure reason; mapping it to a
// user-visible string is the caller's job.
func (o *botOrchestrator) callProvider(ctx context.Context, sessionID uint, trigger *entity.Message) (string, error) {
	if o.cfg.APIKey == "" {
		return constant.FallbackNotConfigured, nil
	}

	history, err := o.fetchContext(ctx, sessionID, trigger.Id)
	if err != nil {
		o.logger.Warn("BotOrchestrator", "Context fetch failed, replying without history", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		history = nil
	}

	messages := o.buildMessages(history, trigger)
	return o.provider.Chat(ctx, messages,
		llm.WithTemperature(o.cfg.Temperature),
		llm.WithMaxTokens(o.cfg.MaxTokens),
	)
}

// fetchContext loads the most recent messages persisted before the trigger,
// returned oldest-first.
func (o *botOrchestrator) fetchContext(ctx context.Context, sessionID, beforeID uint) ([]*entity.Message, error) {
	uow := o.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionID},
		specification.BeforeID{ID: beforeID},
		specification.OrderBy{Field: "id", Desc: true},
		specification.Pagination{Limit: constant.ContextFetchLimit},
	)
	if err != nil {
		return nil, err
	}

	// Newest-first from the store; flip to reading order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// buildMessages maps store rows into provider turns: one system instruction,
// the trailing window of history, then the trigger as the final user turn.
func (o *botOrchestrator) buildMessages(history []*entity.Message, trigger *entity.Message) []llm.Message {
	if len(history) > constant.ContextModelWindow {
		history = history[len(history)-constant.ContextModelWindow:]
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: constant.SystemPrompt})

	for _, m := range history {
		role := llm.RoleUser
		if m.IsFromBot {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{
			Role:     role,
			Content:  m.Content,
			ImageURL: o.materializeImage(m.ImageUrl),
		})
	}

	messages = append(messages, llm.Message{
		Role:     llm.RoleUser,
		Content:  trigger.Content,
		ImageURL: o.materializeImage(trigger.ImageUrl),
	})
	return messages
}

// materializeImage turns a stored image reference into something the
// provider can consume. Absolute URLs pass through; relative paths are read
// from disk and inlined as a data URL. A missing file degrades the turn to
// text-only instead of failing the reply.
func (o *botOrchestrator) materializeImage(imageUrl *string) string {
	if imageUrl == nil || *imageUrl == "" {
		return ""
	}
	url := *imageUrl
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}

	path := filepath.Join(o.assetRoot, strings.TrimPrefix(url, "/"))
	data, err := os.ReadFile(path)
	if err != nil {
		o.logger.Warn("BotOrchestrator", "Image not readable, sending text only", map[string]interface{}{
			"image_url": url,
			"error":     err.Error(),
		})
		return ""
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "jpg" {
		ext = "jpeg"
	}
	return fmt.Sprintf("data:image/%s;base64,%s", ext, base64.StdEncoding.EncodeToString(data))
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/zekaiblog/mywebsite/internal/constant"
	"github.com/zekaiblog/mywebsite/internal/entity"
	"github.com/zekaiblog/mywebsite/internal/pkg/logger"
	"github.com/zekaiblog/mywebsite/internal/repository/unitofwork"
	"github.com/zekaiblog/mywebsite/internal/websocket"
)

// ErrEmptyMessage marks input that is blank after trimming and carries no
// image. The realtime layer drops these silently.
var ErrEmptyMessage = errors.New("empty message")

// Broadcaster is the slice of the hub the pipeline needs. *websocket.Hub
// satisfies it.
type Broadcaster interface {
	Broadcast(key websocket.RoomKey, payload []byte)
}

type IMessagePipeline interface {
	// SubmitHumanMessage validates, persists, and broadcasts one human
	// message, then schedules the bot reply. The broadcast is never visible
	// before the write is durable.
	SubmitHumanMessage(ctx context.Context, userID, sessionID uint, content, imageUrl string) error
}

type messagePipeline struct {
	uowFactory  unitofwork.RepositoryFactory
	registry    IChatService
	broadcaster Broadcaster
	roomSync    *RoomSync
	bot         IBotOrchestrator
	logger      logger.ILogger
}

func NewMessagePipeline(
	uowFactory unitofwork.RepositoryFactory,
	registry IChatService,
	broadcaster Broadcaster,
	roomSync *RoomSync,
	bot IBotOrchestrator,
	log logger.ILogger,
) IMessagePipeline {
	return &messagePipeline{
		uowFactory:  uowFactory,
		registry:    registry,
		broadcaster: broadcaster,
		roomSync:    roomSync,
		bot:         bot,
		logger:      log,
	}
}

func (p *messagePipeline) SubmitHumanMessage(ctx context.Context, userID, sessionID uint, content, imageUrl string) error {
	content = strings.TrimSpace(content)
	imageUrl = strings.TrimSpace(imageUrl)
	if content == "" && imageUrl == "" {
		return ErrEmptyMessage
	}
	content = truncate(content, constant.MaxMessageLength)

	if err := p.registry.VerifyOwnership(ctx, sessionID, userID); err != nil {
		return err
	}

	message := &entity.Message{
		SessionId: sessionID,
		Content:   content,
		IsFromBot: false,
	}
	if imageUrl != "" {
		message.ImageUrl = &imageUrl
	}

	// The ingest lock serializes persist+broadcast pairs within the room so
	// every member observes messages in persisted order.
	key := websocket.SessionRoom(sessionID)
	lock := p.roomSync.IngestLock(key)
	lock.Lock()

	uow := p.uowFactory.NewUnitOfWork(ctx)
	if err := uow.MessageRepository().Create(ctx, message); err != nil {
		lock.Unlock()
		return err
	}
	p.broadcaster.Broadcast(key, websocket.NewEvent(websocket.EventChatMessage, toMessageResponse(message)))

	// Enqueue while still holding the lock: reply order must match persisted
	// order even when submitters interleave. Enqueue never blocks, so the
	// provider is not waited on here.
	p.bot.EnqueueReply(sessionID, message)
	lock.Unlock()

	return nil
}

// truncate caps a string at max characters (runes, not bytes).
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

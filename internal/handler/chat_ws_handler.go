package handler

import (
	"context"
	"errors"

	"github.com/zekaiblog/mywebsite/internal/pkg/logger"
	"github.com/zekaiblog/mywebsite/internal/pkg/serverutils"
	"github.com/zekaiblog/mywebsite/internal/service"
	internalWS "github.com/zekaiblog/mywebsite/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ChatWSHandler authenticates websocket handshakes and routes inbound
// realtime events into the session registry and message pipeline.
type ChatWSHandler struct {
	hub       *internalWS.Hub
	registry  service.IChatService
	pipeline  service.IMessagePipeline
	jwtSecret string
	logger    logger.ILogger
}

func NewChatWSHandler(
	hub *internalWS.Hub,
	registry service.IChatService,
	pipeline service.IMessagePipeline,
	jwtSecret string,
	log logger.ILogger,
) *ChatWSHandler {
	return &ChatWSHandler{
		hub:       hub,
		registry:  registry,
		pipeline:  pipeline,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

// ServeWs upgrades an authenticated handshake. A bad credential is rejected
// with 401 before the upgrade completes, so no partially-open connection
// ever exists.
func (h *ChatWSHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := serverutils.TokenFromCtx(c)
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	identity, err := serverutils.ParseToken(h.jwtSecret, tokenStr)
	if err != nil {
		h.logger.Warn("ChatWSHandler", "Invalid token in handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			internalWS.ServeWs(h.hub, conn, identity.UserID, identity.Username, h)
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// OnJoinSession binds the connection to the session's room after an
// ownership check. An unauthorized join is a silent no-op: replying would
// reveal that the session exists.
func (h *ChatWSHandler) OnJoinSession(client *internalWS.Client, sessionID uint) {
	session, err := h.registry.GetOwnedSession(context.Background(), sessionID, client.UserID)
	if err != nil {
		if !errors.Is(err, service.ErrSessionNotFound) {
			h.logger.Error("ChatWSHandler", "Join failed", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
		return
	}

	h.hub.JoinRoom(client, internalWS.SessionRoom(session.Id))

	frame := internalWS.NewEvent(internalWS.EventSessionJoined, fiber.Map{
		"id":        session.Id,
		"title":     session.Title,
		"createdAt": session.CreatedAt,
	})
	client.TrySend(frame)
}

// OnChatMessage feeds a chat event into the pipeline. Events from
// connections that never joined a room, and input that fails validation, are
// dropped without feedback.
func (h *ChatWSHandler) OnChatMessage(client *internalWS.Client, msg internalWS.InboundChatMessage) {
	key, bound := h.hub.Room(client)
	if !bound {
		return
	}
	sessionID, ok := key.SessionID()
	if !ok {
		return
	}

	err := h.pipeline.SubmitHumanMessage(context.Background(), client.UserID, sessionID, msg.Content, msg.ImageUrl)
	if err != nil && !errors.Is(err, service.ErrEmptyMessage) && !errors.Is(err, service.ErrSessionNotFound) {
		h.logger.Error("ChatWSHandler", "Message submission failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}

package controller

import (
	"errors"
	"strconv"

	"github.com/zekaiblog/mywebsite/internal/dto"
	"github.com/zekaiblog/mywebsite/internal/pkg/serverutils"
	"github.com/zekaiblog/mywebsite/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router, authRequired fiber.Handler)
	ListSessions(ctx *fiber.Ctx) error
	CreateSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	GetMessages(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router, authRequired fiber.Handler) {
	r.Get("/sessions", authRequired, c.ListSessions)
	r.Post("/sessions", authRequired, c.CreateSession)
	r.Delete("/sessions/:sessionId", authRequired, c.DeleteSession)
	r.Get("/messages/:sessionId", authRequired, c.GetMessages)
}

func (c *chatController) ListSessions(ctx *fiber.Ctx) error {
	identity, ok := serverutils.IdentityFromCtx(ctx)
	if !ok {
		return serverutils.ErrorJSON(ctx, fiber.StatusUnauthorized, "Unauthorized")
	}

	sessions, err := c.service.ListSessions(ctx.Context(), identity.UserID)
	if err != nil {
		return serverutils.ErrorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}
	return ctx.JSON(fiber.Map{"sessions": sessions})
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	identity, ok := serverutils.IdentityFromCtx(ctx)
	if !ok {
		return serverutils.ErrorJSON(ctx, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.CreateSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return serverutils.ErrorJSON(ctx, fiber.StatusBadRequest, "Invalid request body")
		}
	}

	session, err := c.service.CreateSession(ctx.Context(), identity.UserID, req.Title)
	if err != nil {
		return serverutils.ErrorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}
	return ctx.JSON(fiber.Map{"session": session})
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	identity, ok := serverutils.IdentityFromCtx(ctx)
	if !ok {
		return serverutils.ErrorJSON(ctx, fiber.StatusUnauthorized, "Unauthorized")
	}

	sessionID, err := parseSessionParam(ctx)
	if err != nil {
		return serverutils.ErrorJSON(ctx, fiber.StatusNotFound, "Session not found")
	}

	if err := c.service.DeleteSession(ctx.Context(), identity.UserID, sessionID); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return serverutils.ErrorJSON(ctx, fiber.StatusNotFound, "Session not found")
		}
		return serverutils.ErrorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *chatController) GetMessages(ctx *fiber.Ctx) error {
	identity, ok := serverutils.IdentityFromCtx(ctx)
	if !ok {
		return serverutils.ErrorJSON(ctx, fiber.StatusUnauthorized, "Unauthorized")
	}

	sessionID, err := parseSessionParam(ctx)
	if err != nil {
		return serverutils.ErrorJSON(ctx, fiber.StatusNotFound, "Session not found")
	}

	limit := ctx.QueryInt("limit", 0)
	messages, session, err := c.service.GetHistory(ctx.Context(), identity.UserID, sessionID, limit)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return serverutils.ErrorJSON(ctx, fiber.StatusNotFound, "Session not found")
		}
		return serverutils.ErrorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}
	return ctx.JSON(fiber.Map{"messages": messages, "session": session})
}

func parseSessionParam(ctx *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(ctx.Params("sessionId"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

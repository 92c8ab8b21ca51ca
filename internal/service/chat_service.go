package service

import (
	"context"
	"errors"
	"strings"

	"github.com/zekaiblog/mywebsite/internal/constant"
	"github.com/zekaiblog/mywebsite/internal/dto"
	"github.com/zekaiblog/mywebsite/internal/entity"
	"github.com/zekaiblog/mywebsite/internal/repository/memory"
	"github.com/zekaiblog/mywebsite/internal/repository/specification"
	"github.com/zekaiblog/mywebsite/internal/repository/unitofwork"
)

// ErrSessionNotFound covers both a missing session and a session owned by
// someone else; callers must not be able to tell the two apart.
var ErrSessionNotFound = errors.New("Session not found")

type IChatService interface {
	CreateSession(ctx context.Context, userID uint, title string) (*dto.SessionResponse, error)
	ListSessions(ctx context.Context, userID uint) ([]*dto.SessionResponse, error)
	GetOwnedSession(ctx context.Context, sessionID, userID uint) (*entity.ChatSession, error)
	VerifyOwnership(ctx context.Context, sessionID, userID uint) error
	GetHistory(ctx context.Context, userID, sessionID uint, limit int) ([]*dto.MessageResponse, *dto.SessionResponse, error)
	DeleteSession(ctx context.Context, userID, sessionID uint) error
}

type chatService struct {
	uowFactory unitofwork.RepositoryFactory
	ownership  *memory.OwnershipCache
}

func NewChatService(uowFactory unitofwork.RepositoryFactory, ownership *memory.OwnershipCache) IChatService {
	return &chatService{
		uowFactory: uowFactory,
		ownership:  ownership,
	}
}

func (s *chatService) CreateSession(ctx context.Context, userID uint, title string) (*dto.SessionResponse, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = constant.DefaultSessionTitle
	}

	session := &entity.ChatSession{
		UserId: userID,
		Title:  title,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	s.ownership.Save(session.Id, userID)
	return toSessionResponse(session), nil
}

// ListSessions returns the user's sessions newest-first: the most recent
// conversation is the one they want back first.
func (s *chatService) ListSessions(ctx context.Context, userID uint) ([]*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.OwnedBy{UserID: userID},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.OrderBy{Field: "id", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.SessionResponse, len(sessions))
	for i, session := range sessions {
		responses[i] = toSessionResponse(session)
	}
	return responses, nil
}

func (s *chatService) GetOwnedSession(ctx context.Context, sessionID, userID uint) (*entity.ChatSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionID},
		specification.OwnedBy{UserID: userID},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	s.ownership.Save(session.Id, userID)
	return session, nil
}

// VerifyOwnership is the cheap form of GetOwnedSession for hot paths; a
// cache hit skips the database entirely.
func (s *chatService) VerifyOwnership(ctx context.Context, sessionID, userID uint) error {
	if owner, ok := s.ownership.Get(sessionID); ok {
		if owner == userID {
			return nil
		}
		return ErrSessionNotFound
	}

	_, err := s.GetOwnedSession(ctx, sessionID, userID)
	return err
}

// GetHistory returns up to limit messages oldest-first: the inverse of
// session listing, matching natural reading order.
func (s *chatService) GetHistory(ctx context.Context, userID, sessionID uint, limit int) ([]*dto.MessageResponse, *dto.SessionResponse, error) {
	session, err := s.GetOwnedSession(ctx, sessionID, userID)
	if err != nil {
		return nil, nil, err
	}

	if limit <= 0 {
		limit = constant.DefaultHistoryLimit
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionID},
		specification.OrderBy{Field: "created_at"},
		specification.OrderBy{Field: "id"},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, nil, err
	}

	responses := make([]*dto.MessageResponse, len(messages))
	for i, message := range messages {
		responses[i] = toMessageResponse(message)
	}
	return responses, toSessionResponse(session), nil
}

func (s *chatService) DeleteSession(ctx context.Context, userID, sessionID uint) error {
	if _, err := s.GetOwnedSession(ctx, sessionID, userID); err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Delete(ctx, sessionID); err != nil {
		return err
	}

	s.ownership.Invalidate(sessionID)
	return nil
}

func toSessionResponse(session *entity.ChatSession) *dto.SessionResponse {
	return &dto.SessionResponse{
		Id:        session.Id,
		Title:     session.Title,
		CreatedAt: session.CreatedAt,
	}
}

func toMessageResponse(message *entity.Message) *dto.MessageResponse {
	return &dto.MessageResponse{
		Id:        message.Id,
		Content:   message.Content,
		ImageUrl:  message.ImageUrl,
		IsFromBot: message.IsFromBot,
		CreatedAt: message.CreatedAt,
	}
}

package contract

import (
	"context"

	"github.com/zekaiblog/mywebsite/internal/entity"
	"github.com/zekaiblog/mywebsite/internal/repository/specification"
)

// MessageRepository is append-only: there is deliberately no Update. Rows go
// away only through the session cascade.
type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
}

package contract

import (
	"context"

	"github.com/zekaiblog/mywebsite/internal/entity"
	"github.com/zekaiblog/mywebsite/internal/repository/specification"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
}

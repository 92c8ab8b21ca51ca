package service

import (
	"context"
	"errors"
	"time"

	"github.com/zekaiblog/mywebsite/internal/dto"
	"github.com/zekaiblog/mywebsite/internal/entity"
	"github.com/zekaiblog/mywebsite/internal/pkg/serverutils"
	"github.com/zekaiblog/mywebsite/internal/repository/specification"
	"github.com/zekaiblog/mywebsite/internal/repository/unitofwork"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 7 * 24 * time.Hour

var ErrInvalidCredentials = errors.New("Invalid username or password")

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	GetMe(ctx context.Context, userID uint) (*dto.UserResponse, error)
}

type authService struct {
	uowFactory unitofwork.RepositoryFactory
	validate   *validator.Validate
	jwtSecret  string
}

func NewAuthService(uowFactory unitofwork.RepositoryFactory, jwtSecret string) IAuthService {
	return &authService{
		uowFactory: uowFactory,
		validate:   validator.New(),
		jwtSecret:  jwtSecret,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if err := s.validateRegister(req); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: req.Username})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New("Username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Username:     req.Username,
		PasswordHash: string(hash),
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, ErrInvalidCredentials
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: req.Username})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(user)
}

func (s *authService) GetMe(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userID})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	return &dto.UserResponse{Id: user.Id, Username: user.Username}, nil
}

func (s *authService) issueToken(user *entity.User) (*dto.AuthResponse, error) {
	token, err := serverutils.GenerateToken(s.jwtSecret, serverutils.Identity{
		UserID:   user.Id,
		Username: user.Username,
	}, tokenTTL)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		Token: token,
		User:  dto.UserResponse{Id: user.Id, Username: user.Username},
	}, nil
}

// validateRegister maps validator failures onto the user-facing messages the
// API has always returned.
func (s *authService) validateRegister(req *dto.RegisterRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.New("Username and password required")
	}

	for _, fe := range fieldErrs {
		switch {
		case fe.Tag() == "required":
			return errors.New("Username and password required")
		case fe.Field() == "Username":
			return errors.New("Username must be 2–30 characters")
		case fe.Field() == "Password":
			return errors.New("Password must be at least 6 characters")
		}
	}
	return errors.New("Username and password required")
}

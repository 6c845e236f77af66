package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"canteen-be/internal/logger"
	"canteen-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Register(ctx context.Context, in RegisterInput) (string, *User, error)
	Login(ctx context.Context, in LoginInput) (string, *User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

type service struct {
	repo   Repository
	tokens *TokenManager
}

func NewService(repo Repository, tokens *TokenManager) Service {
	return &service{repo: repo, tokens: tokens}
}

func (s *service) Register(ctx context.Context, in RegisterInput) (string, *User, error) {
	log := logger.FromCtx(ctx).With(zap.String("method", "Register"))

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return "", nil, ErrMissingFields
	}
	if len(in.Password) < 6 {
		return "", nil, ErrPasswordTooShort
	}

	if _, err := s.repo.FindByEmail(ctx, in.Email); err == nil {
		return "", nil, ErrEmailExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return "", nil, err
	}

	hashed, err := HashPassword(in.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return "", nil, err
	}

	u := &User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Password:  hashed,
		Role:      utils.RoleUser,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if strings.Contains(err.Error(), "users_email_key") {
			return "", nil, ErrEmailExists
		}
		return "", nil, err
	}

	token, err := s.tokens.Generate(u.ID)
	if err != nil {
		log.Error("failed to generate jwt", zap.String("user_id", u.ID), zap.Error(err))
		return "", nil, err
	}

	log.Info("user registered", zap.String("user_id", u.ID), zap.String("email", u.Email))
	return token, u, nil
}

func (s *service) Login(ctx context.Context, in LoginInput) (string, *User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	u, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !CheckPasswordHash(in.Password, u.Password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(u.ID)
	if err != nil {
		return "", nil, err
	}

	logger.FromCtx(ctx).Info("user logged in", zap.String("user_id", u.ID))
	return token, u, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

package service

import (
	"context"
	"errors"

	"thrum-backend/internal/common/ethaddr"
	"thrum-backend/internal/features/user/models"
	"thrum-backend/internal/features/user/repository"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidAddress = errors.New("invalid wallet address")
)

type UserService interface {
	GetOrCreateUser(ctx context.Context, address string) (*models.UserResponse, error)
	GetUser(ctx context.Context, address string) (*models.UserResponse, error)
	GetTopUsers(ctx context.Context, limit int) ([]*models.UserResponse, error)
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{
		repo: repo,
	}
}

func (s *userService) GetOrCreateUser(ctx context.Context, address string) (*models.UserResponse, error) {
	addr := ethaddr.Normalize(address)
	if addr == "" {
		return nil, ErrInvalidAddress
	}

	user, err := s.repo.GetOrCreate(ctx, addr)
	if err != nil {
		return nil, err
	}

	return toUserResponse(user), nil
}

func (s *userService) GetUser(ctx context.Context, address string) (*models.UserResponse, error) {
	addr := ethaddr.Normalize(address)
	if addr == "" {
		return nil, ErrInvalidAddress
	}

	user, err := s.repo.GetByAddress(ctx, addr)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return toUserResponse(user), nil
}

func (s *userService) GetTopUsers(ctx context.Context, limit int) ([]*models.UserResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	users, err := s.repo.TopByCredits(ctx, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, toUserResponse(user))
	}

	return responses, nil
}

func toUserResponse(user *models.User) *models.UserResponse {
	return &models.UserResponse{
		Address: user.Address,
		Credits: user.Credits,
	}
}

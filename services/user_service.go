package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yamlrg/connect/models"
	"github.com/yamlrg/connect/repositories"
)

// UserService covers the member profile: the LinkedIn URL members maintain so
// the teams export can include it.
type UserService interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateLinkedinURL(ctx context.Context, userID, url string) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	return user, nil
}

func (s *userService) UpdateLinkedinURL(ctx context.Context, userID, url string) (*models.User, error) {
	url = strings.TrimSpace(url)
	if err := s.userRepo.UpdateLinkedinURL(ctx, userID, url); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update linkedin url: %w", err)
	}
	return s.GetProfile(ctx, userID)
}

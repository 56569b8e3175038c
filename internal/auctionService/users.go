package auction

import (
	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/utils"
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// CreateUser stores a user with a bcrypt hash of the password
func (s *AuctionService) CreateUser(ctx context.Context, username, email, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > 150 {
		return models.User{}, fmt.Errorf("service: %w - username must be 1 to 150 characters", auctionerrors.ErrInvalidUser)
	}
	if password == "" {
		return models.User{}, fmt.Errorf("service: %w - empty password", auctionerrors.ErrInvalidUser)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("service: %w - %v", auctionerrors.ErrInvalidUser, err)
	}

	user := models.User{
		UserID:       utils.GenerateID(),
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
		CreatedAt:    s.timestamp(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("service: failed to create user %s: %w", username, err)
	}
	return user, nil
}

// GetUser returns a user by id
func (s *AuctionService) GetUser(ctx context.Context, userID string) (models.User, error) {
	return s.requireUser(ctx, userID)
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/taskboard/internal/models"
	"github.com/Skotchmaster/taskboard/internal/repo"
)

const (
	minUserQuery   = 2
	userSearchSize = 10
)

type UserService struct {
	Repo *repo.GormRepo
}

func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	u, err := s.Repo.GetUserByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "User not found")
	}
	return u, err
}

func (s *UserService) UpdateName(ctx context.Context, userID uuid.UUID, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name is required")
	}
	u, err := s.Repo.UpdateUserName(ctx, userID, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "User not found")
	}
	return u, err
}

// Search matches other users by name or email. Queries shorter than two
// characters return nothing.
func (s *UserService) Search(ctx context.Context, userID uuid.UUID, q string) ([]models.User, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < minUserQuery {
		return []models.User{}, nil
	}
	return s.Repo.SearchUsers(ctx, q, userID, userSearchSize)
}

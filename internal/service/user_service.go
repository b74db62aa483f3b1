package service

import (
	"context"

	"shim/internal/domain"
	"shim/internal/models"
)

// UserService exposes the identities recorded from authenticated callers.
type UserService struct {
	repo domain.Repository
}

func NewUserService(repo domain.Repository) *UserService {
	return &UserService{repo: repo}
}

// Profile returns the stored record for the caller, falling back to the token
// claims when the caller has not acted yet.
func (s *UserService) Profile(ctx context.Context, caller models.Caller) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, caller.ID)
	if domain.KindOf(err) == domain.KindNotFound {
		return &models.User{ID: caller.ID, Role: caller.Role, Name: caller.Name, Email: caller.Email}, nil
	}
	return user, asDomain("get user", err)
}

package service

import (
	"context"

	"github.com/and161185/village-mart/internal/model"
	"github.com/and161185/village-mart/internal/repository"
)

// ProfileService reads and edits a user's own profile. Callers must have checked ownership.
type ProfileService interface {
	Get(ctx context.Context, userID int64) (model.PublicUser, error)
	UpdatePhone(ctx context.Context, userID int64, phone *string) (model.PublicUser, error)
}

type ProfileServiceImpl struct {
	users repository.UserRepository
}

// NewProfileService constructs ProfileService.
func NewProfileService(users repository.UserRepository) *ProfileServiceImpl {
	return &ProfileServiceImpl{users: users}
}

// Get returns the public profile or errs.ErrNotFound.
func (s *ProfileServiceImpl) Get(ctx context.Context, userID int64) (model.PublicUser, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, err
	}
	return u.Public(), nil
}

// UpdatePhone changes only the phone field. A nil or blank phone clears it.
func (s *ProfileServiceImpl) UpdatePhone(ctx context.Context, userID int64, phone *string) (model.PublicUser, error) {
	u, err := s.users.UpdatePhone(ctx, userID, normalizePhone(phone))
	if err != nil {
		return model.PublicUser{}, err
	}
	return u.Public(), nil
}

// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/village-mart/internal/model"
)

// UserRepository provides access to user accounts.
type UserRepository interface {
	// Create inserts a new user and fills server-assigned fields (ID, CreatedAt).
	// A taken username yields errs.ErrAlreadyExists.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// GetByUsername loads a user by username.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// UpdatePhone sets the phone number (nil clears it) and returns the updated user.
	UpdatePhone(ctx context.Context, id int64, phone *string) (*model.User, error)
}

package repository

import (
	"context"

	"github.com/and161185/village-mart/internal/model"
)

// ProductRepository reads the catalog.
type ProductRepository interface {
	// List returns all catalog rows ordered by id.
	List(ctx context.Context) ([]model.Product, error)
}

// BookingRepository stores completed checkouts.
type BookingRepository interface {
	// ListByUser returns the user's bookings, newest first.
	ListByUser(ctx context.Context, userID int64) ([]model.Booking, error)
	// Create inserts a booking and returns it with server-assigned id and timestamp.
	Create(ctx context.Context, userID int64, products string) (model.Booking, error)
}

// ContactRepository stores visitor messages.
type ContactRepository interface {
	// Create inserts a message and returns the stored record.
	Create(ctx context.Context, name, message string) (model.ContactMessage, error)
}

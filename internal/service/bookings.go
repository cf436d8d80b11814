package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/and161185/village-mart/internal/errs"
	"github.com/and161185/village-mart/internal/model"
	"github.com/and161185/village-mart/internal/repository"
)

// SummarySeparator joins cart entries into the stored booking text.
const SummarySeparator = ", "

// BookingService records checkouts and lists a user's history.
type BookingService interface {
	// List returns the user's bookings, newest first.
	List(ctx context.Context, userID int64) ([]model.Booking, error)
	// Create stores a booking whose summary is products joined by SummarySeparator.
	Create(ctx context.Context, userID int64, products []string) (model.Booking, error)
}

type BookingServiceImpl struct {
	repo repository.BookingRepository
}

// NewBookingService constructs BookingService.
func NewBookingService(repo repository.BookingRepository) *BookingServiceImpl {
	return &BookingServiceImpl{repo: repo}
}

// List delegates to the repository.
func (s *BookingServiceImpl) List(ctx context.Context, userID int64) ([]model.Booking, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Create validates that products is non-empty before touching persistence.
func (s *BookingServiceImpl) Create(ctx context.Context, userID int64, products []string) (model.Booking, error) {
	if len(products) == 0 {
		return model.Booking{}, fmt.Errorf("%w: products must be a non-empty array", errs.ErrValidation)
	}
	return s.repo.Create(ctx, userID, strings.Join(products, SummarySeparator))
}

package client

import (
	"context"
	"errors"

	"github.com/and161185/village-mart/internal/cart"
	"github.com/and161185/village-mart/internal/model"
	"github.com/and161185/village-mart/internal/session"
)

// LoginRedirect is where an anonymous checkout is sent.
const LoginRedirect = "/login?redirect=/cart"

// ErrEmptyCart rejects checkout of an empty cart.
var ErrEmptyCart = errors.New("cart is empty")

// LoginRequiredError means the user must log in before checking out.
type LoginRequiredError struct {
	Redirect string
}

func (e *LoginRequiredError) Error() string {
	return "login required (" + e.Redirect + ")"
}

// BookingCreator is satisfied by *API.
type BookingCreator interface {
	CreateBooking(ctx context.Context, userID int64, products []string) (model.Booking, error)
}

// Checkout books the cart for the session's user and clears it on success. No request is
// made when the session is anonymous or the cart is empty; on failure the cart is kept.
func Checkout(ctx context.Context, sess *session.Session, c *cart.Store, api BookingCreator) (model.Booking, error) {
	id, ok := sess.Identity()
	if !ok || id.Token == "" {
		return model.Booking{}, &LoginRequiredError{Redirect: LoginRedirect}
	}
	if c.ItemCount() == 0 {
		return model.Booking{}, ErrEmptyCart
	}
	if err := sess.BeginSubmit(); err != nil {
		return model.Booking{}, err
	}
	defer sess.EndSubmit()

	b, err := api.CreateBooking(ctx, id.UserID, c.Summary())
	if err != nil {
		return model.Booking{}, err
	}
	c.Clear()
	return b, nil
}

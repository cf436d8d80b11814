// Package model defines domain entities shared by the server, the client and repositories.
package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Read-only from the API's perspective.
type Product struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url"`
}

// PriceScale is the number of decimal places prices carry on the wire, matching numeric(10,2).
const PriceScale = 2

// MarshalJSON keeps the price at PriceScale places ("45.00", not "45").
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		Price string `json:"price"`
	}{plain(p), p.Price.StringFixed(PriceScale)})
}

// User represents an account stored on the server. The password is only kept as a bcrypt hash.
type User struct {
	ID        int64     // PK
	Username  string    // unique
	PwdHash   []byte    // bcrypt(password)
	Phone     *string   // optional
	CreatedAt time.Time // set by the database
}

// Public returns the fields of u that may leave the server.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Phone: u.Phone, CreatedAt: u.CreatedAt}
}

// PublicUser is the profile view of a user (never includes the hash).
type PublicUser struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Phone     *string   `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// Booking is a persisted checkout. Products is a human-readable summary of the cart.
type Booking struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Products  string    `json:"products"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactMessage is a visitor message; write-only from the client's perspective.
type ContactMessage struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity is what a successful login hands to the client.
type Identity struct {
	Token    string `json:"token"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// CartLine is one product's entry in the shopping cart.
type CartLine struct {
	ProductID int64           `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

func (l CartLine) MarshalJSON() ([]byte, error) {
	type plain CartLine
	return json.Marshal(struct {
		plain
		UnitPrice string `json:"price"`
	}{plain(l), l.UnitPrice.StringFixed(PriceScale)})
}

// Subtotal returns UnitPrice × Quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Service is an entry of the static services list shown on the home page.
type Service struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// NewsItem is a static village news headline.
type NewsItem struct {
	ID       int    `json:"id"`
	Headline string `json:"headline"`
}

// Package client talks to the village-mart REST API and implements the client-side
// catalog and checkout flows.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/and161185/village-mart/internal/model"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 15 * time.Second

// APIError is a non-2xx answer. Message is the server's "error" field or the status text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// API is a thin JSON client. The bearer token is read from Token on each call.
type API struct {
	base  string
	hc    *http.Client
	token func() string
}

// Option configures API.
type Option func(*API)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *API) { a.hc = hc }
}

// WithToken sets the bearer token source.
func WithToken(fn func() string) Option {
	return func(a *API) { a.token = fn }
}

// New returns a client for the server at base, e.g. http://localhost:5000.
func New(base string, opts ...Option) *API {
	a := &API{
		base: strings.TrimRight(base, "/"),
		hc: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   DefaultTimeout,
		},
		token: func() string { return "" },
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *API) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := a.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := a.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&e) == nil && e.Error != "" {
			apiErr.Message = e.Error
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func userPath(id int64) string {
	return "/api/user/" + url.PathEscape(strconv.FormatInt(id, 10))
}

// Products lists the server catalog.
func (a *API) Products(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	err := a.do(ctx, http.MethodGet, "/api/products", nil, &out)
	return out, err
}

func (a *API) Services(ctx context.Context) ([]model.Service, error) {
	var out []model.Service
	err := a.do(ctx, http.MethodGet, "/api/services", nil, &out)
	return out, err
}

func (a *API) News(ctx context.Context) ([]model.NewsItem, error) {
	var out []model.NewsItem
	err := a.do(ctx, http.MethodGet, "/api/news", nil, &out)
	return out, err
}

// Contact submits a visitor message.
func (a *API) Contact(ctx context.Context, name, message string) (model.ContactMessage, error) {
	var out model.ContactMessage
	in := map[string]string{"name": name, "message": message}
	err := a.do(ctx, http.MethodPost, "/api/contact", in, &out)
	return out, err
}

// Register creates an account. phone may be nil.
func (a *API) Register(ctx context.Context, username, password string, phone *string) (model.PublicUser, error) {
	in := struct {
		Username string  `json:"username"`
		Password string  `json:"password"`
		Phone    *string `json:"phone,omitempty"`
	}{username, password, phone}
	var out struct {
		Message string           `json:"message"`
		User    model.PublicUser `json:"user"`
	}
	err := a.do(ctx, http.MethodPost, "/api/register", in, &out)
	return out.User, err
}

// Login exchanges credentials for an identity.
func (a *API) Login(ctx context.Context, username, password string) (model.Identity, error) {
	var out model.Identity
	in := map[string]string{"username": username, "password": password}
	err := a.do(ctx, http.MethodPost, "/api/login", in, &out)
	return out, err
}

func (a *API) User(ctx context.Context, id int64) (model.PublicUser, error) {
	var out model.PublicUser
	err := a.do(ctx, http.MethodGet, userPath(id), nil, &out)
	return out, err
}

func (a *API) UpdatePhone(ctx context.Context, id int64, phone *string) (model.PublicUser, error) {
	var out model.PublicUser
	in := struct {
		Phone *string `json:"phone"`
	}{phone}
	err := a.do(ctx, http.MethodPut, userPath(id), in, &out)
	return out, err
}

// Bookings lists the user's bookings, newest first.
func (a *API) Bookings(ctx context.Context, id int64) ([]model.Booking, error) {
	var out []model.Booking
	err := a.do(ctx, http.MethodGet, userPath(id)+"/bookings", nil, &out)
	return out, err
}

// CreateBooking records a checkout.
func (a *API) CreateBooking(ctx context.Context, id int64, products []string) (model.Booking, error) {
	var out model.Booking
	in := struct {
		Products []string `json:"products"`
	}{products}
	err := a.do(ctx, http.MethodPost, userPath(id)+"/bookings", in, &out)
	return out, err
}

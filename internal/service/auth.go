// Package service contains application services behind the REST API: authentication,
// profiles, bookings, catalog and contact messages.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgcrypto "github.com/and161185/village-mart/internal/crypto"
	"github.com/and161185/village-mart/internal/errs"
	"github.com/and161185/village-mart/internal/limiter"
	"github.com/and161185/village-mart/internal/model"
	"github.com/and161185/village-mart/internal/repository"
	"github.com/and161185/village-mart/internal/token"
)

// AuthService defines registration and login.
type AuthService interface {
	// Register creates a new user with a salted password hash.
	Register(ctx context.Context, username, password string, phone *string) (model.PublicUser, error)
	// Login authenticates the user and issues a credential.
	Login(ctx context.Context, username, password, ip string) (model.Identity, error)
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
	now       func() time.Time
}

// NewAuthService constructs AuthService with required dependencies. A nil limiter disables
// login throttling.
func NewAuthService(users repository.UserRepository, signKey []byte, accessTTL time.Duration, lim limiter.Limiter) *AuthServiceImpl {
	if lim == nil {
		lim = limiter.Noop{}
	}
	if accessTTL <= 0 {
		accessTTL = token.DefaultTTL
	}
	return &AuthServiceImpl{users: users, signKey: signKey, accessTTL: accessTTL, lim: lim, now: time.Now}
}

// Register validates input, hashes the password and inserts the user. A taken username is
// reported by the repository as errs.ErrAlreadyExists.
func (s *AuthServiceImpl) Register(ctx context.Context, username, password string, phone *string) (model.PublicUser, error) {
	if username == "" || password == "" {
		return model.PublicUser{}, fmt.Errorf("%w: username and password are required", errs.ErrValidation)
	}
	hash, err := pkgcrypto.HashPassword([]byte(password))
	if err != nil {
		return model.PublicUser{}, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Username: username,
		PwdHash:  hash,
		Phone:    normalizePhone(phone),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return model.PublicUser{}, err
	}
	return u.Public(), nil
}

// Login authenticates with rate limiting by (username, ip).
func (s *AuthServiceImpl) Login(ctx context.Context, username, password, ip string) (model.Identity, error) {
	if username == "" || password == "" {
		return model.Identity{}, fmt.Errorf("%w: username and password are required", errs.ErrValidation)
	}
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, username, ipHash)
	if err != nil {
		return model.Identity{}, err
	}
	if !allowed {
		return model.Identity{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			return model.Identity{}, err
		}
		return model.Identity{}, s.failed(ctx, username, ipHash, errs.ErrNotFound)
	}
	if !pkgcrypto.VerifyPassword([]byte(password), u.PwdHash) {
		return model.Identity{}, s.failed(ctx, username, ipHash, errs.ErrInvalidCredentials)
	}

	// Success: reset counters (best-effort).
	_ = s.lim.Success(ctx, username, ipHash)

	raw, _, err := token.Issue(u.ID, s.signKey, s.accessTTL, s.now())
	if err != nil {
		return model.Identity{}, err
	}
	return model.Identity{Token: raw, UserID: u.ID, Username: u.Username}, nil
}

// failed records a failed attempt and returns cause unless the attempt triggered a block.
func (s *AuthServiceImpl) failed(ctx context.Context, username string, ipHash []byte, cause error) error {
	if blocked, _, ferr := s.lim.Failure(ctx, username, ipHash); ferr == nil && blocked {
		return errs.ErrRateLimited
	}
	return cause
}

// normalizePhone treats a blank phone as absent.
func normalizePhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	p := strings.TrimSpace(*phone)
	if p == "" {
		return nil
	}
	return &p
}

// Package session holds the client's login identity and drives the
// Anonymous → Authenticating → Authenticated cycle.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/and161185/village-mart/internal/cart"
	"github.com/and161185/village-mart/internal/localstore"
	"github.com/and161185/village-mart/internal/model"
)

// FileName is the fixed storage key of the identity.
const FileName = "session.json"

// State of the client session.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrBusy rejects a submission while another one is pending.
var ErrBusy = errors.New("session: a submission is already in progress")

// Authenticator exchanges credentials for an identity.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (model.Identity, error)
}

// Session owns at most one identity. Safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	storage    localstore.Storage
	cart       *cart.Store
	identity   *model.Identity
	state      State
	submitting bool
	err        error
}

// New restores a stored identity. Unreadable storage starts anonymous.
// c is cleared on logout and may be nil.
func New(storage localstore.Storage, c *cart.Store) *Session {
	s := &Session{storage: storage, cart: c}
	if raw, err := storage.Load(); err == nil {
		var id model.Identity
		if json.Unmarshal(raw, &id) == nil && id.Token != "" {
			s.identity = &id
			s.state = Authenticated
		}
	}
	return s
}

// IsAuthenticated reports token presence. Expiry is left to the server.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity != nil && s.identity.Token != ""
}

// Identity returns the current identity, if any.
func (s *Session) Identity() (model.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return model.Identity{}, false
	}
	return *s.identity, true
}

// Token returns the bearer token or "".
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return ""
	}
	return s.identity.Token
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the last persistence error.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// BeginSubmit marks a submission as pending or returns ErrBusy.
func (s *Session) BeginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrBusy
	}
	s.submitting = true
	return nil
}

// EndSubmit clears the pending flag.
func (s *Session) EndSubmit() {
	s.mu.Lock()
	s.submitting = false
	s.mu.Unlock()
}

// Login submits credentials. A failed attempt leaves the session anonymous; the cart is
// untouched either way.
func (s *Session) Login(ctx context.Context, auth Authenticator, username, password string) (model.Identity, error) {
	if err := s.BeginSubmit(); err != nil {
		return model.Identity{}, err
	}
	defer s.EndSubmit()

	s.mu.Lock()
	s.state = Authenticating
	s.mu.Unlock()

	id, err := auth.Login(ctx, username, password)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.identity = nil
		s.state = Anonymous
		s.err = s.storage.Remove()
		return model.Identity{}, err
	}
	s.identity = &id
	s.state = Authenticated
	s.persist()
	return id, nil
}

// Logout discards the identity and clears the cart.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.identity = nil
	s.state = Anonymous
	s.err = s.storage.Remove()
	err := s.err
	s.mu.Unlock()

	if s.cart != nil {
		s.cart.Clear()
		if cerr := s.cart.Err(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Expire discards an identity the server no longer accepts. Unlike Logout the cart is kept.
func (s *Session) Expire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
	s.state = Anonymous
	s.err = s.storage.Remove()
	return s.err
}

// persist must be called with mu held.
func (s *Session) persist() {
	raw, err := json.Marshal(s.identity)
	if err != nil {
		s.err = fmt.Errorf("encode session: %w", err)
		return
	}
	if err := s.storage.Save(raw); err != nil {
		s.err = fmt.Errorf("save session: %w", err)
		return
	}
	s.err = nil
}

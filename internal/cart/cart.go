// Package cart is the client-side shopping cart. The persisted snapshot is the source of
// truth across restarts; a missing or unreadable snapshot starts an empty cart.
package cart

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/and161185/village-mart/internal/localstore"
	"github.com/and161185/village-mart/internal/model"
)

// FileName is the fixed storage key of the cart snapshot.
const FileName = "cart.json"

// Store owns the cart lines. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	lines   []model.CartLine
	storage localstore.Storage
	err     error
}

// New hydrates a cart from storage. Load or decode failures are swallowed.
func New(storage localstore.Storage) *Store {
	s := &Store{storage: storage}
	s.lines = hydrate(storage)
	return s
}

func hydrate(storage localstore.Storage) []model.CartLine {
	raw, err := storage.Load()
	if err != nil {
		return nil
	}
	var lines []model.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil
	}
	seen := make(map[int64]struct{}, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			return nil
		}
		if _, dup := seen[l.ProductID]; dup {
			return nil
		}
		seen[l.ProductID] = struct{}{}
	}
	return lines
}

// AddItem adds one unit of p, merging into an existing line.
func (s *Store) AddItem(p model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(p.ID); i >= 0 {
		s.lines[i].Quantity++
	} else {
		s.lines = append(s.lines, model.CartLine{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  1,
		})
	}
	s.persist()
}

// RemoveItem drops the line whatever its quantity. Absent ids are ignored.
func (s *Store) RemoveItem(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(productID)
	if i < 0 {
		return
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	s.persist()
}

// IncreaseQuantity adds one unit to an existing line.
func (s *Store) IncreaseQuantity(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(productID)
	if i < 0 {
		return
	}
	s.lines[i].Quantity++
	s.persist()
}

// DecreaseQuantity removes one unit; a line that would reach zero is removed.
func (s *Store) DecreaseQuantity(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(productID)
	if i < 0 {
		return
	}
	if s.lines[i].Quantity <= 1 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	} else {
		s.lines[i].Quantity--
	}
	s.persist()
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.persist()
}

// Lines returns a copy of the lines in insertion order.
func (s *Store) Lines() []model.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Quantity returns the quantity of a line, 0 if absent.
func (s *Store) Quantity(productID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(productID); i >= 0 {
		return s.lines[i].Quantity
	}
	return 0
}

// Total is Σ unit price × quantity.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount is Σ quantity.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Summary renders one "<name> (Qty: <n>)" entry per line for a booking.
func (s *Store) Summary() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.lines))
	for _, l := range s.lines {
		out = append(out, fmt.Sprintf("%s (Qty: %d)", l.Name, l.Quantity))
	}
	return out
}

// Err returns the last persistence error, nil after a successful save.
// In-memory state is kept even when saving fails.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Store) index(productID int64) int {
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// persist must be called with mu held.
func (s *Store) persist() {
	lines := s.lines
	if lines == nil {
		lines = []model.CartLine{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		s.err = fmt.Errorf("encode cart: %w", err)
		return
	}
	if err := s.storage.Save(raw); err != nil {
		s.err = fmt.Errorf("save cart: %w", err)
		return
	}
	s.err = nil
}

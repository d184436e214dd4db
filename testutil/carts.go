package testutil

import (
	"context"
	"sync"
	"time"

	"bioshop/models"
	"bioshop/store"
)

// Carts is an in-memory cart repository with the same version and
// uniqueness rules as store.CartStore.
type Carts struct {
	mu    sync.Mutex
	carts map[string]models.Cart

	// BeforeSave runs before each Save while no lock is held; tests use it to
	// interleave a competing writer.
	BeforeSave func(cart *models.Cart)
	// SaveErr, when set, is returned by every Save.
	SaveErr error
	Saves   int
}

func NewCarts() *Carts {
	return &Carts{carts: map[string]models.Cart{}}
}

func copyCart(c models.Cart) models.Cart {
	c.Items = append([]models.CartItem{}, c.Items...)
	for i := range c.Items {
		c.Items[i].Product = nil
	}
	return c
}

func (s *Carts) FindBySession(_ context.Context, sessionID string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := copyCart(c)
	return &out, nil
}

func (s *Carts) Insert(_ context.Context, cart *models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.carts[cart.SessionID]; ok {
		return store.ErrDuplicate
	}
	s.carts[cart.SessionID] = copyCart(*cart)
	return nil
}

func (s *Carts) Save(_ context.Context, cart *models.Cart) error {
	if s.BeforeSave != nil {
		s.BeforeSave(cart)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Saves++
	if s.SaveErr != nil {
		return s.SaveErr
	}
	cur, ok := s.carts[cart.SessionID]
	if !ok || cur.ID != cart.ID || cur.Version != cart.Version {
		return store.ErrVersionConflict
	}
	cart.UpdatedAt = time.Now().UTC()
	cart.Version++
	s.carts[cart.SessionID] = copyCart(*cart)
	return nil
}

// Put stores cart as is, replacing any cart of the same session.
func (s *Carts) Put(cart *models.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[cart.SessionID] = copyCart(*cart)
}

// Peek returns the stored cart for a session.
func (s *Carts) Peek(sessionID string) (models.Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[sessionID]
	return copyCart(c), ok
}

// Bump simulates a concurrent write by another request.
func (s *Carts) Bump(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.carts[sessionID]
	c.Version++
	s.carts[sessionID] = c
}

func (s *Carts) snapshot() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make(map[string]models.Cart, len(s.carts))
	for k, v := range s.carts {
		snap[k] = copyCart(v)
	}
	return snap
}

func (s *Carts) restore(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts = v.(map[string]models.Cart)
}

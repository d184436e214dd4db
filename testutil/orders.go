package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"bioshop/models"
	"bioshop/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Orders is an in-memory order repository with a unique order number.
type Orders struct {
	mu     sync.Mutex
	orders []models.Order

	// InsertErr, when set, is returned by the next Insert and then cleared.
	InsertErr error
}

func NewOrders() *Orders {
	return &Orders{}
}

func (s *Orders) Insert(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.InsertErr; err != nil {
		s.InsertErr = nil
		return err
	}
	for _, o := range s.orders {
		if o.OrderNumber == order.OrderNumber {
			return store.ErrDuplicate
		}
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	s.orders = append(s.orders, *order)
	return nil
}

func (s *Orders) Get(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Orders) List(_ context.Context, f models.OrderFilter) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Order{}
	for _, o := range s.orders {
		switch {
		case f.CustomerEmail != "" && o.Customer.Email != f.CustomerEmail:
		case f.OrderNumber != "" && o.OrderNumber != f.OrderNumber:
		case f.Status != "" && o.Status != f.Status:
		default:
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Orders) UpdateStatus(_ context.Context, id primitive.ObjectID, u models.OrderStatusUpdate) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		o := &s.orders[i]
		if o.ID != id {
			continue
		}
		if u.Status != nil {
			o.Status = *u.Status
		}
		if u.PaymentStatus != nil {
			o.PaymentStatus = *u.PaymentStatus
		}
		if u.FulfillmentStatus != nil {
			o.FulfillmentStatus = *u.FulfillmentStatus
		}
		o.UpdatedAt = time.Now().UTC()
		out := *o
		return &out, nil
	}
	return nil, store.ErrNotFound
}

// All returns every stored order in insertion order.
func (s *Orders) All() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Order{}, s.orders...)
}

func (s *Orders) snapshot() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Order{}, s.orders...)
}

func (s *Orders) restore(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = v.([]models.Order)
}

// Sequence is an in-memory counter.
type Sequence struct {
	mu   sync.Mutex
	vals map[string]int64
}

func NewSequence() *Sequence {
	return &Sequence{vals: map[string]int64{}}
}

// Set makes the next value for name be v+1.
func (s *Sequence) Set(name string, v int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[name] = v
}

func (s *Sequence) Next(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[name]++
	return s.vals[name], nil
}

type snapshotter interface {
	snapshot() any
	restore(any)
}

// Tx runs functions against the fakes and restores their state when the
// function fails, like an aborted transaction.
type Tx struct {
	mu    sync.Mutex
	parts []snapshotter
	Runs  int
	// NoRollback leaves partial writes in place, like a store running
	// without transactions.
	NoRollback bool
}

// NewTx covers the given fakes. Only Carts and Orders are supported.
func NewTx(parts ...snapshotter) *Tx {
	return &Tx{parts: parts}
}

func (t *Tx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Runs++
	snaps := make([]any, len(t.parts))
	for i, p := range t.parts {
		snaps[i] = p.snapshot()
	}
	if err := fn(ctx); err != nil {
		if t.NoRollback {
			return err
		}
		for i, p := range t.parts {
			p.restore(snaps[i])
		}
		return err
	}
	return nil
}

// Package testutil holds in-memory stand-ins for the store used by service
// and controller tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"bioshop/models"
	"bioshop/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection is an in-memory store.Collection. Filters are ignored except
// through Match.
type Collection[T any, PT interface {
	*T
	models.Document
}] struct {
	mu    sync.Mutex
	docs  map[primitive.ObjectID]T
	order []primitive.ObjectID

	// Match, when set, decides which documents List returns.
	Match func(filter map[string]any, doc *T) bool
}

func NewCollection[T any, PT interface {
	*T
	models.Document
}]() *Collection[T, PT] {
	return &Collection[T, PT]{docs: map[primitive.ObjectID]T{}}
}

func (c *Collection[T, PT]) List(_ context.Context, q store.Query) ([]T, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []T{}
	for _, id := range c.order {
		doc := c.docs[id]
		if c.Match != nil && !c.Match(q.Filter, &doc) {
			continue
		}
		out = append(out, doc)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return PT(&out[i]).BaseDoc().CreatedAt.After(PT(&out[j]).BaseDoc().CreatedAt)
	})
	total := int64(len(out))
	if q.Limit > 0 {
		start := 0
		if q.Page > 1 {
			start = (q.Page - 1) * q.Limit
		}
		if start > len(out) {
			start = len(out)
		}
		end := start + q.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, total, nil
}

// FindOne returns the oldest document accepted by Match.
func (c *Collection[T, PT]) FindOne(_ context.Context, filter bson.M) (*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range c.order {
		doc := c.docs[id]
		if c.Match == nil || c.Match(filter, &doc) {
			return &doc, nil
		}
	}
	return nil, store.ErrNotFound
}

func (c *Collection[T, PT]) Get(_ context.Context, id primitive.ObjectID) (*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &doc, nil
}

func (c *Collection[T, PT]) Create(_ context.Context, doc PT) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := doc.BaseDoc()
	now := time.Now().UTC()
	b.ID = primitive.NewObjectID()
	b.CreatedAt = now
	b.UpdatedAt = now
	c.docs[b.ID] = *doc
	c.order = append(c.order, b.ID)
	return nil
}

func (c *Collection[T, PT]) Update(_ context.Context, id primitive.ObjectID, doc PT) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.docs[id]
	if !ok {
		return store.ErrNotFound
	}
	b := doc.BaseDoc()
	b.ID = id
	b.CreatedAt = PT(&existing).BaseDoc().CreatedAt
	b.UpdatedAt = time.Now().UTC()
	c.docs[id] = *doc
	return nil
}

func (c *Collection[T, PT]) Delete(_ context.Context, id primitive.ObjectID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.docs[id]; !ok {
		return store.ErrNotFound
	}
	delete(c.docs, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len reports how many documents are stored.
func (c *Collection[T, PT]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

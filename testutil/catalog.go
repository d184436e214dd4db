package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"bioshop/models"
	"bioshop/store"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Products is an in-memory catalog.
type Products struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]models.Product
}

func NewProducts() *Products {
	return &Products{products: map[primitive.ObjectID]models.Product{}}
}

// Add stores an active product with the given code and price and returns it.
func (s *Products) Add(code string, price int64) *models.Product {
	p := &models.Product{
		Base:     models.Base{ID: primitive.NewObjectID(), CreatedAt: time.Now().UTC()},
		Name:     "Product " + code,
		Code:     code,
		Slug:     models.Slugify("product " + code),
		Price:    decimal.NewFromInt(price),
		Currency: "INR",
		Active:   true,
		Images:   []string{"/uploads/" + code + ".png"},
	}
	s.Put(p)
	return p
}

func (s *Products) Put(p *models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = *p
}

func (s *Products) Remove(id primitive.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
}

func (s *Products) Get(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Products) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[primitive.ObjectID]*models.Product{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = &p
		}
	}
	return out, nil
}

func (s *Products) UpsertByCode(_ context.Context, p *models.Product) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.products {
		if existing.Code == p.Code {
			p.ID = id
			p.CreatedAt = existing.CreatedAt
			p.Images = existing.Images
			s.products[id] = *p
			return false, nil
		}
	}
	p.ID = primitive.NewObjectID()
	p.CreatedAt = time.Now().UTC()
	s.products[p.ID] = *p
	return true, nil
}

// List returns products newest first, honouring only the "active" filter.
func (s *Products) List(_ context.Context, q store.Query) ([]models.Product, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Product{}
	for _, p := range s.products {
		if active, ok := q.Filter["active"].(bool); ok && p.Active != active {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (s *Products) FindBySlugOrID(_ context.Context, ref string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Slug == ref || p.ID.Hex() == ref {
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

// ByCode finds a product by code.
func (s *Products) ByCode(code string) (models.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Code == code {
			return p, true
		}
	}
	return models.Product{}, false
}

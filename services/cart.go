package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bioshop/models"
	"bioshop/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxCartAttempts bounds the read-modify-write loop on version conflicts.
const maxCartAttempts = 5

// CartService implements the anonymous session cart.
type CartService struct {
	carts    CartRepository
	products ProductReader
	ttl      time.Duration
	currency string
	log      *zap.Logger
	now      func() time.Time
}

func NewCartService(carts CartRepository, products ProductReader, ttl time.Duration, currency string, log *zap.Logger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		ttl:      ttl,
		currency: currency,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the session's cart, creating an empty active one on first use.
func (s *CartService) Get(ctx context.Context, token string) (*models.Cart, error) {
	cart, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.attachProducts(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// AddItem adds quantity units of a product, merging with an existing line.
func (s *CartService) AddItem(ctx context.Context, token, productID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, validation("quantity must be at least 1")
	}
	product, err := s.activeProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, token, true, func(cart *models.Cart) error {
		if cart.Status == models.CartConverted {
			cart.Reactivate()
		}
		if i := cart.IndexOfProduct(product.ID); i >= 0 {
			cart.Items[i].Quantity += quantity
			return nil
		}
		cart.Items = append(cart.Items, models.NewCartItem(product, quantity, s.now()))
		return nil
	})
}

// UpdateItem sets the quantity of one line of the caller's cart.
func (s *CartService) UpdateItem(ctx context.Context, token, itemID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, validation("quantity must be at least 1")
	}
	id, err := primitive.ObjectIDFromHex(itemID)
	if err != nil {
		return nil, notFound("cart item not found")
	}
	return s.mutate(ctx, token, false, func(cart *models.Cart) error {
		i := cart.IndexOfItem(id)
		if i < 0 {
			return notFound("cart item not found")
		}
		cart.Items[i].Quantity = quantity
		return nil
	})
}

// RemoveItem deletes one line of the caller's cart.
func (s *CartService) RemoveItem(ctx context.Context, token, itemID string) (*models.Cart, error) {
	id, err := primitive.ObjectIDFromHex(itemID)
	if err != nil {
		return nil, notFound("cart item not found")
	}
	return s.mutate(ctx, token, false, func(cart *models.Cart) error {
		i := cart.IndexOfItem(id)
		if i < 0 {
			return notFound("cart item not found")
		}
		cart.RemoveAt(i)
		return nil
	})
}

// Clear empties the caller's cart.
func (s *CartService) Clear(ctx context.Context, token string) (*models.Cart, error) {
	return s.mutate(ctx, token, true, func(cart *models.Cart) error {
		cart.Clear()
		return nil
	})
}

func (s *CartService) activeProduct(ctx context.Context, productID string) (*models.Product, error) {
	id, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, notFound("product not found")
	}
	product, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "product not found")
	}
	if !product.Active {
		return nil, notFound("product not found")
	}
	return product, nil
}

// load finds the session's cart or creates it. Two requests racing to create
// the same cart collide on the unique session index; the loser re-reads.
func (s *CartService) load(ctx context.Context, token string) (*models.Cart, error) {
	cart, err := s.carts.FindBySession(ctx, token)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	cart = models.NewCart(token, s.currency, s.now(), s.ttl)
	err = s.carts.Insert(ctx, cart)
	if errors.Is(err, store.ErrDuplicate) {
		if cart, err = s.carts.FindBySession(ctx, token); err != nil {
			return nil, fmt.Errorf("load cart: %w", err)
		}
		return cart, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return cart, nil
}

// mutate runs fn against a fresh copy of the cart and saves it, retrying
// when another request saved the cart in between. With create unset a
// missing cart means the item cannot be in it.
func (s *CartService) mutate(ctx context.Context, token string, create bool, fn func(*models.Cart) error) (*models.Cart, error) {
	for attempt := 1; attempt <= maxCartAttempts; attempt++ {
		var (
			cart *models.Cart
			err  error
		)
		if create {
			cart, err = s.load(ctx, token)
		} else {
			cart, err = s.carts.FindBySession(ctx, token)
			err = orNotFound(err, "cart item not found")
		}
		if err != nil {
			return nil, err
		}

		if err := fn(cart); err != nil {
			return nil, err
		}
		// Any change revives a cart flagged abandoned by the expiry sweep.
		if cart.Status == models.CartAbandoned {
			cart.Status = models.CartActive
		}
		cart.Recalculate()
		cart.ExpiresAt = s.now().Add(s.ttl)

		err = s.carts.Save(ctx, cart)
		if err == nil {
			if err := s.attachProducts(ctx, cart); err != nil {
				return nil, err
			}
			return cart, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return nil, fmt.Errorf("save cart: %w", err)
		}
		s.log.Debug("cart modified concurrently, retrying",
			zap.String("cart_id", cart.ID.Hex()),
			zap.Int("attempt", attempt))
	}
	return nil, fmt.Errorf("%w: cart was modified concurrently, please retry", ErrConflict)
}

// attachProducts joins each line to the live product it was taken from.
// Lines whose product was deleted keep a nil Product.
func (s *CartService) attachProducts(ctx context.Context, cart *models.Cart) error {
	ids := cart.ProductIDs()
	if len(ids) == 0 {
		return nil
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load cart products: %w", err)
	}
	for i := range cart.Items {
		if p, ok := products[cart.Items[i].ProductID]; ok {
			cart.Items[i].Product = p.Summary()
		}
	}
	return nil
}

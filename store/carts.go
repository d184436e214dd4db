package store

import (
	"context"
	"time"

	"bioshop/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CartStore persists carts. Line items are embedded in the cart document and
// every write is guarded by the cart's version.
type CartStore struct {
	coll *mongo.Collection
}

func NewCartStore(db *DB) *CartStore {
	return &CartStore{coll: db.Collection(CartsCollection)}
}

func (s *CartStore) FindBySession(ctx context.Context, sessionID string) (*models.Cart, error) {
	var cart models.Cart
	if err := s.coll.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&cart); err != nil {
		return nil, translate(err)
	}
	return &cart, nil
}

// Insert stores a new cart. A second cart for the same session fails with ErrDuplicate.
func (s *CartStore) Insert(ctx context.Context, cart *models.Cart) error {
	_, err := s.coll.InsertOne(ctx, cart)
	return translate(err)
}

// Save writes cart back if nobody else changed it since it was read, then
// bumps cart.Version. A stale cart fails with ErrVersionConflict.
func (s *CartStore) Save(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now().UTC()
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": cart.ID, "version": cart.Version},
		bson.M{
			"$set": bson.M{
				"status":     cart.Status,
				"items":      cart.Items,
				"subtotal":   cart.Subtotal,
				"total":      cart.Total,
				"currency":   cart.Currency,
				"expires_at": cart.ExpiresAt,
				"updated_at": cart.UpdatedAt,
			},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	cart.Version++
	return nil
}

// MarkAbandoned flags active carts whose expiry has passed. Expired carts are
// kept; the flag only feeds reporting.
func (s *CartStore) MarkAbandoned(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.coll.UpdateMany(ctx,
		bson.M{"status": models.CartActive, "expires_at": bson.M{"$lt": now}},
		bson.M{
			"$set": bson.M{"status": models.CartAbandoned, "updated_at": now},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

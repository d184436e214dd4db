package store

import (
	"context"
	"time"

	"bioshop/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OrderStore persists orders. Orders are never deleted; only their statuses change.
type OrderStore struct {
	coll *mongo.Collection
}

func NewOrderStore(db *DB) *OrderStore {
	return &OrderStore{coll: db.Collection(OrdersCollection)}
}

// Insert stores order with a fresh id. A reused order number fails with ErrDuplicate.
func (s *OrderStore) Insert(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, order)
	return translate(err)
}

func (s *OrderStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// List returns the newest orders matching f.
func (s *OrderStore) List(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	filter := bson.M{}
	if f.CustomerEmail != "" {
		filter["customer.email"] = f.CustomerEmail
	}
	if f.OrderNumber != "" {
		filter["order_number"] = f.OrderNumber
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if created := timeRange(f.From, f.To); created != nil {
		filter["created_at"] = created
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus applies the non-nil fields of u and returns the updated order.
func (s *OrderStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, u models.OrderStatusUpdate) (*models.Order, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if u.PaymentStatus != nil {
		set["payment_status"] = *u.PaymentStatus
	}
	if u.FulfillmentStatus != nil {
		set["fulfillment_status"] = *u.FulfillmentStatus
	}

	var order models.Order
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func timeRange(from, to time.Time) bson.M {
	if from.IsZero() && to.IsZero() {
		return nil
	}
	r := bson.M{}
	if !from.IsZero() {
		r["$gte"] = from
	}
	if !to.IsZero() {
		r["$lt"] = to
	}
	return r
}

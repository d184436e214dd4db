package store

import (
	"context"
	"time"

	"bioshop/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AnalyticsStore runs the reporting aggregations.
type AnalyticsStore struct {
	orders    *mongo.Collection
	inquiries *mongo.Collection
}

func NewAnalyticsStore(db *DB) *AnalyticsStore {
	return &AnalyticsStore{
		orders:    db.Collection(OrdersCollection),
		inquiries: db.Collection(InquiriesCollection),
	}
}

// Summary aggregates orders and inquiries created in [from, to).
func (s *AnalyticsStore) Summary(ctx context.Context, from, to time.Time) (*models.SalesSummary, error) {
	cond := bson.M{}
	if created := timeRange(from, to); created != nil {
		cond["created_at"] = created
	}
	match := bson.D{{Key: "$match", Value: cond}}
	sum := &models.SalesSummary{From: from, To: to}

	byStatus := mongo.Pipeline{
		match,
		{{Key: "$group", Value: bson.M{
			"_id":     "$status",
			"orders":  bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": "$total"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	if err := aggregate(ctx, s.orders, byStatus, &sum.ByStatus); err != nil {
		return nil, err
	}

	byDay := mongo.Pipeline{
		match,
		{{Key: "$group", Value: bson.M{
			"_id":     bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$created_at"}},
			"orders":  bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": "$total"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	if err := aggregate(ctx, s.orders, byDay, &sum.ByDay); err != nil {
		return nil, err
	}

	inquiries := mongo.Pipeline{
		match,
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	if err := aggregate(ctx, s.inquiries, inquiries, &sum.Inquiries); err != nil {
		return nil, err
	}

	for _, b := range sum.ByStatus {
		sum.Orders += b.Orders
		if b.Status != string(models.OrderCancelled) {
			sum.Revenue = sum.Revenue.Add(b.Revenue)
		}
	}
	return sum, nil
}

func aggregate[T any](ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline, out *[]T) error {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	*out = []T{}
	return cursor.All(ctx, out)
}

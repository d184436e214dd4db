package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func unique(keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
}

func index(keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys}
}

// indexes lists the indexes each collection needs. The unique ones back
// invariants: one cart per session, one order per number.
var indexes = map[string][]mongo.IndexModel{
	CartsCollection: {
		unique(bson.D{{Key: "session_id", Value: 1}}),
		index(bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}}),
	},
	OrdersCollection: {
		unique(bson.D{{Key: "order_number", Value: 1}}),
		index(bson.D{{Key: "customer.email", Value: 1}, {Key: "created_at", Value: -1}}),
		index(bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}),
	},
	ProductsCollection: {
		unique(bson.D{{Key: "code", Value: 1}}),
		unique(bson.D{{Key: "slug", Value: 1}}),
		index(bson.D{{Key: "active", Value: 1}, {Key: "category", Value: 1}}),
	},
	BlogCollection:     {unique(bson.D{{Key: "slug", Value: 1}})},
	UsersCollection:    {unique(bson.D{{Key: "email", Value: 1}})},
	RolesCollection:    {unique(bson.D{{Key: "name", Value: 1}})},
	SettingsCollection: {unique(bson.D{{Key: "key", Value: 1}})},
	ReviewsCollection: {
		index(bson.D{{Key: "product_id", Value: 1}, {Key: "status", Value: 1}}),
	},
	ReviewImagesCollection:    {index(bson.D{{Key: "review_id", Value: 1}})},
	ReviewResponsesCollection: {index(bson.D{{Key: "review_id", Value: 1}})},
	InquiriesCollection:       {index(bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}})},
}

// EnsureIndexes creates any missing index. It is safe to run repeatedly.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	for name, ims := range indexes {
		if _, err := d.Collection(name).Indexes().CreateMany(ctx, ims); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CounterStore hands out monotonically increasing sequence numbers.
type CounterStore struct {
	coll *mongo.Collection
}

func NewCounterStore(db *DB) *CounterStore {
	return &CounterStore{coll: db.Collection(CountersCollection)}
}

// Next atomically increments the named counter and returns the new value.
// The first call for a name returns 1.
func (s *CounterStore) Next(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, translate(err)
	}
	return doc.Seq, nil
}

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

// Query selects a page of documents. A zero Limit returns everything.
type Query struct {
	Filter bson.M
	Sort   bson.D
	Page   int
	Limit  int
}

// Collection is the uniform CRUD contract shared by the back-office entities.
// Writes are last-write-wins.
type Collection[T any, PT interface {
	*T
	models.Document
}] struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewCollection[T any, PT interface {
	*T
	models.Document
}](db *DB, name string) *Collection[T, PT] {
	return &Collection[T, PT]{
		coll: db.Collection(name),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Raw exposes the underlying collection for queries the contract doesn't cover.
func (c *Collection[T, PT]) Raw() *mongo.Collection { return c.coll }

// List returns one page of matching documents and the total match count.
func (c *Collection[T, PT]) List(ctx context.Context, q Query) ([]T, int64, error) {
	filter := q.Filter
	if filter == nil {
		filter = bson.M{}
	}
	total, err := c.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find()
	if q.Sort != nil {
		opts.SetSort(q.Sort)
	} else {
		opts.SetSort(bson.D{{Key: "created_at", Value: -1}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
		if q.Page > 1 {
			opts.SetSkip(int64((q.Page - 1) * q.Limit))
		}
	}
	cursor, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	items := []T{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (c *Collection[T, PT]) Get(ctx context.Context, id primitive.ObjectID) (*T, error) {
	return c.FindOne(ctx, bson.M{"_id": id})
}

func (c *Collection[T, PT]) FindOne(ctx context.Context, filter bson.M) (*T, error) {
	var doc T
	if err := c.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

// Create assigns a fresh id and both timestamps, ignoring whatever the caller set.
func (c *Collection[T, PT]) Create(ctx context.Context, doc PT) error {
	b := doc.BaseDoc()
	now := c.now()
	b.ID = primitive.NewObjectID()
	b.CreatedAt = now
	b.UpdatedAt = now
	_, err := c.coll.InsertOne(ctx, doc)
	return translate(err)
}

// Update replaces the document stored under id, preserving its creation time.
func (c *Collection[T, PT]) Update(ctx context.Context, id primitive.ObjectID, doc PT) error {
	existing, err := c.Get(ctx, id)
	if err != nil {
		return err
	}
	b := doc.BaseDoc()
	b.ID = id
	b.CreatedAt = PT(existing).BaseDoc().CreatedAt
	b.UpdatedAt = c.now()

	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Collection[T, PT]) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Collection[T, PT]) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

package store

import (
	"context"
	"regexp"
	"time"

	"bioshop/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductStore is the catalog. Cart and order code only reads it.
type ProductStore struct {
	*Collection[models.Product, *models.Product]
}

func NewProductStore(db *DB) *ProductStore {
	return &ProductStore{Collection: NewCollection[models.Product](db, ProductsCollection)}
}

// ProductFilter narrows the public catalog listing.
type ProductFilter struct {
	Category string
	Search   string
	Featured bool
	// IncludeInactive is only set by back-office listings.
	IncludeInactive bool
}

// Filter builds the query document for f.
func (f ProductFilter) Filter() bson.M {
	filter := bson.M{}
	if !f.IncludeInactive {
		filter["active"] = true
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Featured {
		filter["featured"] = true
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": rx},
			bson.M{"code": rx},
			bson.M{"description": rx},
		}
	}
	return filter
}

// FindByIDs returns the products that still exist among ids, keyed by id.
func (s *ProductStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	out := make(map[primitive.ObjectID]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

// FindBySlugOrID resolves a public product reference, which may be either.
func (s *ProductStore) FindBySlugOrID(ctx context.Context, ref string) (*models.Product, error) {
	if id, err := primitive.ObjectIDFromHex(ref); err == nil {
		return s.Get(ctx, id)
	}
	return s.FindOne(ctx, bson.M{"slug": ref})
}

// UpsertByCode inserts p or replaces the product with the same code.
// It reports whether a new product was created.
func (s *ProductStore) UpsertByCode(ctx context.Context, p *models.Product) (bool, error) {
	now := time.Now().UTC()
	p.UpdatedAt = now
	set := bson.M{
		"name":        p.Name,
		"slug":        p.Slug,
		"category":    p.Category,
		"description": p.Description,
		"price":       p.Price,
		"currency":    p.Currency,
		"active":      p.Active,
		"updated_at":  now,
	}
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"code": p.Code},
		bson.M{
			"$set": set,
			"$setOnInsert": bson.M{
				"code":       p.Code,
				"featured":   false,
				"images":     bson.A{},
				"created_at": now,
			},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		return false, translate(err)
	}
	if id, ok := res.UpsertedID.(primitive.ObjectID); ok {
		p.ID = id
		p.CreatedAt = now
		return true, nil
	}
	return false, nil
}

package store

import (
	"context"
	"time"

	"bioshop/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SettingStore keeps site settings, one document per key.
type SettingStore struct {
	*Collection[models.Setting, *models.Setting]
}

func NewSettingStore(db *DB) *SettingStore {
	return &SettingStore{Collection: NewCollection[models.Setting](db, SettingsCollection)}
}

// Upsert writes the value for s.Key, creating the setting when missing.
func (st *SettingStore) Upsert(ctx context.Context, s *models.Setting) (*models.Setting, error) {
	now := time.Now().UTC()
	var out models.Setting
	err := st.coll.FindOneAndUpdate(ctx,
		bson.M{"key": s.Key},
		bson.M{
			"$set": bson.M{
				"value":      s.Value,
				"group":      s.Group,
				"public":     s.Public,
				"updated_at": now,
			},
			"$setOnInsert": bson.M{"_id": primitive.NewObjectID(), "created_at": now},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// Public returns the settings exposed to the storefront as a key/value map.
func (st *SettingStore) Public(ctx context.Context) (map[string]string, error) {
	items, _, err := st.List(ctx, Query{Filter: bson.M{"public": true}, Sort: bson.D{{Key: "key", Value: 1}}})
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(items))
	for _, s := range items {
		out[s.Key] = s.Value
	}
	return out, nil
}

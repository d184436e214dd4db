package store

import (
	"context"
	"strings"
	"time"

	"bioshop/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStore keeps back-office accounts. Passwords are stored as bcrypt hashes.
type UserStore struct {
	*Collection[models.User, *models.User]
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{Collection: NewCollection[models.User](db, UsersCollection)}
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

// UpdateFields sets only the given fields, leaving the password hash alone
// unless it is among them.
func (s *UserStore) UpdateFields(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	set["updated_at"] = time.Now().UTC()
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return nil, translate(err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *UserStore) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_login_at": at}})
	return err
}

// RoleStore keeps the named permission sets.
type RoleStore struct {
	*Collection[models.Role, *models.Role]
}

func NewRoleStore(db *DB) *RoleStore {
	return &RoleStore{Collection: NewCollection[models.Role](db, RolesCollection)}
}

func (s *RoleStore) FindByName(ctx context.Context, name string) (*models.Role, error) {
	return s.FindOne(ctx, bson.M{"name": strings.ToLower(name)})
}

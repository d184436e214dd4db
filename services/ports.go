package services

import (
	"context"
	"io"
	"time"

	"bioshop/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The interfaces below are satisfied by the store package and by the
// in-memory fakes in testutil.

type CartRepository interface {
	FindBySession(ctx context.Context, sessionID string) (*models.Cart, error)
	Insert(ctx context.Context, cart *models.Cart) error
	Save(ctx context.Context, cart *models.Cart) error
}

type ProductReader interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error)
}

type ProductUpserter interface {
	UpsertByCode(ctx context.Context, p *models.Product) (bool, error)
}

type OrderRepository interface {
	Insert(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	List(ctx context.Context, f models.OrderFilter) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, u models.OrderStatusUpdate) (*models.Order, error)
}

type Sequencer interface {
	Next(ctx context.Context, name string) (int64, error)
}

type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserRepository interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	UpdateFields(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error)
	TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

type RoleReader interface {
	FindByName(ctx context.Context, name string) (*models.Role, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, r *models.Review) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	ListForProduct(ctx context.Context, productID primitive.ObjectID, status models.ReviewStatus) ([]models.Review, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.ReviewStatus) error
	AddImage(ctx context.Context, img *models.ReviewImage) error
	AddResponse(ctx context.Context, resp *models.ReviewResponse) error
	DeleteCascade(ctx context.Context, id primitive.ObjectID) error
}

type MediaRepository interface {
	Create(ctx context.Context, m *models.Media) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Media, error)
	Update(ctx context.Context, id primitive.ObjectID, m *models.Media) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type BackupRepository interface {
	Create(ctx context.Context, b *models.Backup) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Backup, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type Dumper interface {
	Dump(ctx context.Context, collection string, w io.Writer) (int64, error)
}

type SummaryReader interface {
	Summary(ctx context.Context, from, to time.Time) (*models.SalesSummary, error)
}

package store

import (
	"context"
	"fmt"

	"bioshop/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Collection names.
const (
	CartsCollection           = "carts"
	OrdersCollection          = "orders"
	CountersCollection        = "counters"
	ProductsCollection        = "products"
	BlogCollection            = "blog_posts"
	InquiriesCollection       = "inquiries"
	MediaCollection           = "media"
	RolesCollection           = "roles"
	UsersCollection           = "users"
	SettingsCollection        = "settings"
	ReviewsCollection         = "reviews"
	ReviewImagesCollection    = "review_images"
	ReviewResponsesCollection = "review_responses"
	BackupsCollection         = "backups"
)

// DB wraps the database handle shared by every store.
type DB struct {
	db           *mongo.Database
	transactions bool
}

// Connect dials MongoDB and verifies the connection.
func Connect(ctx context.Context, cfg config.MongoConfig, log *zap.Logger) (*DB, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetRegistry(Registry())
	if cfg.Timeout > 0 {
		opts.SetTimeout(cfg.Timeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	log.Info("connected to MongoDB",
		zap.String("database", cfg.Database),
		zap.Bool("transactions", cfg.Transactions))
	return New(client.Database(cfg.Database), cfg.Transactions), nil
}

// New wraps an existing database. The client must have been built with Registry.
func New(db *mongo.Database, transactions bool) *DB {
	return &DB{db: db, transactions: transactions}
}

func (d *DB) Database() *mongo.Database { return d.db }

func (d *DB) Collection(name string) *mongo.Collection { return d.db.Collection(name) }

func (d *DB) Ping(ctx context.Context) error {
	return d.db.Client().Ping(ctx, readpref.Primary())
}

func (d *DB) Close(ctx context.Context) error {
	return d.db.Client().Disconnect(ctx)
}

// WithTransaction runs fn inside a multi-document transaction. The driver
// retries fn on transient transaction errors, so fn must be idempotent.
// With transactions disabled fn simply runs against ctx.
func (d *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !d.transactions {
		return fn(ctx)
	}
	sess, err := d.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

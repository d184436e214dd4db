package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bioshop/config"
	"bioshop/controllers"
	"bioshop/events"
	"bioshop/models"
	"bioshop/routes"
	"bioshop/services"
	"bioshop/store"
	"bioshop/utils"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// app holds the connected database and every service built on it.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	store *store.Store

	publisher      events.Publisher
	closePublisher func()

	tokens    *utils.TokenIssuer
	localizer *utils.Localizer

	auth      *services.AuthService
	carts     *services.CartService
	orders    *services.OrderService
	catalog   *services.CatalogService
	reviews   *services.ReviewService
	media     *services.MediaService
	backups   *services.BackupService
	analytics *services.AnalyticsService
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.Timeout)
	defer cancel()
	db, err := store.Connect(connectCtx, cfg.Mongo, log)
	if err != nil {
		return nil, err
	}
	st := store.NewStore(db)

	mailer, err := utils.NewMailer(cfg.Mail, log)
	if err != nil {
		_ = db.Close(context.Background())
		return nil, err
	}
	publisher, closePublisher, err := events.New(cfg.RabbitMQ, log)
	if err != nil {
		_ = db.Close(context.Background())
		return nil, err
	}
	localizer, err := utils.NewLocalizer(cfg.Locales)
	if err != nil {
		closePublisher()
		_ = db.Close(context.Background())
		return nil, err
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		// Only reachable in dev; tokens stop working on restart.
		secret = uuid.NewString()
		log.Warn("JWT_SECRET is not set, using a random secret")
	}
	tokens := utils.NewTokenIssuer(secret, cfg.Auth.TokenTTL)
	currency := cfg.Pricing.Currency

	return &app{
		cfg:            cfg,
		log:            log,
		store:          st,
		publisher:      publisher,
		closePublisher: closePublisher,
		tokens:         tokens,
		localizer:      localizer,
		auth:           services.NewAuthService(st.Users, st.Roles, tokens, log),
		carts:          services.NewCartService(st.Carts, st.Products, cfg.Cart.TTL(), currency, log),
		orders: services.NewOrderService(services.OrderDeps{
			Tx:        db,
			Carts:     st.Carts,
			Orders:    st.Orders,
			Sequence:  st.Counters,
			Pricing:   services.NewPricing(cfg.Pricing),
			Currency:  currency,
			Mailer:    mailer,
			Publisher: publisher,
			Notify:    cfg.Mail.Notify,
			Log:       log,
		}),
		catalog:   services.NewCatalogService(st.Products, currency, log),
		reviews:   services.NewReviewService(st.Reviews, st.Products, log),
		media:     services.NewMediaService(st.Media, cfg.Storage.UploadDir, cfg.Storage.UploadURL, log),
		backups:   services.NewBackupService(db, st.Backups, cfg.Storage.BackupDir, store.BackupCollections, log),
		analytics: services.NewAnalyticsService(st.Analytics),
	}, nil
}

// handler builds the HTTP router.
func (a *app) handler() http.Handler {
	st, log := a.store, a.log
	router := mux.NewRouter()
	routes.RegisterRoutes(router, &routes.Handlers{
		Cart:      controllers.NewCartController(a.carts, log),
		Order:     controllers.NewOrderController(a.orders, log),
		Product:   controllers.NewProductController(st.Products, a.catalog, a.localizer, a.cfg.Storage.MaxUploadBytes, log),
		User:      controllers.NewUserController(a.auth, log),
		Blog:      controllers.NewBlogController(st.Blog, a.localizer, log),
		Inquiry:   controllers.NewInquiryController(st.Inquiries, log),
		Setting:   controllers.NewSettingController(st.Settings, log),
		Media:     controllers.NewMediaController(a.media, a.cfg.Storage.MaxUploadBytes, log),
		Review:    controllers.NewReviewController(a.reviews, log),
		Backup:    controllers.NewBackupController(a.backups, log),
		Analytics: controllers.NewAnalyticsController(a.analytics, log),
		Health:    controllers.Health(st.DB, log),

		Products:  controllers.NewResource[models.Product](st.Products, controllers.ProductFilter, log),
		Posts:     controllers.NewResource[models.BlogPost](st.Blog, nil, log),
		Inquiries: controllers.NewResource[models.Inquiry](st.Inquiries, controllers.StatusFilter, log),
		MediaLib:  controllers.NewResource[models.Media](st.Media, controllers.FolderFilter, log),
		Roles:     controllers.NewResource[models.Role](st.Roles, nil, log),
		Users:     controllers.NewResource[models.User](st.Users, nil, log),
		Settings:  controllers.NewResource[models.Setting](st.Settings, controllers.GroupFilter, log),
		Reviews:   controllers.NewResource[models.Review](st.Reviews, controllers.ReviewFilter, log),
		Backups:   controllers.NewResource[models.Backup](st.Backups, nil, log),

		Tokens:       a.tokens,
		Permissions:  a.auth,
		CartTTL:      a.cfg.Cart.TTL(),
		CookieSecure: a.cfg.Cart.CookieSecure,
		UploadDir:    a.cfg.Storage.UploadDir,
		UploadURL:    a.cfg.Storage.UploadURL,
		Log:          log,
	})
	return router
}

func (a *app) close() {
	a.closePublisher()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.store.DB.Close(ctx); err != nil {
		a.log.Warn("disconnect from MongoDB", zap.Error(err))
	}
}

// withApp connects, runs fn and disconnects.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer a.close()
	return fn(ctx, a)
}

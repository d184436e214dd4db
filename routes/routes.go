// Package routes wires the HTTP surface onto a gorilla/mux router.
package routes

import (
	"net/http"
	"strings"
	"time"

	"bioshop/controllers"
	"bioshop/middleware"
	"bioshop/models"
	"bioshop/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// resource is the uniform admin CRUD surface of controllers.Resource.
type resource interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

// Handlers collects everything RegisterRoutes mounts.
type Handlers struct {
	Cart      *controllers.CartController
	Order     *controllers.OrderController
	Product   *controllers.ProductController
	User      *controllers.UserController
	Blog      *controllers.BlogController
	Inquiry   *controllers.InquiryController
	Setting   *controllers.SettingController
	Media     *controllers.MediaController
	Review    *controllers.ReviewController
	Backup    *controllers.BackupController
	Analytics *controllers.AnalyticsController
	Health    http.HandlerFunc

	Products  resource
	Posts     resource
	Inquiries resource
	MediaLib  resource
	Roles     resource
	Users     resource
	Settings  resource
	Reviews   resource
	Backups   resource

	Tokens       *utils.TokenIssuer
	Permissions  middleware.PermissionChecker
	CartTTL      time.Duration
	CookieSecure bool
	UploadDir    string
	UploadURL    string
	Log          *zap.Logger
}

// RegisterRoutes sets up all the routes for the application.
func RegisterRoutes(router *mux.Router, h *Handlers) {
	router.Use(middleware.RequestID, middleware.RequestLogger(h.Log), middleware.Recover(h.Log))

	router.HandleFunc("/healthz", h.Health).Methods("GET")
	if h.UploadURL != "" {
		prefix := strings.TrimSuffix(h.UploadURL, "/") + "/"
		router.PathPrefix(prefix).Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(h.UploadDir)))).Methods("GET")
	}

	api := router.PathPrefix("/api").Subrouter()

	// Cart and checkout share the anonymous session cookie.
	session := api.NewRoute().Subrouter()
	session.Use(middleware.CartSession(h.CartTTL, h.CookieSecure))
	session.HandleFunc("/cart", h.Cart.GetCart).Methods("GET")
	session.HandleFunc("/cart", h.Cart.AddToCart).Methods("POST")
	session.HandleFunc("/cart", h.Cart.ClearCart).Methods("DELETE")
	session.HandleFunc("/cart/{itemId}", h.Cart.UpdateCartItem).Methods("PATCH")
	session.HandleFunc("/cart/{itemId}", h.Cart.RemoveFromCart).Methods("DELETE")
	session.HandleFunc("/orders", h.Order.CreateOrder).Methods("POST")
	session.HandleFunc("/orders/{id}", h.Order.GetOrder).Methods("GET")

	// Public routes
	api.HandleFunc("/orders", h.Order.GetOrders).Methods("GET")
	api.HandleFunc("/products", h.Product.GetProducts).Methods("GET")
	api.HandleFunc("/products/{id}", h.Product.GetProductByID).Methods("GET")
	api.HandleFunc("/products/{id}/reviews", h.Review.GetProductReviews).Methods("GET")
	api.HandleFunc("/products/{id}/reviews", h.Review.SubmitReview).Methods("POST")
	api.HandleFunc("/blog", h.Blog.GetPosts).Methods("GET")
	api.HandleFunc("/blog/{slug}", h.Blog.GetPost).Methods("GET")
	api.HandleFunc("/inquiries", h.Inquiry.SubmitInquiry).Methods("POST")
	api.HandleFunc("/settings", h.Setting.GetPublicSettings).Methods("GET")
	api.HandleFunc("/auth/login", h.User.Login).Methods("POST")

	// Protected routes
	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.Auth(h.Tokens))
	protected.HandleFunc("/auth/profile", h.User.GetProfile).Methods("GET")

	// Admin routes
	admin := func(perm string) *mux.Router {
		sub := api.PathPrefix("/admin").Subrouter()
		sub.Use(middleware.Auth(h.Tokens), middleware.RequirePermission(h.Permissions, perm))
		return sub
	}

	products := admin(models.PermProductsWrite)
	products.HandleFunc("/products/import", h.Product.ImportProducts).Methods("POST")
	crud(products, "/products", h.Products)

	crud(admin(models.PermBlogWrite), "/blog", h.Posts)
	crud(admin(models.PermInquiriesWrite), "/inquiries", h.Inquiries)

	media := admin(models.PermMediaWrite)
	media.HandleFunc("/media", h.MediaLib.List).Methods("GET")
	media.HandleFunc("/media", h.Media.UploadMedia).Methods("POST")
	media.HandleFunc("/media/{id}", h.MediaLib.Get).Methods("GET")
	media.HandleFunc("/media/{id}", h.Media.UpdateMedia).Methods("PUT")
	media.HandleFunc("/media/{id}", h.Media.DeleteMedia).Methods("DELETE")

	users := admin(models.PermUsersWrite)
	crud(users, "/roles", h.Roles)
	users.HandleFunc("/users", h.Users.List).Methods("GET")
	users.HandleFunc("/users", h.User.CreateUser).Methods("POST")
	users.HandleFunc("/users/{id}", h.Users.Get).Methods("GET")
	users.HandleFunc("/users/{id}", h.User.UpdateUser).Methods("PUT")
	users.HandleFunc("/users/{id}", h.Users.Delete).Methods("DELETE")

	settings := admin(models.PermSettingsWrite)
	settings.HandleFunc("/settings", h.Settings.List).Methods("GET")
	settings.HandleFunc("/settings/{key}", h.Setting.UpsertSetting).Methods("PUT")
	settings.HandleFunc("/settings/{id}", h.Settings.Delete).Methods("DELETE")

	reviews := admin(models.PermReviewsWrite)
	reviews.HandleFunc("/reviews", h.Reviews.List).Methods("GET")
	reviews.HandleFunc("/reviews/{id}", h.Reviews.Get).Methods("GET")
	reviews.HandleFunc("/reviews/{id}", h.Review.ModerateReview).Methods("PATCH")
	reviews.HandleFunc("/reviews/{id}", h.Review.DeleteReview).Methods("DELETE")
	reviews.HandleFunc("/reviews/{id}/responses", h.Review.RespondToReview).Methods("POST")

	ordersRead := admin(models.PermOrdersRead)
	ordersRead.HandleFunc("/orders", h.Order.ListOrders).Methods("GET")
	ordersRead.HandleFunc("/orders/{id}", h.Order.AdminGetOrder).Methods("GET")

	orders := admin(models.PermOrdersWrite)
	orders.HandleFunc("/orders/{id}", h.Order.UpdateOrderStatus).Methods("PATCH")

	backups := admin(models.PermBackupsWrite)
	backups.HandleFunc("/backups", h.Backups.List).Methods("GET")
	backups.HandleFunc("/backups", h.Backup.CreateBackup).Methods("POST")
	backups.HandleFunc("/backups/{id}", h.Backups.Get).Methods("GET")
	backups.HandleFunc("/backups/{id}", h.Backup.DeleteBackup).Methods("DELETE")

	admin(models.PermAnalyticsRead).HandleFunc("/analytics", h.Analytics.GetSummary).Methods("GET")
}

func crud(r *mux.Router, path string, res resource) {
	r.HandleFunc(path, res.List).Methods("GET")
	r.HandleFunc(path, res.Create).Methods("POST")
	r.HandleFunc(path+"/{id}", res.Get).Methods("GET")
	r.HandleFunc(path+"/{id}", res.Update).Methods("PUT")
	r.HandleFunc(path+"/{id}", res.Delete).Methods("DELETE")
}

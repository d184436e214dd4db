package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bioshop/config"
	"bioshop/controllers"
	"bioshop/models"
	"bioshop/services"
	"bioshop/testutil"
	"bioshop/utils"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type pinger struct{ err error }

func (p *pinger) Ping(context.Context) error { return p.err }

type settings struct{ public map[string]string }

func (s *settings) Public(context.Context) (map[string]string, error) { return s.public, nil }

func (s *settings) Upsert(_ context.Context, st *models.Setting) (*models.Setting, error) {
	if st.Public {
		s.public[st.Key] = st.Value
	}
	return st, nil
}

type summaries struct{}

func (summaries) Summary(_ context.Context, from, to time.Time) (*models.SalesSummary, error) {
	return &models.SalesSummary{From: from, To: to}, nil
}

type env struct {
	router    *mux.Router
	carts     *testutil.Carts
	products  *testutil.Products
	orders    *testutil.Orders
	mailer    *testutil.Mailer
	publisher *testutil.Publisher
	inquiries *testutil.Collection[models.Inquiry, *models.Inquiry]
	media     *testutil.Collection[models.Media, *models.Media]
	db        *pinger
	auth      *services.AuthService
	tokens    *utils.TokenIssuer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := zap.NewNop()
	e := &env{
		carts:     testutil.NewCarts(),
		products:  testutil.NewProducts(),
		orders:    testutil.NewOrders(),
		mailer:    &testutil.Mailer{},
		publisher: &testutil.Publisher{},
		inquiries: testutil.NewCollection[models.Inquiry](),
		media:     testutil.NewCollection[models.Media](),
		db:        &pinger{},
		tokens:    utils.NewTokenIssuer("test-secret", time.Hour),
	}
	localizer, err := utils.NewLocalizer([]string{"en", "hi", "ta"})
	require.NoError(t, err)

	roles := testutil.NewRoles(models.Role{Name: "viewer", Permissions: []string{models.PermOrdersRead}})
	e.auth = services.NewAuthService(testutil.NewUsers(), roles, e.tokens, log)
	carts := services.NewCartService(e.carts, e.products, 30*24*time.Hour, "INR", log)
	orders := services.NewOrderService(services.OrderDeps{
		Tx:        testutil.NewTx(e.carts, e.orders),
		Carts:     e.carts,
		Orders:    e.orders,
		Sequence:  testutil.NewSequence(),
		Pricing:   services.NewPricing(config.Default().Pricing),
		Currency:  "INR",
		Mailer:    e.mailer,
		Publisher: e.publisher,
		Log:       log,
	})
	reviews := testutil.NewReviews()
	mediaRepo := e.media
	backupRepo := testutil.NewCollection[models.Backup]()
	posts := testutil.NewCollection[models.BlogPost]()
	posts.Match = func(f map[string]any, p *models.BlogPost) bool {
		if slug, ok := f["slug"]; ok && slug != p.Slug {
			return false
		}
		return !(f["published"] == true && !p.Published)
	}

	e.router = mux.NewRouter()
	RegisterRoutes(e.router, &Handlers{
		Cart:      controllers.NewCartController(carts, log),
		Order:     controllers.NewOrderController(orders, log),
		Product:   controllers.NewProductController(e.products, services.NewCatalogService(e.products, "INR", log), localizer, 1<<20, log),
		User:      controllers.NewUserController(e.auth, log),
		Blog:      controllers.NewBlogController(posts, localizer, log),
		Inquiry:   controllers.NewInquiryController(e.inquiries, log),
		Setting:   controllers.NewSettingController(&settings{public: map[string]string{"phone": "+91 80 1234"}}, log),
		Media:     controllers.NewMediaController(services.NewMediaService(mediaRepo, t.TempDir(), "/uploads", log), 1<<20, log),
		Review:    controllers.NewReviewController(services.NewReviewService(reviews, e.products, log), log),
		Backup:    controllers.NewBackupController(services.NewBackupService(&testutil.Dumper{}, backupRepo, t.TempDir(), []string{"orders"}, log), log),
		Analytics: controllers.NewAnalyticsController(services.NewAnalyticsService(summaries{}), log),
		Health:    controllers.Health(e.db, log),

		Products:  controllers.NewResource[models.Product](testutil.NewCollection[models.Product](), controllers.ProductFilter, log),
		Posts:     controllers.NewResource[models.BlogPost](posts, nil, log),
		Inquiries: controllers.NewResource[models.Inquiry](e.inquiries, controllers.StatusFilter, log),
		MediaLib:  controllers.NewResource[models.Media](mediaRepo, nil, log),
		Roles:     controllers.NewResource[models.Role](testutil.NewCollection[models.Role](), nil, log),
		Users:     controllers.NewResource[models.User](testutil.NewCollection[models.User](), nil, log),
		Settings:  controllers.NewResource[models.Setting](testutil.NewCollection[models.Setting](), nil, log),
		Reviews:   controllers.NewResource[models.Review](reviews, nil, log),
		Backups:   controllers.NewResource[models.Backup](backupRepo, nil, log),

		Tokens:      e.tokens,
		Permissions: e.auth,
		CartTTL:     30 * 24 * time.Hour,
		UploadDir:   t.TempDir(),
		UploadURL:   "/uploads",
		Log:         log,
	})
	return e
}

type call struct {
	method, path, body string
	cookie             *http.Cookie
	token              string
	header             http.Header
}

func (e *env) do(c call) *httptest.ResponseRecorder {
	req := httptest.NewRequest(c.method, c.path, strings.NewReader(c.body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.header {
		req.Header[k] = v
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == utils.SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestGetCartIssuesSession(t *testing.T) {
	e := newEnv(t)

	rec := e.do(call{method: "GET", path: "/api/cart"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	cart := decode[models.Cart](t, rec)
	assert.Equal(t, models.CartActive, cart.Status)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())

	again := e.do(call{method: "GET", path: "/api/cart", cookie: cookie})
	assert.Equal(t, cookie.Value, sessionCookie(t, again).Value)
	assert.Equal(t, cart.ID, decode[models.Cart](t, again).ID)
}

func TestCartLineItemFlow(t *testing.T) {
	e := newEnv(t)
	p := e.products.Add("CB-100", 100)

	rec := e.do(call{method: "POST", path: "/api/cart", body: `{"productId":"` + p.ID.Hex() + `","quantity":2}`})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookie := sessionCookie(t, rec)

	// Quantity defaults to 1 and merges into the existing line.
	rec = e.do(call{method: "POST", path: "/api/cart", body: `{"productId":"` + p.ID.Hex() + `"}`, cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode[models.Cart](t, rec)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, "300", cart.Subtotal.String())
	require.NotNil(t, cart.Items[0].Product)
	assert.Equal(t, p.ID, cart.Items[0].Product.ID)
	itemID := cart.Items[0].ID.Hex()

	rec = e.do(call{method: "PATCH", path: "/api/cart/" + itemID, body: `{"quantity":0}`, cookie: cookie})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	stored, _ := e.carts.Peek(cookie.Value)
	assert.Equal(t, 3, stored.Items[0].Quantity)

	rec = e.do(call{method: "PATCH", path: "/api/cart/" + itemID, body: `{"quantity":5}`, cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "500", decode[models.Cart](t, rec).Total.String())

	rec = e.do(call{method: "DELETE", path: "/api/cart/" + itemID, cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	cart = decode[models.Cart](t, rec)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Subtotal.IsZero())
	assert.True(t, cart.Total.IsZero())
}

func TestAddUnknownProduct(t *testing.T) {
	e := newEnv(t)

	rec := e.do(call{method: "POST", path: "/api/cart", body: `{"productId":"000000000000000000000000","quantity":1}`})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	p := e.products.Add("CB-100", 100)
	rec = e.do(call{method: "POST", path: "/api/cart", body: `{"productId":"` + p.ID.Hex() + `","quantity":-1}`})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCrossSessionItemIsNotFound(t *testing.T) {
	e := newEnv(t)
	p := e.products.Add("CB-100", 100)

	rec := e.do(call{method: "POST", path: "/api/cart", body: `{"productId":"` + p.ID.Hex() + `","quantity":2}`})
	require.Equal(t, http.StatusOK, rec.Code)
	owner := sessionCookie(t, rec)
	itemID := decode[models.Cart](t, rec).Items[0].ID.Hex()

	rec = e.do(call{method: "GET", path: "/api/cart"})
	intruder := sessionCookie(t, rec)

	rec = e.do(call{method: "PATCH", path: "/api/cart/" + itemID, body: `{"quantity":9}`, cookie: intruder})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = e.do(call{method: "DELETE", path: "/api/cart/" + itemID, cookie: intruder})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ownerCart, _ := e.carts.Peek(owner.Value)
	require.Len(t, ownerCart.Items, 1)
	assert.Equal(t, 2, ownerCart.Items[0].Quantity)
	intruderCart, _ := e.carts.Peek(intruder.Value)
	assert.Empty(t, intruderCart.Items)
}

const checkoutBody = `{
	"customer": {"name": "Asha Rao", "email": "asha@example.com"},
	"billingAddress": {"street": "12 MG Road", "city": "Bengaluru", "zipcode": "560001", "country": "IN"}
}`

func TestCreateOrder(t *testing.T) {
	e := newEnv(t)
	p := e.products.Add("CB-100", 100)

	rec := e.do(call{method: "POST", path: "/api/cart", body: `{"productId":"` + p.ID.Hex() + `","quantity":3}`})
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)

	rec = e.do(call{method: "POST", path: "/api/orders", body: checkoutBody, cookie: cookie})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[models.Order](t, rec)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "ORD-"), order.OrderNumber)
	assert.Equal(t, "300", order.Subtotal.String())
	assert.Equal(t, "54", order.Tax.String())
	assert.Equal(t, "100", order.Shipping.String())
	assert.Equal(t, "454", order.Total.String())
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Len(t, e.orders.All(), 1)
	assert.NotEmpty(t, e.mailer.Sent())

	rec = e.do(call{method: "GET", path: "/api/cart", cookie: cookie})
	cart := decode[models.Cart](t, rec)
	assert.Equal(t, models.CartConverted, cart.Status)
	assert.Empty(t, cart.Items)

	rec = e.do(call{method: "GET", path: "/api/orders/" + order.ID.Hex(), cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, order.OrderNumber, decode[models.Order](t, rec).OrderNumber)

	rec = e.do(call{method: "GET", path: "/api/orders?customerEmail=ASHA@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Order](t, rec), 1)
}

func TestOrdersAreNotListedAnonymously(t *testing.T) {
	e := newEnv(t)
	p := e.products.Add("CB-100", 100)
	rec := e.do(call{method: "POST", path: "/api/cart", body: `{"productId":"` + p.ID.Hex() + `"}`})
	cookie := sessionCookie(t, rec)
	rec = e.do(call{method: "POST", path: "/api/orders", body: checkoutBody, cookie: cookie})
	require.Equal(t, http.StatusCreated, rec.Code)
	order := decode[models.Order](t, rec)

	rec = e.do(call{method: "GET", path: "/api/orders"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "asha@example.com")

	rec = e.do(call{method: "GET", path: "/api/orders?status=pending"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(call{method: "GET", path: "/api/orders/" + order.ID.Hex()})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "asha@example.com")

	assert.Equal(t, http.StatusUnauthorized, e.do(call{method: "GET", path: "/api/admin/orders"}).Code)

	viewer, err := e.tokens.Issue("viewer@example.com", "viewer")
	require.NoError(t, err)
	rec = e.do(call{method: "GET", path: "/api/admin/orders", token: viewer})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]models.Order](t, rec), 1)

	rec = e.do(call{method: "GET", path: "/api/admin/orders/" + order.ID.Hex(), token: viewer})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, order.OrderNumber, decode[models.Order](t, rec).OrderNumber)
}

func TestAdminMediaUpdateKeepsFilename(t *testing.T) {
	e := newEnv(t)
	m := &models.Media{Filename: "products/1_bag.png", URL: "/uploads/products/1_bag.png", Size: 10}
	require.NoError(t, e.media.Create(context.Background(), m))
	admin, err := e.tokens.Issue("admin@example.com", models.RoleAdmin)
	require.NoError(t, err)

	rec := e.do(call{
		method: "PUT",
		path:   "/api/admin/media/" + m.ID.Hex(),
		body:   `{"alt":"tote","filename":"../../config.yaml","url":"/etc/passwd"}`,
		token:  admin,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[models.Media](t, rec)
	assert.Equal(t, "tote", got.Alt)
	assert.Equal(t, "products/1_bag.png", got.Filename)

	stored, err := e.media.Get(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, "products/1_bag.png", stored.Filename)
	assert.Equal(t, "/uploads/products/1_bag.png", stored.URL)
}

func TestAbandonedCartChecksOut(t *testing.T) {
	e := newEnv(t)
	p := e.products.Add("CB-100", 100)
	rec := e.do(call{method: "POST", path: "/api/cart", body: `{"productId":"` + p.ID.Hex() + `","quantity":3}`})
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)
	stale, _ := e.carts.Peek(cookie.Value)
	stale.Status = models.CartAbandoned
	e.carts.Put(&stale)

	rec = e.do(call{method: "GET", path: "/api/cart", cookie: cookie})
	assert.Len(t, decode[models.Cart](t, rec).Items, 1)

	rec = e.do(call{method: "POST", path: "/api/orders", body: checkoutBody, cookie: cookie})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "454", decode[models.Order](t, rec).Total.String())
}

func TestCreateOrderRejections(t *testing.T) {
	e := newEnv(t)

	rec := e.do(call{method: "POST", path: "/api/orders", body: checkoutBody})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "cart is empty")

	rec = e.do(call{method: "POST", path: "/api/orders", body: `{"customer":{"email":"asha@example.com"}}`})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, e.orders.All())
}

func TestAdminOrderStatusRequiresPermission(t *testing.T) {
	e := newEnv(t)
	p := e.products.Add("CB-100", 100)
	rec := e.do(call{method: "POST", path: "/api/cart", body: `{"productId":"` + p.ID.Hex() + `"}`})
	cookie := sessionCookie(t, rec)
	rec = e.do(call{method: "POST", path: "/api/orders", body: checkoutBody, cookie: cookie})
	require.Equal(t, http.StatusCreated, rec.Code)
	path := "/api/admin/orders/" + decode[models.Order](t, rec).ID.Hex()
	body := `{"status":"confirmed","paymentStatus":"paid"}`

	assert.Equal(t, http.StatusUnauthorized, e.do(call{method: "PATCH", path: path, body: body}).Code)

	viewer, err := e.tokens.Issue("viewer@example.com", "viewer")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, e.do(call{method: "PATCH", path: path, body: body, token: viewer}).Code)

	admin, err := e.tokens.Issue("admin@example.com", models.RoleAdmin)
	require.NoError(t, err)
	rec = e.do(call{method: "PATCH", path: path, body: body, token: admin})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	order := decode[models.Order](t, rec)
	assert.Equal(t, models.OrderConfirmed, order.Status)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)

	rec = e.do(call{method: "PATCH", path: path, body: `{"status":"lost"}`, token: admin})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginAndProfile(t *testing.T) {
	e := newEnv(t)
	_, err := e.auth.CreateUser(context.Background(), models.UserInput{
		Name: "Meera", Email: "meera@example.com", Password: "s3cret-pass", Role: models.RoleAdmin,
	})
	require.NoError(t, err)

	rec := e.do(call{method: "POST", path: "/api/auth/login", body: `{"email":"meera@example.com","password":"wrong-pass"}`})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(call{method: "POST", path: "/api/auth/login", body: `{"email":"meera@example.com","password":"s3cret-pass"}`})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[struct {
		Token string `json:"token"`
	}](t, rec)
	require.NotEmpty(t, login.Token)
	assert.NotContains(t, rec.Body.String(), "password")

	assert.Equal(t, http.StatusUnauthorized, e.do(call{method: "GET", path: "/api/auth/profile"}).Code)
	rec = e.do(call{method: "GET", path: "/api/auth/profile", token: login.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "meera@example.com", decode[models.User](t, rec).Email)
}

func TestPublicProducts(t *testing.T) {
	e := newEnv(t)
	p := e.products.Add("CB-100", 100)
	p.Translations = map[string]models.LocalizedText{"hi": {Name: "जैव उर्वरक"}}
	e.products.Put(p)
	hidden := e.products.Add("CB-200", 50)
	hidden.Active = false
	e.products.Put(hidden)

	rec := e.do(call{method: "GET", path: "/api/products?locale=hi"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hi", rec.Header().Get("Content-Language"))
	page := decode[controllers.Page[models.Product]](t, rec)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "जैव उर्वरक", page.Items[0].Name)

	rec = e.do(call{method: "GET", path: "/api/products/" + p.Slug, header: http.Header{"Accept-Language": {"ta-IN,ta;q=0.9"}}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Product CB-100", decode[models.Product](t, rec).Name)

	assert.Equal(t, http.StatusNotFound, e.do(call{method: "GET", path: "/api/products/" + hidden.ID.Hex()}).Code)
}

func TestSubmitInquiryIsFiledAsNew(t *testing.T) {
	e := newEnv(t)

	rec := e.do(call{method: "POST", path: "/api/inquiries", body: `{"name":"Ravi","email":"ravi@example.com","message":"Bulk price?","status":"resolved","notes":"vip"}`})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	q := decode[models.Inquiry](t, rec)
	assert.Equal(t, models.InquiryNew, q.Status)
	assert.Empty(t, q.Notes)
	assert.Equal(t, 1, e.inquiries.Len())

	rec = e.do(call{method: "POST", path: "/api/inquiries", body: `{"name":"Ravi","email":"nope","message":"hi"}`})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublicSettingsAndHealth(t *testing.T) {
	e := newEnv(t)

	rec := e.do(call{method: "GET", path: "/api/settings"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"phone": "+91 80 1234"}, decode[map[string]string](t, rec))

	assert.Equal(t, http.StatusOK, e.do(call{method: "GET", path: "/healthz"}).Code)
	e.db.err = errors.New("no reachable servers")
	assert.Equal(t, http.StatusServiceUnavailable, e.do(call{method: "GET", path: "/healthz"}).Code)
}

func TestAdminAnalyticsDates(t *testing.T) {
	e := newEnv(t)
	admin, err := e.tokens.Issue("admin@example.com", models.RoleAdmin)
	require.NoError(t, err)

	rec := e.do(call{method: "GET", path: "/api/admin/analytics?from=2026-10-01&to=2026-10-15", token: admin})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(call{method: "GET", path: "/api/admin/analytics?from=2026-10-15&to=2026-10-01", token: admin})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

package services

import (
	"testing"
	"time"

	"bioshop/config"
	"bioshop/models"
	"bioshop/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type fixture struct {
	carts     *testutil.Carts
	products  *testutil.Products
	orders    *testutil.Orders
	seq       *testutil.Sequence
	tx        *testutil.Tx
	mailer    *testutil.Mailer
	publisher *testutil.Publisher

	cart  *CartService
	order *OrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		carts:     testutil.NewCarts(),
		products:  testutil.NewProducts(),
		orders:    testutil.NewOrders(),
		seq:       testutil.NewSequence(),
		mailer:    &testutil.Mailer{},
		publisher: &testutil.Publisher{},
	}
	f.tx = testutil.NewTx(f.carts, f.orders)
	log := zap.NewNop()
	f.cart = NewCartService(f.carts, f.products, 30*24*time.Hour, "INR", log)
	f.order = NewOrderService(OrderDeps{
		Tx:        f.tx,
		Carts:     f.carts,
		Orders:    f.orders,
		Sequence:  f.seq,
		Pricing:   NewPricing(config.Default().Pricing),
		Currency:  "INR",
		Mailer:    f.mailer,
		Publisher: f.publisher,
		Notify:    "sales@example.com",
		Log:       log,
	})
	return f
}

func checkout() models.CheckoutDetails {
	return models.CheckoutDetails{
		Customer: models.Customer{Name: "Asha Rao", Email: "Asha@Example.com"},
		BillingAddress: models.Address{
			Street: "12 MG Road", City: "Bengaluru", ZipCode: "560001", Country: "IN",
		},
	}
}

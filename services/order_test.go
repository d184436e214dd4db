package services

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"bioshop/events"
	"bioshop/models"
	"bioshop/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var orderNumber = regexp.MustCompile(`^ORD-\d{8}-\d{5}$`)

func fillCart(t *testing.T, f *fixture, lines map[string]int64) {
	t.Helper()
	for code, price := range lines {
		p := f.products.Add(code, price)
		_, err := f.cart.AddItem(context.Background(), token, p.ID.Hex(), 1)
		require.NoError(t, err)
	}
}

func TestOrderService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.products.Add("CB-100", 100)
	_, err := f.cart.AddItem(ctx, token, p.ID.Hex(), 3)
	require.NoError(t, err)

	order, err := f.order.Create(ctx, token, checkout())
	require.NoError(t, err)

	assert.Regexp(t, orderNumber, order.OrderNumber)
	assert.Equal(t, "asha@example.com", order.Customer.Email)
	assert.Equal(t, order.BillingAddress, order.ShippingAddress)
	assert.Equal(t, models.PaymentBankTransfer, order.PaymentMethod)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, models.FulfillmentUnfulfilled, order.FulfillmentStatus)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.True(t, order.Subtotal.Equal(dec(300)))
	assert.True(t, order.Tax.Equal(dec(54)))
	assert.True(t, order.Shipping.Equal(dec(100)))
	assert.True(t, order.Total.Equal(dec(454)))

	cart, _ := f.carts.Peek(token)
	assert.Equal(t, models.CartConverted, cart.Status)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Subtotal.IsZero())

	require.Len(t, f.orders.All(), 1)

	sent := f.mailer.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "asha@example.com", sent[0].To)
	assert.Contains(t, sent[0].Subject, order.OrderNumber)
	assert.Equal(t, "sales@example.com", sent[1].To)

	evs := f.publisher.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.OrderCreated, evs[0].Type)
	assert.Equal(t, order.OrderNumber, evs[0].OrderNumber)
}

func TestOrderService_CreateFreeShipping(t *testing.T) {
	f := newFixture(t)
	fillCart(t, f, map[string]int64{"A": 1000, "B": 500})

	order, err := f.order.Create(context.Background(), token, checkout())
	require.NoError(t, err)
	assert.True(t, order.Subtotal.Equal(dec(1500)))
	assert.True(t, order.Tax.Equal(dec(270)))
	assert.True(t, order.Shipping.IsZero())
	assert.True(t, order.Total.Equal(dec(1770)))
}

func TestOrderService_CreateWithoutItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.order.Create(ctx, token, checkout())
	assert.ErrorIs(t, err, ErrNotFound, "no cart")

	_, err = f.cart.Get(ctx, token)
	require.NoError(t, err)
	_, err = f.order.Create(ctx, token, checkout())
	assert.ErrorIs(t, err, ErrNotFound, "empty cart")

	_, err = f.order.Create(ctx, "", checkout())
	assert.ErrorIs(t, err, ErrNotFound, "no session")

	assert.Empty(t, f.orders.All())
	assert.Empty(t, f.mailer.Sent())
}

func TestOrderService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	fillCart(t, f, map[string]int64{"A": 100})

	tests := []struct {
		name   string
		mutate func(d *models.CheckoutDetails)
	}{
		{"missing name", func(d *models.CheckoutDetails) { d.Customer.Name = " " }},
		{"missing email", func(d *models.CheckoutDetails) { d.Customer.Email = "" }},
		{"bad email", func(d *models.CheckoutDetails) { d.Customer.Email = "asha" }},
		{"missing street", func(d *models.CheckoutDetails) { d.BillingAddress.Street = "" }},
		{"missing city", func(d *models.CheckoutDetails) { d.BillingAddress.City = "" }},
		{"missing zipcode", func(d *models.CheckoutDetails) { d.BillingAddress.ZipCode = "" }},
		{"missing country", func(d *models.CheckoutDetails) { d.BillingAddress.Country = "" }},
		{"incomplete shipping", func(d *models.CheckoutDetails) { d.ShippingAddress = &models.Address{City: "Pune"} }},
		{"unknown payment", func(d *models.CheckoutDetails) { d.PaymentMethod = "barter" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := checkout()
			tt.mutate(&d)
			_, err := f.order.Create(context.Background(), token, d)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Empty(t, f.orders.All())
	cart, _ := f.carts.Peek(token)
	assert.Equal(t, models.CartActive, cart.Status)
	assert.Len(t, cart.Items, 1)
}

func TestOrderService_CreateSeparateShipping(t *testing.T) {
	f := newFixture(t)
	fillCart(t, f, map[string]int64{"A": 100})
	d := checkout()
	ship := models.Address{Street: "4 Park St", City: "Kolkata", ZipCode: "700016", Country: "IN"}
	d.ShippingAddress = &ship

	order, err := f.order.Create(context.Background(), token, d)
	require.NoError(t, err)
	assert.Equal(t, ship, order.ShippingAddress)
	assert.NotEqual(t, order.BillingAddress, order.ShippingAddress)
}

func TestOrderService_RetriesTakenOrderNumber(t *testing.T) {
	f := newFixture(t)
	fillCart(t, f, map[string]int64{"A": 100})
	f.orders.InsertErr = store.ErrDuplicate

	order, err := f.order.Create(context.Background(), token, checkout())
	require.NoError(t, err)
	assert.Regexp(t, `-00002$`, order.OrderNumber)
	assert.Equal(t, 2, f.tx.Runs)
	assert.Len(t, f.orders.All(), 1)
}

func TestOrderService_SequentialNumbersAreUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		fillCart(t, f, map[string]int64{primitive.NewObjectID().Hex(): 100})
		order, err := f.order.Create(ctx, token, checkout())
		require.NoError(t, err)
		assert.False(t, seen[order.OrderNumber], order.OrderNumber)
		seen[order.OrderNumber] = true
	}
}

func TestOrderService_CartFailureRollsBackOrder(t *testing.T) {
	f := newFixture(t)
	fillCart(t, f, map[string]int64{"A": 100})
	f.carts.SaveErr = errors.New("connection reset")

	_, err := f.order.Create(context.Background(), token, checkout())
	require.Error(t, err)
	assert.Empty(t, f.orders.All())
	assert.Empty(t, f.mailer.Sent())
	assert.Empty(t, f.publisher.Events())

	f.carts.SaveErr = nil
	cart, _ := f.carts.Peek(token)
	assert.Equal(t, models.CartActive, cart.Status)
	assert.Len(t, cart.Items, 1)
}

func TestOrderService_ConcurrentCartChange(t *testing.T) {
	f := newFixture(t)
	fillCart(t, f, map[string]int64{"A": 100})
	f.carts.BeforeSave = func(*models.Cart) { f.carts.Bump(token) }

	_, err := f.order.Create(context.Background(), token, checkout())
	assert.ErrorIs(t, err, ErrConflict)
	assert.Empty(t, f.orders.All())
}

func TestOrderService_ConflictWithoutTransactionsKeepsOrder(t *testing.T) {
	f := newFixture(t)
	fillCart(t, f, map[string]int64{"A": 100})
	f.tx.NoRollback = true
	bumped := false
	f.carts.BeforeSave = func(*models.Cart) {
		if !bumped {
			bumped = true
			f.carts.Bump(token)
		}
	}

	order, err := f.order.Create(context.Background(), token, checkout())
	require.NoError(t, err)
	require.Len(t, f.orders.All(), 1)
	assert.Equal(t, order.ID, f.orders.All()[0].ID)

	cart, _ := f.carts.Peek(token)
	assert.Equal(t, models.CartConverted, cart.Status)
	assert.Empty(t, cart.Items)
	assert.Len(t, f.mailer.Sent(), 2)
}

func TestOrderService_CreateFromAbandonedCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.products.Add("CB-100", 100)
	_, err := f.cart.AddItem(ctx, token, p.ID.Hex(), 3)
	require.NoError(t, err)
	stale, _ := f.carts.Peek(token)
	stale.Status = models.CartAbandoned
	f.carts.Put(&stale)

	cart, err := f.cart.Get(ctx, token)
	require.NoError(t, err)
	assert.True(t, cart.Total.Equal(dec(300)))

	order, err := f.order.Create(ctx, token, checkout())
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(dec(454)))

	converted, _ := f.carts.Peek(token)
	assert.Equal(t, models.CartConverted, converted.Status)
}

func TestOrderService_NotificationFailuresAreIgnored(t *testing.T) {
	f := newFixture(t)
	fillCart(t, f, map[string]int64{"A": 100})
	f.mailer.Err = errors.New("smtp down")
	f.publisher.Err = errors.New("broker down")

	order, err := f.order.Create(context.Background(), token, checkout())
	require.NoError(t, err)
	assert.NotEmpty(t, order.OrderNumber)
	assert.Len(t, f.orders.All(), 1)
}

func TestOrderService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		fillCart(t, f, map[string]int64{primitive.NewObjectID().Hex(): 100})
		_, err := f.order.Create(ctx, token, checkout())
		require.NoError(t, err)
	}

	orders, err := f.order.List(ctx, models.OrderFilter{CustomerEmail: " ASHA@example.com "})
	require.NoError(t, err)
	assert.Len(t, orders, 3)

	orders, err = f.order.List(ctx, models.OrderFilter{CustomerEmail: "asha@example.com", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	orders, err = f.order.List(ctx, models.OrderFilter{CustomerEmail: "nobody@example.com"})
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = f.order.List(ctx, models.OrderFilter{Status: "lost"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOrderService_GetAndUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fillCart(t, f, map[string]int64{"A": 100})
	order, err := f.order.Create(ctx, token, checkout())
	require.NoError(t, err)

	got, err := f.order.Get(ctx, order.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, got.OrderNumber)

	_, err = f.order.Get(ctx, "zzz")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.order.Get(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrNotFound)

	shipped := models.OrderShipped
	paid := models.PaymentPaid
	updated, err := f.order.UpdateStatus(ctx, order.ID.Hex(), models.OrderStatusUpdate{Status: &shipped, PaymentStatus: &paid})
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, updated.Status)
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)
	assert.Equal(t, models.FulfillmentUnfulfilled, updated.FulfillmentStatus)

	evs := f.publisher.Events()
	assert.Equal(t, events.OrderStatusChanged, evs[len(evs)-1].Type)
	sent := f.mailer.Sent()
	assert.Contains(t, sent[len(sent)-1].Text, "is now shipped")

	bogus := models.OrderStatus("teleported")
	_, err = f.order.UpdateStatus(ctx, order.ID.Hex(), models.OrderStatusUpdate{Status: &bogus})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.order.UpdateStatus(ctx, order.ID.Hex(), models.OrderStatusUpdate{})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.order.UpdateStatus(ctx, primitive.NewObjectID().Hex(), models.OrderStatusUpdate{Status: &shipped})
	assert.ErrorIs(t, err, ErrNotFound)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bioshop/events"
	"bioshop/models"
	"bioshop/store"
	"bioshop/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	orderSequence          = "orders"
	maxOrderNumberAttempts = 3
	notifyTimeout          = 10 * time.Second
)

// OrderDeps are the collaborators of OrderService.
type OrderDeps struct {
	Tx        TxRunner
	Carts     CartRepository
	Orders    OrderRepository
	Sequence  Sequencer
	Pricing   Pricing
	Currency  string
	Mailer    utils.Mailer
	Publisher events.Publisher
	// Notify receives a copy of every confirmation when set.
	Notify string
	Log    *zap.Logger
}

// OrderService turns carts into orders and manages them afterwards.
type OrderService struct {
	OrderDeps
	now func() time.Time
}

func NewOrderService(deps OrderDeps) *OrderService {
	return &OrderService{
		OrderDeps: deps,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create converts the session's cart into an order. The order insert and the
// cart conversion commit together; notifications go out after the commit and
// never fail the checkout.
func (s *OrderService) Create(ctx context.Context, token string, details models.CheckoutDetails) (*models.Order, error) {
	if err := details.Validate(); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, notFound("cart is empty")
	}
	cart, err := s.Carts.FindBySession(ctx, token)
	if err != nil {
		return nil, orNotFound(err, "cart is empty")
	}
	// Abandoned is advisory; only a converted cart has nothing left to order.
	if cart.Status == models.CartConverted || len(cart.Items) == 0 {
		return nil, notFound("cart is empty")
	}

	items := make([]models.OrderItem, len(cart.Items))
	for i, it := range cart.Items {
		items[i] = models.OrderItemFromCart(it)
	}
	quote := s.Pricing.Price(items)

	var order *models.Order
	for attempt := 1; ; attempt++ {
		now := s.now()
		number, err := s.nextOrderNumber(ctx, now)
		if err != nil {
			return nil, err
		}
		order = &models.Order{
			Base:              models.Base{CreatedAt: now, UpdatedAt: now},
			OrderNumber:       number,
			SessionID:         token,
			Customer:          details.Customer,
			BillingAddress:    details.BillingAddress,
			ShippingAddress:   details.Shipping(),
			Notes:             strings.TrimSpace(details.Notes),
			Items:             items,
			Subtotal:          quote.Subtotal,
			Tax:               quote.Tax,
			Shipping:          quote.Shipping,
			Total:             quote.Total,
			Currency:          cart.Currency,
			PaymentMethod:     details.PaymentMethod,
			Status:            models.OrderPending,
			PaymentStatus:     models.PaymentPending,
			FulfillmentStatus: models.FulfillmentUnfulfilled,
		}
		if order.Currency == "" {
			order.Currency = s.Currency
		}

		inserted := false
		err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
			inserted = false
			if err := s.Orders.Insert(ctx, order); err != nil {
				return err
			}
			inserted = true
			converted := *cart
			converted.MarkConverted(now)
			return s.Carts.Save(ctx, &converted)
		})
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrDuplicate) && attempt < maxOrderNumberAttempts {
			s.Log.Warn("order number taken, drawing another",
				zap.String("order_number", number),
				zap.Int("attempt", attempt))
			continue
		}
		if errors.Is(err, store.ErrVersionConflict) {
			if inserted && s.orderStored(ctx, order) {
				// No rollback happened, so the order stands and the cart is
				// converted on a best-effort basis.
				s.Log.Warn("order stored without converting its cart",
					zap.String("order_number", number),
					zap.String("cart_id", cart.ID.Hex()))
				s.convertCart(ctx, cart, now)
				break
			}
			s.Log.Warn("cart changed during checkout",
				zap.String("order_number", number),
				zap.String("cart_id", cart.ID.Hex()))
			return nil, fmt.Errorf("%w: cart changed during checkout, please review it and retry", ErrConflict)
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.Log.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("items", len(order.Items)))
	s.afterCreate(ctx, order)
	return order, nil
}

// orderStored reports whether order survived a failed checkout, which only
// happens when the store runs without transactions.
func (s *OrderService) orderStored(ctx context.Context, order *models.Order) bool {
	if order.ID.IsZero() {
		return false
	}
	_, err := s.Orders.Get(ctx, order.ID)
	return err == nil
}

func (s *OrderService) convertCart(ctx context.Context, stale *models.Cart, now time.Time) {
	cart, err := s.Carts.FindBySession(ctx, stale.SessionID)
	if err == nil {
		cart.MarkConverted(now)
		err = s.Carts.Save(ctx, cart)
	}
	if err != nil {
		s.Log.Warn("convert cart after checkout", zap.String("cart_id", stale.ID.Hex()), zap.Error(err))
	}
}

// nextOrderNumber formats ORD-YYYYMMDD-NNNNN from the shared order sequence.
func (s *OrderService) nextOrderNumber(ctx context.Context, now time.Time) (string, error) {
	seq, err := s.Sequence.Next(ctx, orderSequence)
	if err != nil {
		return "", fmt.Errorf("next order number: %w", err)
	}
	return fmt.Sprintf("ORD-%s-%05d", now.Format("20060102"), seq), nil
}

func (s *OrderService) afterCreate(ctx context.Context, order *models.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	log := s.Log.With(zap.String("order_number", order.OrderNumber))
	msg, err := utils.OrderConfirmation(order)
	if err != nil {
		log.Error("render order confirmation", zap.Error(err))
	} else {
		if err := s.Mailer.Send(ctx, msg); err != nil {
			log.Warn("send order confirmation", zap.Error(err))
		}
		if s.Notify != "" {
			staff := msg
			staff.To = s.Notify
			staff.Subject = "New order " + order.OrderNumber
			if err := s.Mailer.Send(ctx, staff); err != nil {
				log.Warn("send new order notice", zap.Error(err))
			}
		}
	}
	if err := s.Publisher.Publish(ctx, events.NewOrderEvent(events.OrderCreated, order)); err != nil {
		log.Warn("publish order event", zap.Error(err))
	}
}

// List returns the newest orders matching f, at most 100.
func (s *OrderService) List(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	f.CustomerEmail = strings.ToLower(strings.TrimSpace(f.CustomerEmail))
	f.OrderNumber = strings.TrimSpace(f.OrderNumber)
	if f.Status != "" && !f.Status.Valid() {
		return nil, validation("unknown order status %q", f.Status)
	}
	f.Limit = utils.ClampLimit(f.Limit)
	orders, err := s.Orders.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound("order not found")
	}
	order, err := s.Orders.Get(ctx, oid)
	if err != nil {
		return nil, orNotFound(err, "order not found")
	}
	return order, nil
}

// GetForSession returns an order only to the session that placed it.
func (s *OrderService) GetForSession(ctx context.Context, id, token string) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if token == "" || order.SessionID != token {
		return nil, notFound("order not found")
	}
	return order, nil
}

// UpdateStatus changes any of the three status fields and tells the customer.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, u models.OrderStatusUpdate) (*models.Order, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound("order not found")
	}
	order, err := s.Orders.UpdateStatus(ctx, oid, u)
	if err != nil {
		return nil, orNotFound(err, "order not found")
	}

	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	log := s.Log.With(zap.String("order_number", order.OrderNumber))
	if err := s.Mailer.Send(nctx, utils.OrderStatusChanged(order)); err != nil {
		log.Warn("send status email", zap.Error(err))
	}
	if err := s.Publisher.Publish(nctx, events.NewOrderEvent(events.OrderStatusChanged, order)); err != nil {
		log.Warn("publish order event", zap.Error(err))
	}
	return order, nil
}

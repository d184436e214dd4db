// Package events publishes order lifecycle notifications for downstream
// consumers such as the warehouse and accounting.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bioshop/config"
	"bioshop/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
)

// Event is the message body published for an order.
type Event struct {
	Type              string                   `json:"type"`
	OrderID           string                   `json:"orderId"`
	OrderNumber       string                   `json:"orderNumber"`
	CustomerEmail     string                   `json:"customerEmail"`
	Status            models.OrderStatus       `json:"status"`
	PaymentStatus     models.PaymentStatus     `json:"paymentStatus"`
	FulfillmentStatus models.FulfillmentStatus `json:"fulfillmentStatus"`
	Total             decimal.Decimal          `json:"total"`
	Currency          string                   `json:"currency"`
	Items             int                      `json:"items"`
	OccurredAt        time.Time                `json:"occurredAt"`
}

// NewOrderEvent describes order as of now.
func NewOrderEvent(typ string, order *models.Order) Event {
	items := 0
	for _, it := range order.Items {
		items += it.Quantity
	}
	return Event{
		Type:              typ,
		OrderID:           order.ID.Hex(),
		OrderNumber:       order.OrderNumber,
		CustomerEmail:     order.Customer.Email,
		Status:            order.Status,
		PaymentStatus:     order.PaymentStatus,
		FulfillmentStatus: order.FulfillmentStatus,
		Total:             order.Total,
		Currency:          order.Currency,
		Items:             items,
		OccurredAt:        time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// New returns an AMQP publisher when a broker URL is configured and a
// logging publisher otherwise. The returned func releases the broker connection.
func New(cfg config.RabbitMQConfig, log *zap.Logger) (Publisher, func(), error) {
	if cfg.URL == "" {
		return NewLogPublisher(log), func() {}, nil
	}
	pool, err := NewChannelPool(cfg.URL, cfg.Queue, cfg.ChannelPoolSize, log)
	if err != nil {
		return nil, nil, err
	}
	return NewAMQPPublisher(pool, cfg.Queue, log), pool.Close, nil
}

// AMQPPublisher sends events as persistent JSON messages to a durable queue.
type AMQPPublisher struct {
	pool      *ChannelPool
	queueName string
	log       *zap.Logger
}

func NewAMQPPublisher(pool *ChannelPool, queueName string, log *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{pool: pool, queueName: queueName, log: log}
}

func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	ch, err := p.pool.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get channel from pool: %w", err)
	}
	defer p.pool.Put(ch)

	msg, err := Message(e)
	if err != nil {
		return err
	}
	// default exchange routes by queue name
	if err := ch.PublishWithContext(ctx, "", p.queueName, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}

	p.log.Debug("published event",
		zap.String("type", e.Type),
		zap.String("order_number", e.OrderNumber))
	return nil
}

// Message encodes e as a persistent AMQP publishing.
func Message(e Event) (amqp.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Type:         e.Type,
		Timestamp:    e.OccurredAt,
		MessageId:    e.OrderID + ":" + e.Type,
		Body:         body,
	}, nil
}

// LogPublisher records events in the log when no broker is configured.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	p.log.Info("event",
		zap.String("type", e.Type),
		zap.String("order_number", e.OrderNumber),
		zap.String("status", string(e.Status)))
	return nil
}

package events

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ChannelPool shares a fixed set of AMQP channels over one connection. A nil
// entry is a free slot whose channel is opened on the next Get.
type ChannelPool struct {
	conn       *amqp.Connection
	newChannel func() (*amqp.Channel, error)
	channels   chan *amqp.Channel
	mu         sync.Mutex
	closed     bool
	queueName  string
	log        *zap.Logger
}

// NewChannelPool dials url and pre-creates size channels, each with the queue declared.
func NewChannelPool(url, queueName string, size int, log *zap.Logger) (*ChannelPool, error) {
	if size < 1 {
		size = 1
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	pool := &ChannelPool{
		conn:      conn,
		channels:  make(chan *amqp.Channel, size),
		queueName: queueName,
		log:       log,
	}
	pool.newChannel = pool.createChannel
	for i := 0; i < size; i++ {
		ch, err := pool.createChannel()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create channel %d: %w", i, err)
		}
		pool.channels <- ch
	}

	log.Info("created RabbitMQ channel pool", zap.Int("size", size), zap.String("queue", queueName))
	return pool, nil
}

func (p *ChannelPool) createChannel() (*amqp.Channel, error) {
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}
	// durable, not auto-deleted, not exclusive
	if _, err := ch.QueueDeclare(p.queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	return ch, nil
}

// Get waits for a free channel, replacing it if the broker closed it meanwhile.
func (p *ChannelPool) Get(ctx context.Context) (*amqp.Channel, error) {
	select {
	case ch, ok := <-p.channels:
		if !ok {
			return nil, fmt.Errorf("channel pool closed")
		}
		if ch != nil && !ch.IsClosed() {
			return ch, nil
		}
		fresh, err := p.newChannel()
		if err != nil {
			p.release(nil)
			return nil, fmt.Errorf("reopen channel: %w", err)
		}
		return fresh, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Put returns ch to the pool. A closed channel gives back an empty slot.
func (p *ChannelPool) Put(ch *amqp.Channel) {
	if ch != nil && ch.IsClosed() {
		ch = nil
	}
	p.release(ch)
}

func (p *ChannelPool) release(ch *amqp.Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		if ch != nil {
			ch.Close()
		}
		return
	}
	select {
	case p.channels <- ch:
	default:
		if ch != nil {
			ch.Close()
		}
	}
}

// Close closes all pooled channels and the connection.
func (p *ChannelPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true

	close(p.channels)
	for ch := range p.channels {
		if ch != nil {
			ch.Close()
		}
	}
	if p.conn != nil {
		p.conn.Close()
	}
	p.log.Info("closed RabbitMQ channel pool")
}

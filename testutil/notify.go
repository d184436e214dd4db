package testutil

import (
	"context"
	"sync"

	"bioshop/events"
	"bioshop/utils"
)

// Mailer records every message it is asked to send.
type Mailer struct {
	mu   sync.Mutex
	sent []utils.Message
	Err  error
}

func (m *Mailer) Send(_ context.Context, msg utils.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.Err
}

func (m *Mailer) Sent() []utils.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]utils.Message{}, m.sent...)
}

// Publisher records every event it is asked to publish.
type Publisher struct {
	mu     sync.Mutex
	events []events.Event
	Err    error
}

func (p *Publisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.Err
}

func (p *Publisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event{}, p.events...)
}

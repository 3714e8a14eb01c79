package inmemory

import (
	"context"
	"sync"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/eventcontract"
)

// Published is one recorded call to Publisher.Publish, in enqueue
// order.
type Published struct {
	Envelope   eventcontract.Envelope
	Properties eventcontract.MessageProperties
}

// Publisher is the in-memory ordered-list publisher variant spec §4.1
// calls for in tests: "A test in-memory variant records order of
// enqueue."
type Publisher struct {
	mu        sync.Mutex
	published []Published
	failNext  error
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(_ context.Context, env eventcontract.Envelope, props eventcontract.MessageProperties) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failNext != nil {
		err := p.failNext
		p.failNext = nil
		return err
	}

	p.published = append(p.published, Published{Envelope: env, Properties: props})
	return nil
}

// FailNextPublish makes the next Publish call return err, letting
// tests exercise ServiceBusUnavailableError-style retryable failures.
func (p *Publisher) FailNextPublish(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNext = err
}

// All returns every published envelope in enqueue order.
func (p *Publisher) All() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Published, len(p.published))
	copy(out, p.published)
	return out
}

// Package rabbitmq is the durable transport adapter (spec §4.1, §4.2)
// for eventcontract.Publisher and the queue-processor's ingress.
// Grounded on event-service's publisher.go (publisher confirms +
// mandatory-return NO_ROUTE detection) and its consumer.go (DLX/DLQ +
// retry-queue-with-TTL topology), generalized from a hard-coded
// routing-key switch into dispatch through queueprocessor.Processor.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/eventcontract"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const publishConfirmWait = 150 * time.Millisecond

// Publisher implements eventcontract.Publisher over a topic exchange.
// MessageProperties.ScopeKey becomes the routing key; EventType rides
// along as a message header for operator visibility, since the
// routing topology is scope-keyed rather than type-keyed (spec §4.1:
// "the scope key groups related events for ordered delivery").
type Publisher struct {
	exchange string
	logger   zerolog.Logger

	mu sync.Mutex

	conn *amqp.Connection
	ch   *amqp.Channel
	url  string

	confirmCh <-chan amqp.Confirmation
	returnCh  <-chan amqp.Return
}

func NewPublisher(url, exchange string, logger zerolog.Logger) (*Publisher, error) {
	if url == "" {
		return nil, errors.New("missing rabbitmq url")
	}
	if exchange == "" {
		return nil, errors.New("missing rabbitmq exchange")
	}
	p := &Publisher{url: url, exchange: exchange, logger: logger}
	if err := p.connectLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connectLocked() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	p.confirmCh = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	p.returnCh = ch.NotifyReturn(make(chan amqp.Return, 1))
	p.conn = conn
	p.ch = ch
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
	return nil
}

// Publish implements eventcontract.Publisher.
func (p *Publisher) Publish(ctx context.Context, env eventcontract.Envelope, props eventcontract.MessageProperties) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.conn == nil || p.conn.IsClosed() {
		_ = p.Close()
		if err := p.connectLocked(); err != nil {
			return &eventcontract.ServiceBusUnavailableError{Cause: fmt.Errorf("rabbitmq reconnect failed: %w", err)}
		}
	}

	routingKey := props.ScopeKey
	if routingKey == "" {
		routingKey = string(props.EventType)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    env.EventID,
		Headers: amqp.Table{
			"x-event-type":     string(props.EventType),
			"x-correlation-id": props.CorrelationID,
		},
	}

	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, true, false, pub); err != nil {
		return &eventcontract.ServiceBusUnavailableError{Cause: err}
	}

	timer := time.NewTimer(publishConfirmWait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return &eventcontract.ServiceBusUnavailableError{Cause: ctx.Err()}

		case ret := <-p.returnCh:
			p.logger.Error().
				Str("exchange", p.exchange).
				Str("routingKey", routingKey).
				Int("code", int(ret.ReplyCode)).
				Str("reason", ret.ReplyText).
				Msg("rabbitmq publish returned (NO_ROUTE)")
			return &eventcontract.ServiceBusUnavailableError{Cause: fmt.Errorf("returned: %d %s", ret.ReplyCode, ret.ReplyText)}

		case conf := <-p.confirmCh:
			if !conf.Ack {
				return &eventcontract.ServiceBusUnavailableError{Cause: errors.New("broker did not ack publish")}
			}
			return nil

		case <-timer.C:
			p.logger.Warn().
				Str("exchange", p.exchange).
				Str("routingKey", routingKey).
				Msg("rabbitmq confirm/return timeout window elapsed")
			return nil
		}
	}
}

package rabbitmq

import (
	"context"
	"fmt"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/queueprocessor"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	maxRetries    = 3
	retryTTLMs    = 5000
	prefetchCount = 10
)

// Consumer drains the world-core's event queue and hands each message
// to queueprocessor.Processor. The Processor already owns the durable
// dead-letter record (postgres) for parse/schema/handler-permanent
// failures and returns nil error in those cases — this consumer's own
// DLX/DLQ/retry topology exists purely as the transport-level backstop
// for queueprocessor.OutcomeRetryable (transient infra failures), for
// messages whose retry publish fails, and for any outcome it does not
// recognize. A panic inside the Processor is not recovered here.
type Consumer struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	queue    string
	retryQ   string
	exchange string
	processor *queueprocessor.Processor
	logger   zerolog.Logger
}

// NewConsumer declares the topic exchange, the fanout DLX + DLQ, the
// TTL-based retry queue, and the main queue (bound to every routing
// key on the exchange, since routing keys here are scope keys rather
// than event types — spec §4.1's scope-key grouping, not a type
// filter). Grounded on event-service's consumer.go topology.
func NewConsumer(url, exchange, queueNamePrefix string, processor *queueprocessor.Processor, logger zerolog.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	dlxName := queueNamePrefix + ".dlx"
	if err := ch.ExchangeDeclare(dlxName, "fanout", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare dlx: %w", err)
	}

	dlqName := queueNamePrefix + ".dlq"
	if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare dlq: %w", err)
	}
	if err := ch.QueueBind(dlqName, "", dlxName, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to bind dlq: %w", err)
	}

	queueName := queueNamePrefix
	mainArgs := amqp.Table{"x-dead-letter-exchange": dlxName}
	q, err := ch.QueueDeclare(queueName, true, false, false, false, mainArgs)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare main queue: %w", err)
	}

	retryName := queueNamePrefix + ".retry"
	retryArgs := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": queueName,
		"x-message-ttl":             int32(retryTTLMs),
	}
	if _, err := ch.QueueDeclare(retryName, true, false, false, false, retryArgs); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare retry queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "#", exchange, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to bind main queue: %w", err)
	}

	return &Consumer{
		conn: conn, ch: ch, queue: q.Name, retryQ: retryName,
		exchange: exchange, processor: processor, logger: logger,
	}, nil
}

// Start launches the consume loop in a goroutine, matching
// event-service's Consumer.Start shape.
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	go c.consume(ctx, msgs)
	c.logger.Info().Str("queue", c.queue).Str("exchange", c.exchange).Msg("world-core consumer started")
	return nil
}

func (c *Consumer) consume(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("consumer shutting down")
			return
		case msg, ok := <-msgs:
			if !ok {
				c.logger.Warn().Msg("consumer channel closed")
				return
			}
			c.handleMessage(ctx, msg)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	outcome, err := c.processor.Process(ctx, msg.Body)

	switch outcome {
	case queueprocessor.OutcomeProcessed, queueprocessor.OutcomeDuplicate, queueprocessor.OutcomeDeadLettered:
		// The Processor already persisted the durable dead-letter
		// record for the DeadLettered case; nothing further for the
		// broker to do but drop the message from the queue.
		_ = msg.Ack(false)
		return
	case queueprocessor.OutcomeRetryable:
		c.retryOrDeadLetter(msg, err)
		return
	default:
		c.logger.Error().Str("outcome", string(outcome)).Msg("unrecognized processor outcome; nacking without requeue")
		_ = msg.Nack(false, false)
	}
}

func (c *Consumer) retryOrDeadLetter(msg amqp.Delivery, cause error) {
	retryCount := 0
	if v, ok := msg.Headers["x-retry-count"].(int32); ok {
		retryCount = int(v)
	}

	if retryCount >= maxRetries {
		c.logger.Error().Err(cause).Int("retryCount", retryCount).Msg("max retries reached; sending to DLQ")
		_ = msg.Nack(false, false)
		return
	}

	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["x-retry-count"] = int32(retryCount + 1)

	err := c.ch.Publish("", c.retryQ, false, false, amqp.Publishing{
		ContentType: msg.ContentType,
		Body:        msg.Body,
		Headers:     headers,
		MessageId:   msg.MessageId,
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to publish to retry queue; nacking without requeue")
		_ = msg.Nack(false, false)
		return
	}
	c.logger.Warn().Err(cause).Int("retryCount", retryCount).Msg("transient failure; scheduled retry")
	_ = msg.Ack(false)
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

package eventcontract

import "context"

// Publisher is the durable delivery abstraction (spec §4.1). The
// production adapter is the RabbitMQ-backed publisher in
// internal/infrastructure/messaging/rabbitmq; tests use the in-memory
// ordered-list variant in internal/infrastructure/inmemory.
type Publisher interface {
	Publish(ctx context.Context, env Envelope, props MessageProperties) error
}

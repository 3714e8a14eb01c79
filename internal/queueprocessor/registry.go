package queueprocessor

import (
	"context"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/eventcontract"
	"github.com/rs/zerolog"
)

// InvocationContext is handed to every dispatched handler (spec
// §4.2 step 4): a logger scoped to this invocation plus its
// correlation id.
type InvocationContext struct {
	Logger        zerolog.Logger
	CorrelationID string
}

// HandlerFunc is the shape every registered handler implements. A
// handler signals a permanent failure with domain.ErrHandlerPermanent
// (or any error satisfying domain's AppError with CodeHandlerPermanent)
// and a transient one with an error satisfying
// eventcontract.IsRetryableError.
type HandlerFunc func(ctx context.Context, env eventcontract.Envelope, ictx InvocationContext) error

// Registry maps an event type string to its handler (spec §4.2, §9:
// "the processor is generic over handlers").
type Registry struct {
	handlers map[eventcontract.EventType]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{handlers: map[eventcontract.EventType]HandlerFunc{}}
}

func (r *Registry) Register(t eventcontract.EventType, h HandlerFunc) {
	r.handlers[t] = h
}

func (r *Registry) Lookup(t eventcontract.EventType) (HandlerFunc, bool) {
	h, ok := r.handlers[t]
	return h, ok
}

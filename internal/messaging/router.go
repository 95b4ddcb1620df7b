// Package messaging implements the request/response protocol between the
// isolated contexts: the UI controller, the background relay and the content
// extractor injected into each tab.
//
// Contexts never share memory. Every reply crosses the boundary as JSON, the
// way structured messages cross between extension contexts, and handlers hand
// back a Future instead of keeping a channel implicitly open.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/core"
)

// Kind discriminates messages
type Kind string

const (
	KindGetActiveTab   Kind = "GET_ACTIVE_TAB"
	KindGetPageSignals Kind = "GET_PAGE_SIGNALS"
	KindGetOpenEmail   Kind = "GET_OPEN_EMAIL"
)

var (
	// ErrNoReceiver is returned when no handler is registered for a message kind
	ErrNoReceiver = errors.New("messaging: no receiver for message")
	// ErrDuplicateHandler is returned when a kind is registered twice on a router
	ErrDuplicateHandler = errors.New("messaging: handler already registered")
)

// Message is a request crossing a context boundary
type Message struct {
	ID   string `json:"id"`
	Type Kind   `json:"type"`
}

// NewMessage creates a message of the given kind with a fresh id
func NewMessage(kind Kind) Message {
	return Message{ID: uuid.NewString(), Type: kind}
}

// ActiveTabReply answers GET_ACTIVE_TAB
type ActiveTabReply struct {
	URL string `json:"url"`
}

// PageSignalsReply answers GET_PAGE_SIGNALS
type PageSignalsReply struct {
	Signals core.PageSignals `json:"signals"`
}

// OpenEmailReply answers GET_OPEN_EMAIL
type OpenEmailReply struct {
	Provider string           `json:"provider"`
	Email    core.EmailRecord `json:"email"`
}

// Endpoint is anything a message can be sent to
type Endpoint interface {
	Send(ctx context.Context, msg Message) (json.RawMessage, error)
}

type rawHandler func(ctx context.Context, msg Message) (json.RawMessage, error)

// Router is the listener side of a context: a registry of handlers keyed by
// message kind.
type Router struct {
	name     string
	logger   *zap.Logger
	mu       sync.RWMutex
	handlers map[Kind]rawHandler
}

// NewRouter creates an empty router. The name only appears in logs.
func NewRouter(name string, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		name:     name,
		logger:   logger,
		handlers: make(map[Kind]rawHandler),
	}
}

// Handle registers a typed handler for kind. The handler must return quickly
// with a Future and settle it when its work is done.
func Handle[T any](r *Router, kind Kind, fn func(ctx context.Context, msg Message) *Future[T]) error {
	return r.register(kind, func(ctx context.Context, msg Message) (json.RawMessage, error) {
		v, err := fn(ctx, msg).Await(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s reply: %w", kind, err)
		}
		return data, nil
	})
}

func (r *Router) register(kind Kind, h rawHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handlers[kind]; ok {
		return fmt.Errorf("%w: %s on %s", ErrDuplicateHandler, kind, r.name)
	}
	r.handlers[kind] = h
	return nil
}

// Unregister removes the handler for kind, if any
func (r *Router) Unregister(kind Kind) {
	r.mu.Lock()
	delete(r.handlers, kind)
	r.mu.Unlock()
}

// Send delivers msg to the handler registered for its kind and waits for the reply
func (r *Router) Send(ctx context.Context, msg Message) (json.RawMessage, error) {
	r.mu.RLock()
	h, ok := r.handlers[msg.Type]
	r.mu.RUnlock()

	if !ok {
		r.logger.Debug("No receiver for message",
			zap.String("router", r.name),
			zap.String("type", string(msg.Type)),
			zap.String("id", msg.ID))
		return nil, fmt.Errorf("%w: %s", ErrNoReceiver, msg.Type)
	}

	return h(ctx, msg)
}

// Call sends a fresh message of the given kind to ep and decodes the reply into T
func Call[T any](ctx context.Context, ep Endpoint, kind Kind) (T, error) {
	var reply T

	data, err := ep.Send(ctx, NewMessage(kind))
	if err != nil {
		return reply, err
	}
	if err := json.Unmarshal(data, &reply); err != nil {
		return reply, fmt.Errorf("failed to decode %s reply: %w", kind, err)
	}
	return reply, nil
}

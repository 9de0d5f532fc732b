// Package handlers reacts to bus events.
package handlers

import (
	"context"
	"log/slog"

	"github.com/vmunix/introskip/internal/events"
)

// Handler consumes bus events until its context ends.
type Handler interface {
	// Start blocks, processing events until ctx is cancelled.
	Start(ctx context.Context) error

	Name() string
}

// BaseHandler carries the bus and a logger tagged with the handler name.
type BaseHandler struct {
	name   string
	bus    *events.Bus
	logger *slog.Logger
}

// NewBaseHandler creates a base handler.
func NewBaseHandler(name string, bus *events.Bus, logger *slog.Logger) *BaseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BaseHandler{
		name:   name,
		bus:    bus,
		logger: logger.With("handler", name),
	}
}

// Name returns the handler name.
func (h *BaseHandler) Name() string {
	return h.name
}

// Bus returns the event bus.
func (h *BaseHandler) Bus() *events.Bus {
	return h.bus
}

// Logger returns the handler's logger.
func (h *BaseHandler) Logger() *slog.Logger {
	return h.logger
}

// subscribe returns a channel for eventTypes that is released when the
// returned function is called.
func (h *BaseHandler) subscribe(buffer int, eventTypes ...string) (<-chan events.Event, func()) {
	ch := h.bus.SubscribeMany(buffer, eventTypes...)
	return ch, func() { h.bus.Unsubscribe(ch) }
}

// subscribeAll returns a channel receiving every event.
func (h *BaseHandler) subscribeAll(buffer int) (<-chan events.Event, func()) {
	ch := h.bus.SubscribeAll(buffer)
	return ch, func() { h.bus.Unsubscribe(ch) }
}

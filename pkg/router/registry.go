package router

import (
	"context"
	"encoding/json"

	"github.com/tinywideclouds/go-notification-actions/pkg/action"
)

// Handler processes responses for one action identifier type I and one
// request data type D. Handle receives the decoded identifier, the decoded
// data attached when the notification was scheduled, and the user's free-text
// input when the selected action supports it (nil otherwise).
type Handler[I action.Identifier, D any] interface {
	Handle(ctx context.Context, identifier I, data D, userText *string) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc[I action.Identifier, D any] func(ctx context.Context, identifier I, data D, userText *string) error

func (f HandlerFunc[I, D]) Handle(ctx context.Context, identifier I, data D, userText *string) error {
	return f(ctx, identifier, data, userText)
}

// erasedHandler is the type-erased invocation contract stored in the
// registry. The platform boundary only ever sees this shape; the concrete
// identifier and data types live inside the closure.
type erasedHandler func(ctx context.Context, identifierJSON, dataJSON string, userText *string) error

// Register stores, under the kind of identifier type I, a closure that
// decodes both payloads and invokes the handler produced by resolve.
//
// resolve is called once per dispatched response, so handlers may be
// short-lived or resolved from a container. Registering the same identifier
// type twice overwrites the previous registration: last registration wins.
//
// A decode failure of either payload logs a warning and returns without
// invoking the handler. Nothing is propagated back to the platform callback.
func Register[I action.Identifier, D any](r *Router, resolve func() Handler[I, D]) {
	var zero I
	kind := zero.ActionKind()

	fn := func(ctx context.Context, identifierJSON, dataJSON string, userText *string) error {
		var identifier I
		if err := json.Unmarshal([]byte(identifierJSON), &identifier); err != nil {
			r.logger.Warn("Dropping response: identifier payload did not decode", "kind", kind, "err", err)
			return nil
		}

		var data D
		if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
			r.logger.Warn("Dropping response: request data payload did not decode", "kind", kind, "err", err)
			return nil
		}

		return resolve().Handle(ctx, identifier, data, userText)
	}

	r.mu.Lock()
	r.handlers[kind] = fn
	r.mu.Unlock()
}

// RegisterHandler registers a fixed handler instance. Equivalent to Register
// with a constant factory.
func RegisterHandler[I action.Identifier, D any](r *Router, h Handler[I, D]) {
	Register(r, func() Handler[I, D] { return h })
}

func (r *Router) lookup(kind string) (erasedHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.handlers[kind]
	return fn, ok
}

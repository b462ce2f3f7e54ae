// Package router is the dispatch core: it routes responses delivered by the
// platform notification service to statically-typed handlers, and encodes
// typed requests into the flat wire shapes the platform stores.
package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/tinywideclouds/go-platform/pkg/net/v1"

	"github.com/tinywideclouds/go-notification-actions/pkg/action"
	"github.com/tinywideclouds/go-notification-actions/pkg/center"
)

// RequestDataKey is the fixed user-info key the serialized request data is
// attached under at scheduling time and read back from on response.
const RequestDataKey = "notify.request_data"

// emptyPayload is decoded when a response arrives without attached data, so
// the decode step never sees an absent payload.
const emptyPayload = "{}"

// Router owns the handler registry and the single platform Center it
// schedules through. Registration normally happens at startup, but the
// registry is safe for concurrent registration and lookup.
type Router struct {
	center center.Center
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string]erasedHandler

	// categoryMu serializes the category read-modify-write so concurrent
	// schedules cannot lose an update.
	categoryMu sync.Mutex
}

// New creates a Router dispatching through the given Center.
func New(c center.Center, logger *slog.Logger) *Router {
	return &Router{
		center:   c,
		logger:   logger.With("component", "ActionRouter"),
		handlers: make(map[string]erasedHandler),
	}
}

// RequestAuthorization asks the platform for permission to present alerts and
// badges. Failures are logged and swallowed: the schedule path degrades to
// whatever the platform allows.
func (r *Router) RequestAuthorization(ctx context.Context, opts center.AuthorizationOptions) bool {
	granted, err := r.center.RequestAuthorization(ctx, opts)
	if err != nil {
		r.logger.Warn("Authorization request failed", "err", err)
		return false
	}
	return granted
}

// HandleResponse routes one response delivered by the platform. Every failure
// path drops the response with a warning; nothing is raised back to the
// platform callback and the process never terminates from here.
func (r *Router) HandleResponse(ctx context.Context, resp center.Response) {
	env, ok := r.resolveEnvelope(resp.ActionIdentifier)
	if !ok {
		return
	}

	fn, ok := r.lookup(env.Kind)
	if !ok {
		r.logger.Warn("Dropping response: no handler registered for action kind", "kind", env.Kind)
		return
	}

	dataJSON := resp.UserInfo[RequestDataKey]
	if dataJSON == "" {
		dataJSON = emptyPayload
	}

	if err := fn(ctx, env.JSON, dataJSON, resp.UserText); err != nil {
		r.logger.Warn("Handler returned an error", "kind", env.Kind, "err", err)
	}
}

// resolveEnvelope classifies the raw identifier string: one of the reserved
// platform sentinels (for which a synthetic envelope is built, since no wire
// container was ever encoded), or a custom action's encoded envelope.
func (r *Router) resolveEnvelope(raw string) (action.Envelope, bool) {
	switch raw {
	case center.DefaultActionIdentifier:
		return action.Envelope{Kind: action.DefaultKind, JSON: emptyPayload}, true
	case center.DismissActionIdentifier:
		return action.Envelope{Kind: action.DismissKind, JSON: emptyPayload}, true
	}

	env, err := action.DecodeEnvelope(raw)
	if err != nil {
		// Not produced by this layer, e.g. an externally created identifier.
		r.logger.Warn("Dropping response: unroutable action identifier", "raw", raw, "err", err)
		return action.Envelope{}, false
	}
	return env, true
}

// Schedule encodes a typed request into its native form and submits it.
//
// The data payload is serialized once; if that fails the whole attempt is
// abandoned. Each action identifier is encoded individually; an action whose
// identifier fails to encode is excluded from the built category (the rest
// keep their relative order). The platform's category set is updated with a
// replace-by-key read-modify-write before the request is submitted.
func Schedule[D any](ctx context.Context, r *Router, recipient urn.URN, req action.Request[D]) error {
	logger := r.logger.With("request_id", req.ID, "category", req.CategoryKey)

	dataJSON, err := json.Marshal(req.Data)
	if err != nil {
		logger.Warn("Abandoning schedule: request data did not encode", "err", err)
		return ErrRequestDataEncode
	}

	nativeActions := make([]center.NativeAction, 0, len(req.Actions))
	for _, a := range req.Actions {
		wire, err := action.Encode(a.Identifier)
		if err != nil {
			logger.Warn("Excluding action: identifier did not encode", "title", a.Title, "err", err)
			continue
		}
		nativeActions = append(nativeActions, center.NativeAction{
			Identifier:         wire,
			Title:              a.Title,
			Icon:               a.Icon,
			Style:              a.Style,
			RequiresForeground: a.RequiresForeground,
			ConfirmLabel:       a.ConfirmLabel,
			Placeholder:        a.Placeholder,
		})
	}

	if err := r.syncCategory(ctx, center.Category{Key: req.CategoryKey, Actions: nativeActions}); err != nil {
		return &SchedulingError{RequestID: req.ID, Err: err}
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	native := center.NativeRequest{
		ID:          id,
		Recipient:   recipient,
		Title:       req.Title,
		Subtitle:    req.Subtitle,
		Body:        req.Body,
		CategoryKey: req.CategoryKey,
		UserInfo:    map[string]string{RequestDataKey: string(dataJSON)},
		DeliverAt:   req.DeliverAt,
	}

	if err := r.center.Schedule(ctx, native); err != nil {
		logger.Warn("Platform rejected schedule", "err", err)
		return &SchedulingError{RequestID: id, Err: err}
	}
	return nil
}

// syncCategory performs the replace-by-key read-modify-write on the
// platform's process-wide category set, serialized by categoryMu.
func (r *Router) syncCategory(ctx context.Context, cat center.Category) error {
	r.categoryMu.Lock()
	defer r.categoryMu.Unlock()

	current, err := r.center.Categories(ctx)
	if err != nil {
		return err
	}

	next := make([]center.Category, 0, len(current)+1)
	for _, c := range current {
		if c.Key != cat.Key {
			next = append(next, c)
		}
	}
	next = append(next, cat)

	return r.center.SetCategories(ctx, next)
}

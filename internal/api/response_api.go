package api

import (
	"context"
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	"github.com/tinywideclouds/go-notification-actions/pkg/center"
)

// ResponseRouter is the slice of the router the API needs: accept one
// platform response for dispatch.
type ResponseRouter interface {
	HandleResponse(ctx context.Context, resp center.Response)
}

// ResponseAPI receives user responses posted back by service workers (or any
// platform bridge) and hands them to the router. Routing failures are drops
// with warnings inside the router, so the endpoint always accepts a
// well-formed body.
type ResponseAPI struct {
	Router ResponseRouter
	Logger *slog.Logger
}

func NewResponseAPI(router ResponseRouter, logger *slog.Logger) *ResponseAPI {
	return &ResponseAPI{
		Router: router,
		Logger: logger,
	}
}

func (api *ResponseAPI) HandleResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var resp center.Response
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid response json")
		return
	}
	if resp.ActionIdentifier == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing action identifier")
		return
	}

	api.Router.HandleResponse(ctx, resp)

	// Dispatch outcome is never surfaced to the caller; unroutable responses
	// are dropped with a warning inside the router.
	w.WriteHeader(http.StatusAccepted)
}

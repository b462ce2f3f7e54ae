// Package api exposes the HTTP surface: device registration and the response
// callback that feeds the router.
package api

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"
	"github.com/tinywideclouds/go-platform/pkg/net/v1"

	"github.com/tinywideclouds/go-notification-actions/pkg/center"
)

type DeviceAPI struct {
	Store  center.DeviceStore
	Logger *slog.Logger
}

func NewDeviceAPI(store center.DeviceStore, logger *slog.Logger) *DeviceAPI {
	return &DeviceAPI{
		Store:  store,
		Logger: logger,
	}
}

// --- APNs ---

type RegisterAPNSRequest struct {
	Token string `json:"token"`
}

func (api *DeviceAPI) RegisterAPNS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	recipient, _ := urn.Parse(userID)

	var req RegisterAPNSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Token == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing token")
		return
	}

	if err := api.Store.RegisterAPNS(ctx, recipient, req.Token); err != nil {
		api.Logger.Error("failed to register apns token", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (api *DeviceAPI) UnregisterAPNS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	recipient, _ := urn.Parse(userID)

	var req RegisterAPNSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing token")
		return
	}

	if err := api.Store.UnregisterAPNS(ctx, recipient, req.Token); err != nil {
		api.Logger.Error("failed to unregister apns token", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Web (VAPID) ---

func (api *DeviceAPI) RegisterWeb(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	recipient, _ := urn.Parse(userID)

	var sub center.WebSubscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		api.Logger.Error("RegisterWeb: JSON decode failed", "err", err)
		response.WriteJSONError(w, http.StatusBadRequest, "invalid subscription json")
		return
	}

	if sub.Endpoint == "" || len(sub.Keys.P256dh) == 0 || len(sub.Keys.Auth) == 0 {
		api.Logger.Warn("RegisterWeb: Validation failed", "reason", "missing fields")
		response.WriteJSONError(w, http.StatusBadRequest, "incomplete subscription object")
		return
	}

	if err := api.Store.RegisterWeb(ctx, recipient, sub); err != nil {
		api.Logger.Error("failed to register web subscription", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	api.Logger.Info("RegisterWeb: Subscription registered", "recipient", recipient, "endpoint", sub.Endpoint)

	w.WriteHeader(http.StatusNoContent)
}

type UnregisterWebRequest struct {
	Endpoint string `json:"endpoint"`
}

func (api *DeviceAPI) UnregisterWeb(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	recipient, _ := urn.Parse(userID)

	var req UnregisterWebRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Endpoint == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing endpoint")
		return
	}

	if err := api.Store.UnregisterWeb(ctx, recipient, req.Endpoint); err != nil {
		api.Logger.Error("failed to unregister web subscription", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

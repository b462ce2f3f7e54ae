// Package apns implements the platform Center on top of the Apple Push
// Notification Service.
package apns

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"

	"github.com/tinywideclouds/go-notification-actions/pkg/center"
)

// APNSClient defines the subset of the apns2.Client methods we use.
// This allows mocking for unit tests.
type APNSClient interface {
	PushWithContext(ctx apns2.Context, n *apns2.Notification) (*apns2.Response, error)
}

// Config holds the credentials required to sign APNs tokens.
type Config struct {
	KeyID    string
	TeamID   string
	BundleID string
	// P8KeyContent is the raw string content of the .p8 file.
	P8KeyContent string
}

// Center delivers scheduled requests as APNs alerts. Action categories are
// registered on-device by the client app; the set held here is the authority
// the router reads and rewrites, and the category key travels in the payload.
type Center struct {
	client APNSClient
	topic  string // The App Bundle ID (e.g. com.tinywide.messenger)
	store  center.DeviceStore
	logger *slog.Logger

	mu         sync.Mutex
	categories []center.Category
}

// NewCenter creates a configured APNs Center. It parses the P8 key
// immediately to fail fast on startup if credentials are bad.
func NewCenter(cfg Config, store center.DeviceStore, logger *slog.Logger) (*Center, error) {
	authKey, err := token.AuthKeyFromBytes([]byte(cfg.P8KeyContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse APNs P8 key: %w", err)
	}

	tokenSource := &token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	}

	return &Center{
		client: apns2.NewTokenClient(tokenSource),
		topic:  cfg.BundleID,
		store:  store,
		logger: logger.With("component", "APNSCenter"),
	}, nil
}

// NewCenterWithClient wires a pre-built client; used by tests.
func NewCenterWithClient(client APNSClient, bundleID string, store center.DeviceStore, logger *slog.Logger) *Center {
	return &Center{
		client: client,
		topic:  bundleID,
		store:  store,
		logger: logger.With("component", "APNSCenter"),
	}
}

// RequestAuthorization is a no-op for APNs: the permission prompt happens on
// the device, not at the provider.
func (c *Center) RequestAuthorization(_ context.Context, _ center.AuthorizationOptions) (bool, error) {
	return true, nil
}

func (c *Center) Categories(_ context.Context) ([]center.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]center.Category, len(c.categories))
	copy(out, c.categories)
	return out, nil
}

func (c *Center) SetCategories(_ context.Context, categories []center.Category) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories = make([]center.Category, len(categories))
	copy(c.categories, categories)
	return nil
}

// Schedule pushes the request to every registered APNs token of the
// recipient. APNs has no deferred delivery, so the alert goes out
// immediately; trigger timing is the caller's concern.
//
// APNs HTTP/2 is unary (one request per token), so we iterate sequentially.
// Dead tokens reported by APNs are unregistered from the device store.
func (c *Center) Schedule(ctx context.Context, req center.NativeRequest) error {
	devices, err := c.store.Fetch(ctx, req.Recipient)
	if err != nil {
		return fmt.Errorf("failed to fetch devices for %s: %w", req.Recipient.String(), err)
	}
	if len(devices.APNSTokens) == 0 {
		c.logger.Info("No APNs tokens registered for recipient; dropping request.", "request_id", req.ID)
		return nil
	}

	builder := payload.NewPayload().
		AlertTitle(req.Title).
		AlertSubtitle(req.Subtitle).
		AlertBody(req.Body).
		Category(req.CategoryKey)
	for k, v := range req.UserInfo {
		builder.Custom(k, v)
	}

	successCount := 0
	failureCount := 0

	for _, deviceToken := range devices.APNSTokens {
		notification := &apns2.Notification{
			DeviceToken: deviceToken,
			Topic:       c.topic,
			ApnsID:      req.ID,
			Payload:     builder,
		}

		res, err := c.client.PushWithContext(ctx, notification)
		if err != nil {
			c.logger.Error("APNs transport failed", "token", deviceToken, "err", err)
			failureCount++
			continue
		}

		if res.Sent() {
			successCount++
			continue
		}
		failureCount++

		switch res.Reason {
		case apns2.ReasonBadDeviceToken, apns2.ReasonUnregistered, apns2.ReasonDeviceTokenNotForTopic:
			// Token is dead. Remove it so the next fan-out skips it.
			if err := c.store.UnregisterAPNS(ctx, req.Recipient, deviceToken); err != nil {
				c.logger.Warn("Failed to unregister dead APNs token", "token", deviceToken, "err", err)
			}
		default:
			c.logger.Warn("APNs rejected notification", "reason", res.Reason, "status", res.StatusCode)
		}
	}

	if successCount == 0 && failureCount > 0 {
		return fmt.Errorf("apns delivery failed for all %d tokens", failureCount)
	}
	c.logger.Debug("APNs schedule complete", "request_id", req.ID, "success", successCount, "failed", failureCount)
	return nil
}

// Package webpush implements the platform Center over the Web Push protocol
// (VAPID). Categories translate to browser Notification API actions: the
// category's action list travels inside the push payload, and the service
// worker posts the user's choice back to the response endpoint.
package webpush

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/tinywideclouds/go-notification-actions/pkg/center"
)

// VapidConfig holds the VAPID signing material.
type VapidConfig struct {
	PublicKey       string
	PrivateKey      string
	SubscriberEmail string
}

// Center delivers scheduled requests as web pushes to every subscription
// registered for the recipient.
type Center struct {
	subscriber string
	privateKey string
	publicKey  string
	store      center.DeviceStore
	logger     *slog.Logger
	httpClient *http.Client

	mu         sync.Mutex
	categories []center.Category
}

func NewCenter(cfg VapidConfig, store center.DeviceStore, logger *slog.Logger) *Center {
	return &Center{
		privateKey: cfg.PrivateKey,
		publicKey:  cfg.PublicKey,
		subscriber: cfg.SubscriberEmail,
		store:      store,
		logger:     logger.With("component", "WebPushCenter"),
		httpClient: &http.Client{},
	}
}

// RequestAuthorization is a no-op for Web Push: Notification.requestPermission
// runs in the browser, not at the provider.
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

func (c *Center) category(key string) (center.Category, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cat := range c.categories {
		if cat.Key == key {
			return cat, true
		}
	}
	return center.Category{}, false
}

// pushPayload is the JSON the service worker receives. The action list lets
// the worker render Notification API actions carrying our wire identifiers.
type pushPayload struct {
	Notification struct {
		Title   string                `json:"title"`
		Body    string                `json:"body"`
		Actions []center.NativeAction `json:"actions,omitempty"`
	} `json:"notification"`
	RequestID   string            `json:"request_id"`
	CategoryKey string            `json:"category_key"`
	UserInfo    map[string]string `json:"user_info"`
}

// Schedule fans the request out to the recipient's subscriptions. Gone (410)
// and Not Found (404) subscriptions are unregistered from the device store.
func (c *Center) Schedule(ctx context.Context, req center.NativeRequest) error {
	devices, err := c.store.Fetch(ctx, req.Recipient)
	if err != nil {
		return fmt.Errorf("failed to fetch devices for %s: %w", req.Recipient.String(), err)
	}
	if len(devices.WebSubscriptions) == 0 {
		c.logger.Info("No web subscriptions registered for recipient; dropping request.", "request_id", req.ID)
		return nil
	}

	var p pushPayload
	p.Notification.Title = req.Title
	p.Notification.Body = req.Body
	if cat, ok := c.category(req.CategoryKey); ok {
		p.Notification.Actions = cat.Actions
	}
	p.RequestID = req.ID
	p.CategoryKey = req.CategoryKey
	p.UserInfo = req.UserInfo

	payloadBytes, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	successCount := 0
	failureCount := 0

	for _, sub := range devices.WebSubscriptions {
		s := &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: base64.RawURLEncoding.EncodeToString(sub.Keys.P256dh),
				Auth:   base64.RawURLEncoding.EncodeToString(sub.Keys.Auth),
			},
		}

		resp, err := webpush.SendNotificationWithContext(ctx, payloadBytes, s, &webpush.Options{
			Subscriber:      c.subscriber,
			VAPIDPublicKey:  c.publicKey,
			VAPIDPrivateKey: c.privateKey,
			TTL:             60,
			HTTPClient:      c.httpClient,
		})
		if err != nil {
			// Transport error (DNS, timeout). Log and skip, don't delete.
			c.logger.Error("WebPush transport error", "endpoint", sub.Endpoint, "err", err)
			failureCount++
			continue
		}
		_ = resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusCreated:
			successCount++
		case http.StatusGone, http.StatusNotFound:
			failureCount++
			if err := c.store.UnregisterWeb(ctx, req.Recipient, sub.Endpoint); err != nil {
				c.logger.Warn("Failed to unregister dead subscription", "endpoint", sub.Endpoint, "err", err)
			}
		default:
			c.logger.Warn("WebPush rejected", "status", resp.StatusCode, "endpoint", sub.Endpoint)
			failureCount++
		}
	}

	if successCount == 0 && failureCount > 0 {
		return fmt.Errorf("web push delivery failed for all %d subscriptions", failureCount)
	}
	c.logger.Debug("WebPush schedule complete", "request_id", req.ID, "success", successCount, "failed", failureCount)
	return nil
}

package center

import (
	"context"

	"github.com/tinywideclouds/go-platform/pkg/net/v1"
)

// Center is the contract for a platform notification backend (e.g. APNs, Web
// Push, or an in-memory fake). The router talks to exactly one Center and
// never interprets how it delivers.
type Center interface {
	// RequestAuthorization asks the platform for permission to present
	// notifications. The boolean reports whether permission was granted.
	RequestAuthorization(ctx context.Context, opts AuthorizationOptions) (bool, error)

	// Categories returns the current process-wide category set.
	Categories(ctx context.Context) ([]Category, error)

	// SetCategories replaces the process-wide category set.
	SetCategories(ctx context.Context, categories []Category) error

	// Schedule accepts a native request for delivery at its trigger time.
	Schedule(ctx context.Context, req NativeRequest) error
}

// WebSubscription is a browser push subscription as registered by a service
// worker.
type WebSubscription struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh []byte `json:"p256dh"`
		Auth   []byte `json:"auth"`
	} `json:"keys"`
}

// Devices holds the delivery targets known for one recipient, bucketed by
// platform.
type Devices struct {
	Recipient        urn.URN           `json:"recipient"`
	APNSTokens       []string          `json:"apns_tokens"`
	WebSubscriptions []WebSubscription `json:"web_subscriptions"`
}

// DeviceStore manages the delivery targets a Center fans out to. It allows a
// backend to remember "where" to deliver notifications for a recipient.
type DeviceStore interface {
	// RegisterAPNS adds or updates an APNs device token for a recipient.
	// It should handle deduplication (e.g. upsert).
	RegisterAPNS(ctx context.Context, recipient urn.URN, token string) error

	// UnregisterAPNS removes a dead or revoked APNs token.
	UnregisterAPNS(ctx context.Context, recipient urn.URN, token string) error

	// RegisterWeb adds or updates a browser push subscription.
	RegisterWeb(ctx context.Context, recipient urn.URN, sub WebSubscription) error

	// UnregisterWeb removes a subscription by its endpoint URL.
	UnregisterWeb(ctx context.Context, recipient urn.URN, endpoint string) error

	// Fetch returns all delivery targets for a recipient.
	Fetch(ctx context.Context, recipient urn.URN) (*Devices, error)
}

// Package center defines the boundary with the platform's native
// user-notification service. The types here are flat and wire-level: the
// platform never sees the typed identifiers or payloads defined in
// pkg/action, only the encoded strings this package carries.
package center

import (
	"time"

	"github.com/tinywideclouds/go-platform/pkg/net/v1"

	"github.com/tinywideclouds/go-notification-actions/pkg/action"
)

// Reserved raw action identifiers the platform delivers for responses that
// were not produced by a custom action: a tap on the notification body, and a
// dismissal. No envelope is ever encoded for these.
const (
	DefaultActionIdentifier = "notify.platform.default-action"
	DismissActionIdentifier = "notify.platform.dismiss-action"
)

// Response is the inbound callback value: what the platform hands back when a
// user acts on a previously scheduled notification.
type Response struct {
	// ActionIdentifier is the opaque wire string stored on the native action
	// the user selected, or one of the reserved identifiers above.
	ActionIdentifier string `json:"action_identifier"`

	// UserInfo is the opaque metadata bag attached at scheduling time and
	// carried through by the platform untouched.
	UserInfo map[string]string `json:"user_info"`

	// UserText is the free text the user entered, when the selected action
	// supports input. Nil when the action carries no text.
	UserText *string `json:"user_text,omitempty"`
}

// NativeAction is the platform-level description of one action on a category.
// Identifier is an already-encoded wire string.
type NativeAction struct {
	Identifier         string       `json:"identifier"`
	Title              string       `json:"title"`
	Icon               string       `json:"icon,omitempty"`
	Style              action.Style `json:"style"`
	RequiresForeground bool         `json:"requires_foreground,omitempty"`
	ConfirmLabel       string       `json:"confirm_label,omitempty"`
	Placeholder        string       `json:"placeholder,omitempty"`
}

// Category groups the actions shown for notifications scheduled under its
// key. The platform holds one process-wide set of categories, keyed by Key.
type Category struct {
	Key     string         `json:"key"`
	Actions []NativeAction `json:"actions"`
}

// NativeRequest is the flattened request submitted to the platform.
type NativeRequest struct {
	ID          string            `json:"id"`
	Recipient   urn.URN           `json:"recipient"`
	Title       string            `json:"title"`
	Subtitle    string            `json:"subtitle,omitempty"`
	Body        string            `json:"body"`
	CategoryKey string            `json:"category_key"`
	UserInfo    map[string]string `json:"user_info"`
	DeliverAt   time.Time         `json:"deliver_at"`
}

// AuthorizationOptions selects which notification capabilities to request
// from the platform.
type AuthorizationOptions struct {
	Alert bool
	Badge bool
}

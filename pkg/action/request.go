package action

import (
	"time"

	"github.com/google/uuid"
)

// Style distinguishes how the platform presents an action to the user.
type Style string

const (
	// StyleButton renders the action as a plain button.
	StyleButton Style = "button"
	// StyleTextInput renders the action as a free-text input field.
	StyleTextInput Style = "text_input"
)

// Action describes one user-facing choice attached to a notification. It is
// constructed when building a Request, translated once into the platform's
// native action when the request is scheduled, and never mutated after.
type Action struct {
	Identifier Identifier
	Title      string
	Icon       string
	Style      Style

	// RequiresForeground applies to StyleButton: selecting the action brings
	// the application to the foreground.
	RequiresForeground bool

	// ConfirmLabel and Placeholder apply to StyleTextInput.
	ConfirmLabel string
	Placeholder  string
}

// NewButtonAction builds a button-style action.
func NewButtonAction(id Identifier, title, icon string, requiresForeground bool) Action {
	return Action{
		Identifier:         id,
		Title:              title,
		Icon:               icon,
		Style:              StyleButton,
		RequiresForeground: requiresForeground,
	}
}

// NewTextInputAction builds a text-input action. The user's entered text is
// delivered to the handler alongside the decoded payloads.
func NewTextInputAction(id Identifier, title, icon, confirmLabel, placeholder string) Action {
	return Action{
		Identifier:   id,
		Title:        title,
		Icon:         icon,
		Style:        StyleTextInput,
		ConfirmLabel: confirmLabel,
		Placeholder:  placeholder,
	}
}

// Request is a notification to be scheduled, carrying a typed data payload D.
// The payload is opaque to the platform; it is serialized at scheduling time
// and handed back, still serialized, with any response to this notification.
//
// A Request is consumed exactly once by the scheduling operation and is not
// retained by this layer afterwards.
type Request[D any] struct {
	ID          string
	Title       string
	Subtitle    string
	Body        string
	CategoryKey string
	DeliverAt   time.Time
	Data        D
	Actions     []Action
}

// NewRequest builds a Request with a fresh unique ID.
func NewRequest[D any](categoryKey string, deliverAt time.Time, data D, actions ...Action) Request[D] {
	return Request[D]{
		ID:          uuid.NewString(),
		CategoryKey: categoryKey,
		DeliverAt:   deliverAt,
		Data:        data,
		Actions:     actions,
	}
}

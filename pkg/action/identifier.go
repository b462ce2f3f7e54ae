// Package action contains the typed domain model for notification actions:
// action identifiers, request payloads, and the notification requests that
// carry them. The types here are pure data contracts; routing logic lives in
// pkg/router.
package action

import (
	"encoding/json"
	"fmt"
)

// Identifier is implemented by every application-defined action identifier
// type. ActionKind returns the stable string the identifier type is keyed by
// in the handler registry and on the wire. The tag is declared explicitly
// rather than derived from the type name, so renames and build tooling cannot
// silently break routing.
//
// ActionKind must be callable on the zero value of the implementing type,
// i.e. use a value receiver and return a constant.
type Identifier interface {
	ActionKind() string
}

// Reserved kinds for the two built-in identifiers. Application identifiers
// must not reuse these.
const (
	DefaultKind = "notify.default"
	DismissKind = "notify.dismiss"
)

// DefaultIdentifier is the reserved identifier delivered when the user taps
// the notification body rather than a specific action.
type DefaultIdentifier struct{}

func (DefaultIdentifier) ActionKind() string { return DefaultKind }

// DismissIdentifier is the reserved identifier delivered when the user
// dismisses the notification without selecting an action.
type DismissIdentifier struct{}

func (DismissIdentifier) ActionKind() string { return DismissKind }

// Envelope is the wire container used to move a typed identifier through a
// platform API that only accepts a flat string. Kind carries the identifier's
// stable tag; JSON carries its serialized value.
//
// Kind must exactly match the key a handler registered under for the response
// to be routable.
type Envelope struct {
	Kind string `json:"type"`
	JSON string `json:"json"`
}

// Encode serializes an identifier into its wire string: the identifier value
// as JSON, wrapped in an Envelope, marshalled again.
func Encode(id Identifier) (string, error) {
	value, err := json.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("failed to encode identifier value for kind %q: %w", id.ActionKind(), err)
	}

	wire, err := json.Marshal(Envelope{Kind: id.ActionKind(), JSON: string(value)})
	if err != nil {
		return "", fmt.Errorf("failed to encode identifier envelope for kind %q: %w", id.ActionKind(), err)
	}

	return string(wire), nil
}

// DecodeEnvelope parses a raw wire string back into an Envelope. A string not
// produced by Encode (e.g. an identifier created outside this layer) fails
// here and the response carrying it is unroutable.
func DecodeEnvelope(raw string) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return Envelope{}, fmt.Errorf("raw identifier is not a valid envelope: %w", err)
	}
	if env.Kind == "" {
		return Envelope{}, fmt.Errorf("envelope is missing a kind")
	}
	return env, nil
}

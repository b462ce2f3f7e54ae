package action_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinywideclouds/go-notification-actions/pkg/action"
)

type replyIdentifier struct {
	ThreadID string `json:"thread_id"`
}

func (replyIdentifier) ActionKind() string { return "messaging.reply" }

func TestEncode_RoundTrip(t *testing.T) {
	original := replyIdentifier{ThreadID: "thread-42"}

	wire, err := action.Encode(original)
	require.NoError(t, err)

	env, err := action.DecodeEnvelope(wire)
	require.NoError(t, err)

	// The envelope's kind must match the key handlers register under.
	assert.Equal(t, original.ActionKind(), env.Kind)

	var decoded replyIdentifier
	require.NoError(t, json.Unmarshal([]byte(env.JSON), &decoded))
	assert.Equal(t, original, decoded)
}

func TestDecodeEnvelope_Failures(t *testing.T) {
	t.Run("Rejects non-JSON identifier", func(t *testing.T) {
		// e.g. an identifier created by another framework entirely.
		_, err := action.DecodeEnvelope("some-external-action-id")
		assert.Error(t, err)
	})

	t.Run("Rejects envelope without a kind", func(t *testing.T) {
		_, err := action.DecodeEnvelope(`{"json":"{}"}`)
		assert.Error(t, err)
	})
}

func TestReservedIdentifiers(t *testing.T) {
	assert.Equal(t, action.DefaultKind, action.DefaultIdentifier{}.ActionKind())
	assert.Equal(t, action.DismissKind, action.DismissIdentifier{}.ActionKind())
	assert.NotEqual(t, action.DefaultKind, action.DismissKind)
}

// Package pipeline contains the response ingestion components: messages from
// the platform bridge are unmarshalled into center.Response values and fed to
// the router.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"

	"github.com/tinywideclouds/go-notification-actions/pkg/center"
)

// ResponseTransformer is a dataflow Transformer that safely unmarshals a raw
// message payload into a structured center.Response.
//
// A payload that is not valid Response JSON is skipped with an error so the
// StreamingService can apply its Nack/DLQ logic; it never reaches the router.
func ResponseTransformer(
	_ context.Context,
	msg *messagepipeline.Message,
) (*center.Response, bool, error) {
	var resp center.Response
	if err := json.Unmarshal(msg.Payload, &resp); err != nil {
		return nil, true, fmt.Errorf("failed to unmarshal response from message %s: %w", msg.ID, err)
	}
	if resp.ActionIdentifier == "" {
		return nil, true, fmt.Errorf("message %s carries no action identifier", msg.ID)
	}

	return &resp, false, nil
}

package pipeline

import (
	"context"
	"log/slog"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"

	"github.com/tinywideclouds/go-notification-actions/internal/api"
	"github.com/tinywideclouds/go-notification-actions/pkg/center"
)

// NewProcessor creates the pipeline stage that hands each decoded response to
// the router.
//
// The processor always returns nil: an unroutable or undecodable response is
// dropped (with a warning) inside the router, never Nacked back to the
// platform. Only the transformer's skip path sends messages to the DLQ.
func NewProcessor(
	router api.ResponseRouter,
	logger *slog.Logger,
) messagepipeline.StreamProcessor[center.Response] {

	return func(ctx context.Context, original messagepipeline.Message, resp *center.Response) error {
		procLogger := logger.With("pubsub_msg_id", original.ID)

		procLogger.Debug("Dispatching platform response", "action_identifier", resp.ActionIdentifier)
		router.HandleResponse(ctx, *resp)

		return nil
	}
}

// Package actionservice assembles the notification-action service: the
// response ingestion pipeline, the dispatch router, and the HTTP API for
// device registration and response callbacks.
package actionservice

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/microservice"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/tinywideclouds/go-notification-actions/actionservice/config"
	"github.com/tinywideclouds/go-notification-actions/internal/api"
	"github.com/tinywideclouds/go-notification-actions/internal/pipeline"
	"github.com/tinywideclouds/go-notification-actions/pkg/center"
	"github.com/tinywideclouds/go-notification-actions/pkg/router"
)

type Wrapper struct {
	*microservice.BaseServer
	pipelineService *messagepipeline.StreamingService[center.Response]
	router          *router.Router
	logger          *slog.Logger
}

// New assembles the service around an already-constructed Router.
func New(
	cfg *config.Config,
	consumer messagepipeline.MessageConsumer,
	actionRouter *router.Router,
	deviceStore center.DeviceStore,
	authMiddleware func(http.Handler) http.Handler,
	logger *slog.Logger,
) (*Wrapper, error) {

	// 1. Base server
	baseServer := microservice.NewBaseServer(logger, cfg.ListenAddr)

	// 2. Processor
	processor := pipeline.NewProcessor(actionRouter, logger)

	// 3. Pipeline
	streamingService, err := messagepipeline.NewStreamingService[center.Response](
		messagepipeline.StreamingServiceConfig{NumWorkers: cfg.NumResponseWorkers},
		consumer,
		pipeline.ResponseTransformer,
		processor,
		slog.New(slog.DiscardHandler),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create streaming service: %w", err)
	}

	// 4. API
	deviceAPI := api.NewDeviceAPI(deviceStore, logger)
	responseAPI := api.NewResponseAPI(actionRouter, logger)

	mux := baseServer.Mux()
	corsMiddleware := middleware.NewCorsMiddleware(cfg.CorsConfig, logger)

	handle := func(pattern string, handlerFunc http.HandlerFunc) {
		mux.Handle(pattern, corsMiddleware(authMiddleware(handlerFunc)))
	}

	// Device registration
	handle("POST /api/v1/register/apns", deviceAPI.RegisterAPNS)
	handle("POST /api/v1/register/web", deviceAPI.RegisterWeb)
	handle("POST /api/v1/unregister/apns", deviceAPI.UnregisterAPNS)
	handle("POST /api/v1/unregister/web", deviceAPI.UnregisterWeb)

	// Response callback (the service-worker bridge)
	handle("POST /api/v1/responses", responseAPI.HandleResponse)

	// Global OPTIONS for the API namespace (CORS preflight)
	mux.Handle("OPTIONS /api/v1/", corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Returns 200 OK with CORS headers handled by middleware.
	})))

	return &Wrapper{
		BaseServer:      baseServer,
		pipelineService: streamingService,
		router:          actionRouter,
		logger:          logger,
	}, nil
}

// Router exposes the dispatch core so callers can register handlers before
// Start.
func (w *Wrapper) Router() *router.Router {
	return w.router
}

func (w *Wrapper) Start(ctx context.Context) error {
	w.logger.Info("Response dispatch pipeline starting...")
	if err := w.pipelineService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start processing service: %w", err)
	}
	w.SetReady(true)
	w.logger.Info("Service is now ready.")
	return w.BaseServer.Start()
}

func (w *Wrapper) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down service components...")
	var finalErr error
	if err := w.pipelineService.Stop(ctx); err != nil {
		w.logger.Error("Response pipeline shutdown failed.", "err", err)
		finalErr = err
	}
	if err := w.BaseServer.Shutdown(ctx); err != nil {
		w.logger.Error("HTTP server shutdown failed.", "err", err)
		finalErr = err
	}
	w.logger.Info("Service shutdown complete.")
	return finalErr
}

package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/tinywideclouds/go-notification-actions/internal/platform/apns"
	"github.com/tinywideclouds/go-notification-actions/internal/platform/memory"
	"github.com/tinywideclouds/go-notification-actions/internal/platform/webpush"

	"github.com/tinywideclouds/go-notification-actions/internal/storage/cache"
	fsStore "github.com/tinywideclouds/go-notification-actions/internal/storage/firestore"

	"github.com/tinywideclouds/go-notification-actions/actionservice"
	"github.com/tinywideclouds/go-notification-actions/actionservice/config"
	"github.com/tinywideclouds/go-notification-actions/pkg/center"
	"github.com/tinywideclouds/go-notification-actions/pkg/router"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gopkg.in/yaml.v3"
)

//go:embed local.yaml
var configFile []byte

func main() {
	var logLevel slog.Level
	switch os.Getenv("LOG_LEVEL") {
	case "debug", "DEBUG":
		logLevel = slog.LevelDebug
	case "info", "INFO":
		logLevel = slog.LevelInfo
	case "warn", "WARN":
		logLevel = slog.LevelWarn
	case "error", "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})).With("service", "go-notification-actions")
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Config loading ---
	var yamlCfg config.YamlConfig
	if err := yaml.Unmarshal(configFile, &yamlCfg); err != nil {
		logger.Error("Failed to unmarshal embedded yaml config", "err", err)
		os.Exit(1)
	}
	baseCfg, _ := config.NewConfigFromYaml(&yamlCfg, logger)
	cfg, err := config.UpdateConfigWithEnvOverrides(baseCfg, logger)
	if err != nil {
		logger.Error("Config failed", "err", err)
		os.Exit(1)
	}

	// --- Infrastructure clients ---
	psClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		logger.Error("PubSub client failed", "err", err)
		os.Exit(1)
	}
	defer psClient.Close()

	fsClient, err := firestore.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		logger.Error("Firestore client failed", "err", err)
		os.Exit(1)
	}
	defer fsClient.Close()

	// --- Device store (decorated) ---
	var deviceStore center.DeviceStore = fsStore.NewDeviceStore(fsClient)
	logger.Info("DeviceStore initialized", "type", "firestore")

	if cfg.Redis.Enabled {
		logger.Info("Initializing Redis cache layer...", "addr", cfg.Redis.Addr)
		redisClient, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Error("Failed to connect to Redis", "err", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		deviceStore = cache.NewCachedDeviceStore(deviceStore, redisClient, 24*time.Hour)
		logger.Info("DeviceStore upgraded", "type", "redis_cached_firestore")
	}

	// --- Auth ---
	identityURL := os.Getenv("IDENTITY_SERVICE_URL")
	if identityURL == "" {
		identityURL = "http://localhost:3000"
	}
	jwksURL, _ := middleware.DiscoverAndValidateJWTConfig(identityURL, middleware.RSA256, logger)
	authMiddleware, _ := middleware.NewJWKSAuthMiddleware(jwksURL, logger)

	// --- Platform center ---
	platformCenter, err := newCenter(cfg, deviceStore, logger)
	if err != nil {
		logger.Error("Center creation failed", "platform", cfg.Platform, "err", err)
		os.Exit(1)
	}
	logger.Info("Platform center initialized", "platform", cfg.Platform)

	// --- Router ---
	actionRouter := router.New(platformCenter, logger)
	granted := actionRouter.RequestAuthorization(ctx, center.AuthorizationOptions{Alert: true, Badge: true})
	logger.Info("Platform authorization", "granted", granted)

	// --- Consumer & service ---
	consumer, err := newResponseConsumer(ctx, cfg, psClient, logger)
	if err != nil {
		logger.Error("Consumer creation failed", "err", err)
		os.Exit(1)
	}

	service, err := actionservice.New(
		cfg,
		consumer,
		actionRouter,
		deviceStore,
		authMiddleware,
		logger,
	)
	if err != nil {
		logger.Error("Service creation failed", "err", err)
		os.Exit(1)
	}

	logger.Info("Starting service...")
	if err := service.Start(ctx); err != nil {
		logger.Error("Service shutdown with error", "err", err)
		os.Exit(1)
	}
}

func newCenter(cfg *config.Config, deviceStore center.DeviceStore, logger *slog.Logger) (center.Center, error) {
	switch cfg.Platform {
	case config.PlatformWebPush:
		if cfg.Vapid.PrivateKey == "" || cfg.Vapid.PublicKey == "" {
			logger.Warn("VAPID keys missing in configuration. Web push will fail.")
		}
		return webpush.NewCenter(webpush.VapidConfig{
			PublicKey:       cfg.Vapid.PublicKey,
			PrivateKey:      cfg.Vapid.PrivateKey,
			SubscriberEmail: cfg.Vapid.SubscriberEmail,
		}, deviceStore, logger), nil
	case config.PlatformAPNS:
		return apns.NewCenter(apns.Config{
			KeyID:        cfg.APNS.KeyID,
			TeamID:       cfg.APNS.TeamID,
			BundleID:     cfg.APNS.BundleID,
			P8KeyContent: cfg.APNS.P8KeyContent,
		}, deviceStore, logger)
	case config.PlatformMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown platform %q", cfg.Platform)
	}
}

func newResponseConsumer(ctx context.Context, cfg *config.Config, psClient *pubsub.Client, logger *slog.Logger) (messagepipeline.MessageConsumer, error) {
	sub := convertPubsub(cfg.ProjectID, cfg.PubsubConsumerConfig.SubscriptionID, "subscriptions")
	topicID := convertPubsub(cfg.ProjectID, cfg.TopicID, "topics")
	dlt := convertPubsub(cfg.ProjectID, cfg.SubscriptionDLQTopicID, "topics")

	subConfig := &pubsubpb.Subscription{
		Name:               sub,
		Topic:              topicID,
		AckDeadlineSeconds: 10,
		DeadLetterPolicy: &pubsubpb.DeadLetterPolicy{
			DeadLetterTopic:     dlt,
			MaxDeliveryAttempts: 5,
		},
		EnableMessageOrdering: false,
	}
	logger.Debug("Ensuring subscription exists", "sub", subConfig.Name, "topic", subConfig.Topic)
	_, err := psClient.SubscriptionAdminClient.CreateSubscription(ctx, subConfig)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			logger.Debug("Subscription already exists, skipping creation", "sub", subConfig.Name)
		} else {
			logger.Error("Failed to create subscription", "sub", subConfig.Name, "err", err)
			return nil, fmt.Errorf("could not create sub: %s", sub)
		}
	}

	return messagepipeline.NewGooglePubsubConsumer(
		messagepipeline.NewGooglePubsubConsumerDefaults(subConfig.Name), psClient, logger,
	)
}

type PS string

func convertPubsub(project, id string, ps PS) string {
	return fmt.Sprintf("projects/%s/%s/%s", project, ps, id)
}

//go:build integration

package actionservice_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/google/uuid"
	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/illmade-knight/go-test/emulators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-platform/pkg/net/v1"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/tinywideclouds/go-notification-actions/actionservice"
	"github.com/tinywideclouds/go-notification-actions/actionservice/config"
	"github.com/tinywideclouds/go-notification-actions/internal/platform/memory"
	fsstore "github.com/tinywideclouds/go-notification-actions/internal/storage/firestore"
	"github.com/tinywideclouds/go-notification-actions/pkg/action"
	"github.com/tinywideclouds/go-notification-actions/pkg/center"
	"github.com/tinywideclouds/go-notification-actions/pkg/router"
)

// --- Fixtures ---

type approveIdentifier struct {
	ItemID string `json:"item_id"`
}

func (approveIdentifier) ActionKind() string { return "review.approve" }

type reviewData struct {
	DocumentID string `json:"document_id"`
}

// recordingHandler counts invocations and keeps the last decoded payloads.
type recordingHandler struct {
	mu         sync.Mutex
	callCount  int
	identifier approveIdentifier
	data       reviewData
	userText   *string
}

func (h *recordingHandler) Handle(_ context.Context, id approveIdentifier, data reviewData, userText *string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callCount++
	h.identifier = id
	h.data = data
	h.userText = userText
	return nil
}

func (h *recordingHandler) CallCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.callCount
}

// --- Test ---

func TestActionService_Integration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	projectID := "test-project-integ"

	// 1. Emulators
	pubsubConn := emulators.SetupPubsubEmulator(t, ctx, emulators.GetDefaultPubsubConfig(projectID))
	psClient, err := pubsub.NewClient(ctx, projectID, pubsubConn.ClientOptions...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = psClient.Close() })

	fsConn := emulators.SetupFirestoreEmulator(t, ctx, emulators.GetDefaultFirestoreConfig(projectID))
	fsClient, err := firestore.NewClient(ctx, projectID, fsConn.ClientOptions...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fsClient.Close() })

	// 2. Device store (Firestore implementation)
	deviceStore := fsstore.NewDeviceStore(fsClient)

	t.Run("Full Lifecycle: Schedule -> Respond -> Dispatch", func(t *testing.T) {
		// Arrange
		topicID := "responses-" + uuid.NewString()
		subID := topicID + "-sub"
		createPubsubResources(t, ctx, psClient, projectID, topicID, subID)

		platformCenter := memory.New()
		actionRouter := router.New(platformCenter, logger)

		handler := &recordingHandler{}
		router.RegisterHandler[approveIdentifier, reviewData](actionRouter, handler)

		consumerCfg := *messagepipeline.NewGooglePubsubConsumerDefaults(subID)
		consumer, err := messagepipeline.NewGooglePubsubConsumer(&consumerCfg, psClient, logger)
		require.NoError(t, err)

		svc, err := actionservice.New(
			&config.Config{ListenAddr: ":0", NumResponseWorkers: 2},
			consumer,
			actionRouter,
			deviceStore,
			func(h http.Handler) http.Handler { return h }, // No-op auth
			logger,
		)
		require.NoError(t, err)

		svcCtx, svcCancel := context.WithCancel(ctx)
		defer svcCancel()
		go func() { _ = svc.Start(svcCtx) }()
		t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })

		// Step A: Register a device for the recipient.
		userURN, _ := urn.Parse("urn:sm:user:integ-user")
		var sub center.WebSubscription
		sub.Endpoint = "https://push.example.com/integ"
		sub.Keys.P256dh = []byte("p256dh")
		sub.Keys.Auth = []byte("auth")
		require.NoError(t, deviceStore.RegisterWeb(ctx, userURN, sub))

		devices, err := deviceStore.Fetch(ctx, userURN)
		require.NoError(t, err)
		require.Len(t, devices.WebSubscriptions, 1)

		// Step B: Schedule a notification carrying typed data and actions.
		req := action.NewRequest("review", time.Now().Add(time.Minute),
			reviewData{DocumentID: "doc-42"},
			action.NewButtonAction(approveIdentifier{ItemID: "item-7"}, "Approve", "check", false),
		)
		require.NoError(t, router.Schedule(ctx, actionRouter, userURN, req))

		scheduled := platformCenter.Scheduled()
		require.Len(t, scheduled, 1)
		reviewCategory, ok := platformCenter.Category("review")
		require.True(t, ok)
		require.Len(t, reviewCategory.Actions, 1)

		// Step C: Publish the response a platform would deliver for that
		// action, exactly as the scheduled request encoded it.
		userText := "looks good"
		resp := center.Response{
			ActionIdentifier: reviewCategory.Actions[0].Identifier,
			UserInfo:         scheduled[0].UserInfo,
			UserText:         &userText,
		}
		payload, _ := json.Marshal(resp)
		_, err = psClient.Publisher(topicID).Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
		require.NoError(t, err)

		// Assert: the typed handler fires with the decoded payloads.
		require.Eventually(t, func() bool {
			return handler.CallCount() == 1
		}, 10*time.Second, 100*time.Millisecond)

		assert.Equal(t, "item-7", handler.identifier.ItemID)
		assert.Equal(t, "doc-42", handler.data.DocumentID)
		require.NotNil(t, handler.userText)
		assert.Equal(t, "looks good", *handler.userText)
	})
}

func createPubsubResources(t *testing.T, ctx context.Context, client *pubsub.Client, projectID, topicID, subID string) {
	t.Helper()
	topicName := fmt.Sprintf("projects/%s/topics/%s", projectID, topicID)
	_, err := client.TopicAdminClient.CreateTopic(ctx, &pubsubpb.Topic{Name: topicName})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.TopicAdminClient.DeleteTopic(context.Background(), &pubsubpb.DeleteTopicRequest{Topic: topicName})
	})

	subName := fmt.Sprintf("projects/%s/subscriptions/%s", projectID, subID)
	sub := &pubsubpb.Subscription{
		Name:               subName,
		Topic:              topicName,
		AckDeadlineSeconds: 10,
		RetryPolicy: &pubsubpb.RetryPolicy{
			MinimumBackoff: &durationpb.Duration{Seconds: 1},
		},
	}
	_, err = client.SubscriptionAdminClient.CreateSubscription(ctx, sub)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.SubscriptionAdminClient.DeleteSubscription(context.Background(), &pubsubpb.DeleteSubscriptionRequest{Subscription: subName})
	})
}

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-platform/pkg/net/v1"

	"github.com/tinywideclouds/go-notification-actions/internal/api"
	"github.com/tinywideclouds/go-notification-actions/pkg/center"
)

// --- Mocks ---

type MockDeviceStore struct {
	mock.Mock
}

func (m *MockDeviceStore) RegisterAPNS(ctx context.Context, r urn.URN, token string) error {
	return m.Called(ctx, r, token).Error(0)
}
func (m *MockDeviceStore) UnregisterAPNS(ctx context.Context, r urn.URN, token string) error {
	return m.Called(ctx, r, token).Error(0)
}
func (m *MockDeviceStore) RegisterWeb(ctx context.Context, r urn.URN, sub center.WebSubscription) error {
	return m.Called(ctx, r, sub).Error(0)
}
func (m *MockDeviceStore) UnregisterWeb(ctx context.Context, r urn.URN, endpoint string) error {
	return m.Called(ctx, r, endpoint).Error(0)
}
func (m *MockDeviceStore) Fetch(ctx context.Context, r urn.URN) (*center.Devices, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(*center.Devices), args.Error(1)
}

// --- Setup ---

func setupAPI(t *testing.T) (*api.DeviceAPI, *MockDeviceStore) {
	t.Helper()
	mockStore := new(MockDeviceStore)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return api.NewDeviceAPI(mockStore, logger), mockStore
}

// withUser injects the user handle into the request context, simulating the
// auth middleware.
func withUser(req *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUser(req.Context(), userID, userID, "")
	return req.WithContext(ctx)
}

// --- Tests ---

func TestRegisterAPNS(t *testing.T) {
	apiHandler, mockStore := setupAPI(t)
	targetURN, _ := urn.Parse("urn:test:user:123")

	t.Run("Success", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"token": "apns-token-abc"})
		req := withUser(httptest.NewRequest("POST", "/api/v1/register/apns", bytes.NewReader(body)), targetURN.String())
		w := httptest.NewRecorder()

		mockStore.On("RegisterAPNS", mock.Anything, targetURN, "apns-token-abc").Return(nil)

		apiHandler.RegisterAPNS(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockStore.AssertExpectations(t)
	})

	t.Run("Rejects empty token", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"token": ""})
		req := withUser(httptest.NewRequest("POST", "/api/v1/register/apns", bytes.NewReader(body)), targetURN.String())
		w := httptest.NewRecorder()

		apiHandler.RegisterAPNS(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Rejects missing user", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"token": "tok"})
		req := httptest.NewRequest("POST", "/api/v1/register/apns", bytes.NewReader(body))
		w := httptest.NewRecorder()

		apiHandler.RegisterAPNS(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRegisterWeb(t *testing.T) {
	apiHandler, mockStore := setupAPI(t)
	targetURN, _ := urn.Parse("urn:test:user:456")

	t.Run("Success", func(t *testing.T) {
		var sub center.WebSubscription
		sub.Endpoint = "https://push.example.com/abc"
		sub.Keys.P256dh = []byte("p256dh-key")
		sub.Keys.Auth = []byte("auth-key")
		body, _ := json.Marshal(sub)

		req := withUser(httptest.NewRequest("POST", "/api/v1/register/web", bytes.NewReader(body)), targetURN.String())
		w := httptest.NewRecorder()

		mockStore.On("RegisterWeb", mock.Anything, targetURN, sub).Return(nil)

		apiHandler.RegisterWeb(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockStore.AssertExpectations(t)
	})

	t.Run("Rejects incomplete subscription", func(t *testing.T) {
		var sub center.WebSubscription
		sub.Endpoint = "https://push.example.com/abc" // no keys
		body, _ := json.Marshal(sub)

		req := withUser(httptest.NewRequest("POST", "/api/v1/register/web", bytes.NewReader(body)), targetURN.String())
		w := httptest.NewRecorder()

		apiHandler.RegisterWeb(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUnregisterWeb(t *testing.T) {
	apiHandler, mockStore := setupAPI(t)
	targetURN, _ := urn.Parse("urn:test:user:789")

	body, _ := json.Marshal(map[string]string{"endpoint": "https://push.example.com/dead"})
	req := withUser(httptest.NewRequest("POST", "/api/v1/unregister/web", bytes.NewReader(body)), targetURN.String())
	w := httptest.NewRecorder()

	mockStore.On("UnregisterWeb", mock.Anything, targetURN, "https://push.example.com/dead").Return(nil)

	apiHandler.UnregisterWeb(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockStore.AssertExpectations(t)
}

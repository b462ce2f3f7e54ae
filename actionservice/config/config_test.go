package config_test

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinywideclouds/go-notification-actions/actionservice/config"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUpdateConfigWithEnvOverrides(t *testing.T) {
	logger := newTestLogger()

	baseConfig := func() *config.Config {
		return &config.Config{
			ProjectID:          "base-project",
			ListenAddr:         ":8080",
			SubscriptionID:     "base-sub",
			NumResponseWorkers: 2,
			Platform:           config.PlatformWebPush,
			Vapid: config.VapidConfig{
				PublicKey:  "base-pub",
				PrivateKey: "base-priv",
			},
		}
	}

	t.Run("Success - All overrides applied", func(t *testing.T) {
		cfg := baseConfig()

		t.Setenv("PROJECT_ID", "env-project")
		t.Setenv("PORT", "9090")
		t.Setenv("SUBSCRIPTION_ID", "env-sub")
		t.Setenv("VAPID_PUBLIC_KEY", "env-pub")
		t.Setenv("VAPID_PRIVATE_KEY", "env-priv")
		t.Setenv("VAPID_SUB_EMAIL", "env@test.com")

		finalCfg, err := config.UpdateConfigWithEnvOverrides(cfg, logger)
		require.NoError(t, err)

		assert.Equal(t, "env-project", finalCfg.ProjectID)
		assert.Equal(t, ":9090", finalCfg.ListenAddr)
		assert.Equal(t, "env-sub", finalCfg.SubscriptionID)
		assert.Equal(t, "env-pub", finalCfg.Vapid.PublicKey)
		assert.Equal(t, "env-priv", finalCfg.Vapid.PrivateKey)
		assert.Equal(t, "env@test.com", finalCfg.Vapid.SubscriberEmail)
	})

	t.Run("Success - Defaults preserved", func(t *testing.T) {
		cfg := baseConfig()
		finalCfg, err := config.UpdateConfigWithEnvOverrides(cfg, logger)
		require.NoError(t, err)

		assert.Equal(t, "base-project", finalCfg.ProjectID)
		assert.Equal(t, "base-pub", finalCfg.Vapid.PublicKey)
	})

	t.Run("Default platform is webpush", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Platform = ""
		finalCfg, err := config.UpdateConfigWithEnvOverrides(cfg, logger)
		require.NoError(t, err)
		assert.Equal(t, config.PlatformWebPush, finalCfg.Platform)
	})

	t.Run("Default worker count is serial", func(t *testing.T) {
		cfg := baseConfig()
		cfg.NumResponseWorkers = 0
		finalCfg, err := config.UpdateConfigWithEnvOverrides(cfg, logger)
		require.NoError(t, err)
		assert.Equal(t, 1, finalCfg.NumResponseWorkers)
	})

	t.Run("Validation failure - Missing ProjectID", func(t *testing.T) {
		cfg := &config.Config{SubscriptionID: "sub"}
		os.Unsetenv("PROJECT_ID")
		_, err := config.UpdateConfigWithEnvOverrides(cfg, logger)
		assert.Error(t, err)
	})

	t.Run("Validation failure - Unknown platform", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Platform = "carrier-pigeon"
		_, err := config.UpdateConfigWithEnvOverrides(cfg, logger)
		assert.Error(t, err)
	})

	t.Run("Validation failure - APNs without key material", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Platform = config.PlatformAPNS
		os.Unsetenv("APNS_P8_KEY")
		_, err := config.UpdateConfigWithEnvOverrides(cfg, logger)
		assert.Error(t, err)
	})
}

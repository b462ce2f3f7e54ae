// Package cache adds a Redis read-aside layer on top of a durable
// DeviceStore.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/tinywideclouds/go-platform/pkg/net/v1"

	"github.com/tinywideclouds/go-notification-actions/pkg/center"
)

// CacheClient defines the subset of Redis commands we need.
type CacheClient interface {
	// Get returns the value or a specific error if not found.
	Get(ctx context.Context, key string, dest interface{}) error
	// Set stores the value with a TTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Del removes the key.
	Del(ctx context.Context, key string) error
}

// CachedDeviceStore is a decorator that adds read-aside caching to any
// DeviceStore. Writes invalidate, so an unregistered device stops receiving
// notifications immediately rather than at TTL expiry.
type CachedDeviceStore struct {
	realStore center.DeviceStore
	cache     CacheClient
	ttl       time.Duration
}

func NewCachedDeviceStore(realStore center.DeviceStore, cache CacheClient, ttl time.Duration) *CachedDeviceStore {
	return &CachedDeviceStore{
		realStore: realStore,
		cache:     cache,
		ttl:       ttl,
	}
}

// --- READ PATH (read-aside) ---

func (s *CachedDeviceStore) Fetch(ctx context.Context, recipient urn.URN) (*center.Devices, error) {
	key := s.cacheKey(recipient)

	var cached center.Devices
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	fresh, err := s.realStore.Fetch(ctx, recipient)
	if err != nil {
		return nil, err
	}

	// Caching is an optimization, not a transaction: if Redis is down we just
	// serve from the durable store.
	_ = s.cache.Set(ctx, key, fresh, s.ttl)

	return fresh, nil
}

// --- WRITE PATHS (invalidate-on-write) ---

func (s *CachedDeviceStore) RegisterAPNS(ctx context.Context, recipient urn.URN, token string) error {
	if err := s.realStore.RegisterAPNS(ctx, recipient, token); err != nil {
		return err
	}
	return s.invalidate(ctx, recipient)
}

func (s *CachedDeviceStore) UnregisterAPNS(ctx context.Context, recipient urn.URN, token string) error {
	if err := s.realStore.UnregisterAPNS(ctx, recipient, token); err != nil {
		return err
	}
	return s.invalidate(ctx, recipient)
}

func (s *CachedDeviceStore) RegisterWeb(ctx context.Context, recipient urn.URN, sub center.WebSubscription) error {
	if err := s.realStore.RegisterWeb(ctx, recipient, sub); err != nil {
		return err
	}
	return s.invalidate(ctx, recipient)
}

func (s *CachedDeviceStore) UnregisterWeb(ctx context.Context, recipient urn.URN, endpoint string) error {
	if err := s.realStore.UnregisterWeb(ctx, recipient, endpoint); err != nil {
		return err
	}
	return s.invalidate(ctx, recipient)
}

// --- Helpers ---

func (s *CachedDeviceStore) invalidate(ctx context.Context, recipient urn.URN) error {
	// Delete the key; the next Fetch is forced through to the durable store.
	return s.cache.Del(ctx, s.cacheKey(recipient))
}

func (s *CachedDeviceStore) cacheKey(recipient urn.URN) string {
	return fmt.Sprintf("notify:devices:%s", recipient.String())
}

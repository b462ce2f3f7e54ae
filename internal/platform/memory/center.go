// Package memory provides an in-process Center used by unit tests and local
// runs. It records what a real platform would deliver.
package memory

import (
	"context"
	"sync"

	"github.com/tinywideclouds/go-notification-actions/pkg/center"
)

// Center is a mutex-guarded in-memory implementation of center.Center.
type Center struct {
	mu         sync.Mutex
	authorized bool
	categories []center.Category
	scheduled  []center.NativeRequest

	// ScheduleErr, when set, is returned by every Schedule call. Lets tests
	// exercise the platform-rejection path.
	ScheduleErr error
}

func New() *Center {
	return &Center{}
}

func (c *Center) RequestAuthorization(_ context.Context, _ center.AuthorizationOptions) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authorized = true
	return true, nil
}

func (c *Center) Categories(_ context.Context) ([]center.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]center.Category, len(c.categories))
	copy(out, c.categories)
	return out, nil
}

func (c *Center) SetCategories(_ context.Context, categories []center.Category) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories = make([]center.Category, len(categories))
	copy(c.categories, categories)
	return nil
}

func (c *Center) Schedule(_ context.Context, req center.NativeRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ScheduleErr != nil {
		return c.ScheduleErr
	}
	c.scheduled = append(c.scheduled, req)
	return nil
}

// Scheduled returns a copy of every request accepted so far.
func (c *Center) Scheduled() []center.NativeRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]center.NativeRequest, len(c.scheduled))
	copy(out, c.scheduled)
	return out
}

// Category returns the stored category for key, if present.
func (c *Center) Category(key string) (center.Category, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cat := range c.categories {
		if cat.Key == key {
			return cat, true
		}
	}
	return center.Category{}, false
}

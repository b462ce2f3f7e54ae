package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinywideclouds/go-notification-actions/internal/platform/memory"
	"github.com/tinywideclouds/go-notification-actions/pkg/center"
)

func TestCenter_CategoriesAreCopied(t *testing.T) {
	ctx := context.Background()
	c := memory.New()

	require.NoError(t, c.SetCategories(ctx, []center.Category{{Key: "one"}}))

	got, err := c.Categories(ctx)
	require.NoError(t, err)
	got[0].Key = "mutated"

	again, err := c.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one", again[0].Key)
}

func TestCenter_ScheduleRecordsAndFails(t *testing.T) {
	ctx := context.Background()
	c := memory.New()

	require.NoError(t, c.Schedule(ctx, center.NativeRequest{ID: "r1"}))
	assert.Len(t, c.Scheduled(), 1)

	c.ScheduleErr = assert.AnError
	assert.Error(t, c.Schedule(ctx, center.NativeRequest{ID: "r2"}))
	assert.Len(t, c.Scheduled(), 1)
}

func TestCenter_CategoryLookup(t *testing.T) {
	ctx := context.Background()
	c := memory.New()
	require.NoError(t, c.SetCategories(ctx, []center.Category{{Key: "a"}, {Key: "b"}}))

	cat, ok := c.Category("b")
	assert.True(t, ok)
	assert.Equal(t, "b", cat.Key)

	_, ok = c.Category("missing")
	assert.False(t, ok)
}

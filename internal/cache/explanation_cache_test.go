package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-server/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newMemoryCache(t *testing.T) *ExplanationCache {
	t.Helper()
	c, err := New(8, "", time.Hour, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_GetMiss(t *testing.T) {
	c := newMemoryCache(t)

	explanation, ok := c.Get(context.Background(), "absent-key")
	assert.False(t, ok)
	assert.Nil(t, explanation)
}

func TestCache_SetAndGet(t *testing.T) {
	c := newMemoryCache(t)
	ctx := context.Background()

	stored := &domain.Explanation{
		Summary:        "summary",
		Mechanism:      "mechanism",
		ClinicalImpact: "impact",
	}
	c.Set(ctx, "CLOPIDOGREL|CYP2C19|*2/*1|IM|Adjust Dosage", stored)

	loaded, ok := c.Get(ctx, "CLOPIDOGREL|CYP2C19|*2/*1|IM|Adjust Dosage")
	require.True(t, ok)
	assert.Equal(t, *stored, *loaded)
}

func TestCache_SetNilIgnored(t *testing.T) {
	c := newMemoryCache(t)
	ctx := context.Background()

	c.Set(ctx, "key", nil)

	_, ok := c.Get(ctx, "key")
	assert.False(t, ok)
}

func TestCache_LRUEviction(t *testing.T) {
	c, err := New(2, "", time.Hour, testLogger())
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	e := &domain.Explanation{Summary: "s", Mechanism: "m", ClinicalImpact: "i"}
	c.Set(ctx, "a", e)
	c.Set(ctx, "b", e)
	c.Set(ctx, "c", e)

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok, "oldest entry should have been evicted")
	_, ok = c.Get(ctx, "c")
	assert.True(t, ok)
}

func TestCache_InvalidRedisURL(t *testing.T) {
	_, err := New(8, "not-a-url", time.Hour, testLogger())
	assert.Error(t, err)
}

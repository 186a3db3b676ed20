package ticketeta

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKeyNormalization(t *testing.T) {
	a := CacheKey("Printer on floor 3 is   JAMMED again", 12)
	b := CacheKey("  printer on floor 3 is jammed\tagain ", 12)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	assert.NotEqual(t, a, CacheKey("Printer on floor 3 is jammed again", 13), "location is part of the key")
}

func TestResultCacheRoundTrip(t *testing.T) {
	mc := newMemCache()
	rc := NewResultCache(mc, 0, time.Second, nil)
	ctx := context.Background()

	conf := 0.82
	in := &Result{TicketID: 101, CustomerID: 55, EstimatedHours: 5, Method: MethodActiveVector, Confidence: &conf, Valid: true, Notification: "hello"}
	rc.Put(ctx, "k", in)

	got, ok := rc.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, 101, got.TicketID)
	assert.Equal(t, "hello", got.Notification)
	require.NotNil(t, got.Confidence)
	assert.InDelta(t, 0.82, *got.Confidence, 1e-9)
}

func TestResultCacheNilIsDisabled(t *testing.T) {
	rc := NewResultCache(nil, 0, 0, nil)
	rc.Put(context.Background(), "k", &Result{})
	_, ok := rc.Get(context.Background(), "k")
	assert.False(t, ok)
	assert.NoError(t, rc.Close())
}

func TestResultCacheOutageIsMiss(t *testing.T) {
	mc := newMemCache()
	mc.down = true
	rc := NewResultCache(mc, 0, 0, nil)

	rc.Put(context.Background(), "k", &Result{EstimatedHours: 3})
	_, ok := rc.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestResultCacheUndecodableIsMiss(t *testing.T) {
	mc := newMemCache()
	mc.entries["k"] = []byte("{broken")
	rc := NewResultCache(mc, 0, 0, nil)

	_, ok := rc.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestResultCacheNoWriteAfterCancel(t *testing.T) {
	mc := newMemCache()
	rc := NewResultCache(mc, 0, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rc.Put(ctx, "k", &Result{EstimatedHours: 3})

	assert.Zero(t, mc.writes)
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := withTimeout(context.Background(), 0)
	defer cancel()
	_, ok := ctx.Deadline()
	assert.False(t, ok)

	ctx2, cancel2 := withTimeout(context.Background(), time.Minute)
	defer cancel2()
	_, ok = ctx2.Deadline()
	assert.True(t, ok)
}

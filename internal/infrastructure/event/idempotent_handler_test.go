package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// failingStore always errors to exercise the fail-open path
type failingStore struct{}

func (failingStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	return false, errors.New("store unavailable")
}

func (failingStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	return false, errors.New("store unavailable")
}

func (failingStore) Close() error { return nil }

func TestIdempotentHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("processes a new event once", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		inner := &recordingHandler{}
		handler := NewIdempotentHandler(inner, store, zap.NewNop())

		event := newTestEvent("OrderCreated")
		require.NoError(t, handler.Handle(ctx, event))
		require.NoError(t, handler.Handle(ctx, event))

		assert.Equal(t, 1, inner.received(), "second delivery must be suppressed")

		stats := handler.GetMetrics().Stats()
		assert.Equal(t, int64(1), stats.EventsProcessed)
		assert.Equal(t, int64(1), stats.EventsDuplicate)
	})

	t.Run("distinct events all pass through", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		inner := &recordingHandler{}
		handler := NewIdempotentHandler(inner, store, zap.NewNop())

		require.NoError(t, handler.Handle(ctx, newTestEvent("OrderCreated")))
		require.NoError(t, handler.Handle(ctx, newTestEvent("OrderCreated")))

		assert.Equal(t, 2, inner.received())
	})

	t.Run("disabled idempotency always processes", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		inner := &recordingHandler{}
		handler := NewIdempotentHandler(inner, store, zap.NewNop(),
			WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false}))

		event := newTestEvent("OrderCreated")
		require.NoError(t, handler.Handle(ctx, event))
		require.NoError(t, handler.Handle(ctx, event))

		assert.Equal(t, 2, inner.received())
	})

	t.Run("store failure falls open to processing", func(t *testing.T) {
		inner := &recordingHandler{}
		handler := NewIdempotentHandler(inner, failingStore{}, zap.NewNop())

		require.NoError(t, handler.Handle(ctx, newTestEvent("OrderCreated")))
		assert.Equal(t, 1, inner.received())
	})

	t.Run("inner failure is propagated and counted", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		inner := &recordingHandler{err: errors.New("boom")}
		handler := NewIdempotentHandler(inner, store, zap.NewNop())

		err := handler.Handle(ctx, newTestEvent("OrderCreated"))
		require.Error(t, err)

		stats := handler.GetMetrics().Stats()
		assert.Equal(t, int64(1), stats.EventsFailed)
		assert.Equal(t, int64(0), stats.EventsProcessed)
	})

	t.Run("shared metrics can be injected", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		metrics := &IdempotencyMetrics{}
		handler := NewIdempotentHandler(&recordingHandler{}, store, zap.NewNop(),
			WithIdempotencyMetrics(metrics))

		require.NoError(t, handler.Handle(ctx, newTestEvent("OrderCreated")))
		assert.Equal(t, int64(1), metrics.Stats().EventsProcessed)
	})
}

func TestIdempotentHandler_EventTypes(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	inner := &recordingHandler{types: []string{"OrderCreated"}}
	handler := NewIdempotentHandler(inner, store, zap.NewNop())

	assert.Equal(t, []string{"OrderCreated"}, handler.EventTypes())
}

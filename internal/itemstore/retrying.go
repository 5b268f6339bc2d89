package itemstore

import (
	"context"

	"github.com/moldovancsaba/amanoba-sub006/internal/retry"
	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

// RetryingStore wraps a Store so transient failures are retried with linear backoff.
// NotFound and every other non-transient error pass through untouched.
type RetryingStore struct {
	inner  Store
	policy retry.Policy
}

// NewRetryingStore decorates inner with policy.
func NewRetryingStore(inner Store, policy retry.Policy) *RetryingStore {
	return &RetryingStore{inner: inner, policy: policy}
}

// Unwrap returns the decorated store.
func (s *RetryingStore) Unwrap() Store {
	return s.inner
}

// ListAll implements Store.
func (s *RetryingStore) ListAll(ctx context.Context, filter Filter) ([]types.Item, error) {
	return retry.Value(ctx, s.policy, "list items", func(ctx context.Context) ([]types.Item, error) {
		return s.inner.ListAll(ctx, filter)
	})
}

// GetByID implements Store.
func (s *RetryingStore) GetByID(ctx context.Context, id string) (*types.Item, error) {
	return retry.Value(ctx, s.policy, "get item "+id, func(ctx context.Context) (*types.Item, error) {
		return s.inner.GetByID(ctx, id)
	})
}

// ApplyPatch implements Store. Patches carry absolute values, so a replay after an
// ambiguous failure produces the same stored item.
func (s *RetryingStore) ApplyPatch(ctx context.Context, id string, patch types.ItemPatch) (*types.Item, error) {
	return retry.Value(ctx, s.policy, "patch item "+id, func(ctx context.Context) (*types.Item, error) {
		return s.inner.ApplyPatch(ctx, id, patch)
	})
}

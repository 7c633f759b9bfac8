package storage

import (
	"context"
	"log/slog"

	"budgetweek/internal/cache"
)

// CachedStore is a read-through, write-through cache in front of a Store.
type CachedStore struct {
	next  Store
	blobs cache.Cache[[]byte]
}

func NewCachedStore(next Store, blobs cache.Cache[[]byte]) *CachedStore {
	return &CachedStore{next: next, blobs: blobs}
}

func (c *CachedStore) Load(ctx context.Context, key string) ([]byte, error) {
	if b, ok := c.blobs.Get(key); ok {
		return append([]byte(nil), b...), nil
	}
	b, err := c.next.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	c.blobs.Set(key, append([]byte(nil), b...))
	return b, nil
}

func (c *CachedStore) Save(ctx context.Context, key string, blob []byte) error {
	if err := c.next.Save(ctx, key, blob); err != nil {
		// The backing write may have partially applied.
		c.blobs.Delete(key)
		return err
	}
	c.blobs.Set(key, append([]byte(nil), blob...))
	return nil
}

func (c *CachedStore) Delete(ctx context.Context, key string) error {
	c.blobs.Delete(key)
	if err := c.next.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "Delete failed behind cache", "key", key, "error", err)
		return err
	}
	return nil
}

// Keys passes through to the backing store when it can list keys.
func (c *CachedStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	lister, ok := c.next.(KeyLister)
	if !ok {
		return nil, nil
	}
	return lister.Keys(ctx, prefix)
}

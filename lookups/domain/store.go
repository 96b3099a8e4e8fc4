package domain

import "context"

// Store is the durable key-value surface the cache persists buckets into.
// Implementations are assumed reliable but not transactional; a Put may
// succeed without the value actually being readable afterwards.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Put writes value under key, replacing any previous value.
	Put(ctx context.Context, key string, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// StoreKey maps a bucket to its key inside the store, honoring an optional
// namespace prefix.
func StoreKey(prefix string, kind BucketKind) string {
	if prefix == "" {
		return string(kind)
	}
	return prefix + string(kind)
}

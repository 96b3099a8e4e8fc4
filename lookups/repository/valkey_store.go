package repository

import (
	"context"
	"fmt"

	valkeylib "github.com/valkey-io/valkey-go"

	"github.com/AzielCF/az-lookups/infrastructure/valkey"
)

// ValkeyStore implements domain.Store on top of Valkey string keys.
// Values never expire: the cache decides when they are replaced.
type ValkeyStore struct {
	client *valkey.Client
	prefix string
}

// NewValkeyStore creates a new ValkeyStore instance.
// The client should be created via valkey.NewClient and passed here.
func NewValkeyStore(client *valkey.Client) *ValkeyStore {
	return &ValkeyStore{
		client: client,
		prefix: client.Key("lookups") + ":",
	}
}

func (s *ValkeyStore) fullKey(key string) string {
	return s.prefix + key
}

func (s *ValkeyStore) inner() valkeylib.Client {
	return s.client.Inner()
}

// Get retrieves a value. Returns ("", false, nil) if the key does not exist.
func (s *ValkeyStore) Get(ctx context.Context, key string) (string, bool, error) {
	cmd := s.inner().B().Get().Key(s.fullKey(key)).Build()

	val, err := s.inner().Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsNil(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get lookup entry %s: %w", key, err)
	}
	return val, true, nil
}

// Put stores a value without TTL.
func (s *ValkeyStore) Put(ctx context.Context, key string, value string) error {
	cmd := s.inner().B().Set().
		Key(s.fullKey(key)).
		Value(value).
		Build()

	if err := s.inner().Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to save lookup entry %s: %w", key, err)
	}
	return nil
}

// Delete removes a value.
func (s *ValkeyStore) Delete(ctx context.Context, key string) error {
	cmd := s.inner().B().Del().Key(s.fullKey(key)).Build()
	if err := s.inner().Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to delete lookup entry %s: %w", key, err)
	}
	return nil
}

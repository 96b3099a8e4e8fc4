package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/AzielCF/az-lookups/infrastructure/valkey"
	"github.com/AzielCF/az-lookups/lookups/domain"
)

func newGormStore(t *testing.T) *GormStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lookups.db")
	db, err := gorm.Open(sqlite.Open("file:"+path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	store := NewGormStore(db)
	require.NoError(t, store.InitSchema(context.Background()))
	return store
}

func storeContract(t *testing.T, store domain.Store) {
	ctx := context.Background()
	key := domain.StoreKey("", domain.BucketGender)

	_, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "missing key should report not found")

	require.NoError(t, store.Put(ctx, key, `[{"id":1}]`))
	v, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":1}]`, v)

	require.NoError(t, store.Put(ctx, key, `[]`))
	v, _, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `[]`, v, "put must replace, not append")

	require.NoError(t, store.Delete(ctx, key))
	_, ok, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Delete(ctx, key), "deleting a missing key is not an error")
}

func TestMemoryStore_Contract(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestGormStore_Contract(t *testing.T) {
	storeContract(t, newGormStore(t))
}

func TestValkeyStore_Contract(t *testing.T) {
	vk, err := valkey.NewClient(valkey.Config{Address: "localhost:6379", KeyPrefix: "lookups_test"})
	if err != nil {
		t.Skip("No valkey")
	}
	defer vk.Close()

	store := NewValkeyStore(vk)
	_ = store.Delete(context.Background(), domain.StoreKey("", domain.BucketGender))
	storeContract(t, store)
}

func TestGormStore_KeysAreIndependent(t *testing.T) {
	store := newGormStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a", `["a"]`))
	require.NoError(t, store.Put(ctx, "b", `["b"]`))

	a, _, err := store.Get(ctx, "a")
	require.NoError(t, err)
	b, _, err := store.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, `["a"]`, a)
	assert.Equal(t, `["b"]`, b)
}

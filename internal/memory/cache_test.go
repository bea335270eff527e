package memory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awanllm/chat-gateway/internal/models"
)

func cachedTestStore(t *testing.T) (*GormStore, Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	backing := NewGormStore(testDB(t))
	backing.now = steppingClock()
	return backing, NewCachedStore(backing, client, time.Minute), mr
}

func TestNewCachedStore_WithoutRedisReturnsBackingStore(t *testing.T) {
	backing := NewGormStore(testDB(t))
	assert.Same(t, backing, NewCachedStore(backing, nil, time.Minute).(*GormStore))
}

func TestCachedStore_ServesFromCacheUntilWrite(t *testing.T) {
	ctx := context.Background()
	backing, store, mr := cachedTestStore(t)

	require.NoError(t, store.Append(ctx, "u1", models.RoleUser, "Hello"))
	first, err := store.FetchRecent(ctx, "u1", 15)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, mr.Exists(historyKey("u1")))

	// A write that bypasses the decorator is invisible until invalidation.
	require.NoError(t, backing.Append(ctx, "u1", models.RoleAssistant, "sneaky"))
	cached, err := store.FetchRecent(ctx, "u1", 15)
	require.NoError(t, err)
	assert.Equal(t, contents(first), contents(cached))
	assert.Equal(t, first[0].ID, cached[0].ID)
	assert.Equal(t, models.RoleUser, cached[0].Role)

	require.NoError(t, store.Append(ctx, "u1", models.RoleAssistant, "Hi"))
	assert.False(t, mr.Exists(historyKey("u1")))

	fresh, err := store.FetchRecent(ctx, "u1", 15)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", "sneaky", "Hi"}, contents(fresh))
}

func TestCachedStore_PruneInvalidates(t *testing.T) {
	ctx := context.Background()
	_, store, mr := cachedTestStore(t)

	for _, c := range []string{"a", "b", "c"} {
		require.NoError(t, store.Append(ctx, "u1", models.RoleUser, c))
	}
	_, err := store.FetchRecent(ctx, "u1", 2)
	require.NoError(t, err)
	_, err = store.FetchRecent(ctx, "u1", 10)
	require.NoError(t, err)
	fields, err := mr.HKeys(historyKey("u1"))
	require.NoError(t, err)
	assert.Len(t, fields, 2)

	require.NoError(t, store.Prune(ctx, "u1", 1))
	assert.False(t, mr.Exists(historyKey("u1")))

	messages, err := store.FetchRecent(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, contents(messages))
}

func TestCachedStore_EntriesExpire(t *testing.T) {
	ctx := context.Background()
	_, store, mr := cachedTestStore(t)

	require.NoError(t, store.Append(ctx, "u1", models.RoleUser, "Hello"))
	_, err := store.FetchRecent(ctx, "u1", 15)
	require.NoError(t, err)
	require.True(t, mr.Exists(historyKey("u1")))

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists(historyKey("u1")))
}

// interleavingStore runs afterRead once, right after the backing read and
// before the caller can fill the cache.
type interleavingStore struct {
	Store
	afterRead func()
}

func (s *interleavingStore) FetchRecent(ctx context.Context, userID string, limit int) ([]models.ConversationMessage, error) {
	messages, err := s.Store.FetchRecent(ctx, userID, limit)
	if hook := s.afterRead; hook != nil {
		s.afterRead = nil
		hook()
	}
	return messages, err
}

func TestCachedStore_WriteDuringReadIsNotMasked(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	backing := NewGormStore(testDB(t))
	backing.now = steppingClock()
	interleaved := &interleavingStore{Store: backing}
	store := NewCachedStore(interleaved, client, time.Minute)

	interleaved.afterRead = func() {
		require.NoError(t, store.Append(ctx, "u1", models.RoleUser, "Hello"))
	}
	stale, err := store.FetchRecent(ctx, "u1", 15)
	require.NoError(t, err)
	assert.Empty(t, stale)
	assert.False(t, mr.Exists(historyKey("u1")), "a read that raced a write must not be cached")

	messages, err := store.FetchRecent(ctx, "u1", 15)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello"}, contents(messages))
	assert.True(t, mr.Exists(historyKey("u1")))
}

func TestCachedStore_PruneDuringReadIsNotMasked(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	backing := NewGormStore(testDB(t))
	backing.now = steppingClock()
	interleaved := &interleavingStore{Store: backing}
	store := NewCachedStore(interleaved, client, time.Minute)
	for _, c := range []string{"a", "b", "c"} {
		require.NoError(t, store.Append(ctx, "u1", models.RoleUser, c))
	}

	interleaved.afterRead = func() {
		require.NoError(t, store.Prune(ctx, "u1", 1))
	}
	_, err := store.FetchRecent(ctx, "u1", 10)
	require.NoError(t, err)

	messages, err := store.FetchRecent(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, contents(messages))
}

func TestCachedStore_WritesBumpVersion(t *testing.T) {
	ctx := context.Background()
	_, store, mr := cachedTestStore(t)

	require.NoError(t, store.Append(ctx, "u1", models.RoleUser, "Hello"))
	require.NoError(t, store.Prune(ctx, "u1", 15))

	version, err := mr.Get(versionKey("u1"))
	require.NoError(t, err)
	assert.Equal(t, "2", version)
	assert.False(t, mr.Exists(versionKey("u2")))
}

func TestCachedStore_UnknownCachedRoleFallsBackToDatabase(t *testing.T) {
	ctx := context.Background()
	_, store, mr := cachedTestStore(t)

	require.NoError(t, store.Append(ctx, "u1", models.RoleUser, "Hello"))
	mr.HSet(historyKey("u1"), "15", `[{"seq":1,"role":"wizard","content":"forged"}]`)

	messages, err := store.FetchRecent(ctx, "u1", 15)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello"}, contents(messages))
	assert.Equal(t, models.RoleUser, messages[0].Role)
}

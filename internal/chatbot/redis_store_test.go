package chatbot

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client)
}

func TestRedisStore_GetOrCreateThenSaveRoundTrips(t *testing.T) {
	store := newTestRedisStore(t)

	sess := store.GetOrCreate("")
	sess.Extracted.Location = "Port-au-Prince"
	require.NoError(t, store.Save(sess))

	got, ok := store.Get(sess.ID)
	require.True(t, ok)
	assert.Equal(t, "Port-au-Prince", got.Extracted.Location)
	assert.Equal(t, StateGreeting, got.State)
}

func TestRedisStore_GetOrCreateReusesExisting(t *testing.T) {
	store := newTestRedisStore(t)

	first := store.GetOrCreate("")
	first.State = StateAskResource
	require.NoError(t, store.Save(first))

	second := store.GetOrCreate(first.ID)
	assert.Equal(t, StateAskResource, second.State)
}

func TestRedisStore_GetMissingReturnsFalse(t *testing.T) {
	store := newTestRedisStore(t)

	_, ok := store.Get("does-not-exist")
	assert.False(t, ok)
}

func TestRedisStore_DeleteRemovesSession(t *testing.T) {
	store := newTestRedisStore(t)

	sess := store.GetOrCreate("")
	require.NoError(t, store.Save(sess))

	assert.True(t, store.Delete(sess.ID))
	_, ok := store.Get(sess.ID)
	assert.False(t, ok)
}

func TestRedisStore_ProcessMessageThenSavePersists(t *testing.T) {
	store := newTestRedisStore(t)

	sess := store.GetOrCreate("")
	ProcessMessage(sess, "hi")
	require.NoError(t, store.Save(sess))

	got, ok := store.Get(sess.ID)
	require.True(t, ok)
	assert.Equal(t, StateAskSituation, got.State)
	assert.Len(t, got.Messages, 2)
}

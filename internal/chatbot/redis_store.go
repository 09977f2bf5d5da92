package chatbot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// sessionTTL bounds how long an abandoned conversation survives in
// Redis before it's reclaimed; a victim who never finishes intake
// should not pin memory forever across a multi-instance deployment.
const sessionTTL = 24 * time.Hour

const sessionKeyPrefix = "chatbot:session:"

// RedisStore is the multi-instance alternative to the in-memory Store,
// satisfying the same SessionStore interface so the API handler never
// has to know which one it's talking to. Sessions are JSON-encoded,
// one key per session, with a sliding TTL refreshed on every Save.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// GetOrCreate mirrors Store.GetOrCreate, but a miss results in a fresh
// session that is not yet persisted — the caller must still call Save.
func (r *RedisStore) GetOrCreate(id string) *Session {
	if id != "" {
		if sess, ok := r.Get(id); ok {
			return sess
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		State:     StateGreeting,
		Extracted: newExtractedData(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (r *RedisStore) Get(id string) (*Session, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		return nil, false
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, false
	}
	return &sess, true
}

func (r *RedisStore) Save(sess *Session) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(sess.ID), raw, sessionTTL).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(id string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := r.client.Del(ctx, sessionKey(id)).Result()
	return err == nil && n > 0
}

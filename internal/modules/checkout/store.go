// README: Checkout session persistence in Redis, keyed per (chat, user).
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore holds one session per (chat, user) pair. Get returns
// (nil, nil) when no session exists.
type SessionStore interface {
	Get(ctx context.Context, chatID, tgUserID int64) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context, chatID, tgUserID int64) error
}

// Abandoned sessions expire on their own; there is no explicit timeout in
// the flow itself.
const sessionTTL = 24 * time.Hour

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func sessionKey(chatID, tgUserID int64) string {
	return fmt.Sprintf("checkout:%d:%d", chatID, tgUserID)
}

func (r *RedisStore) Get(ctx context.Context, chatID, tgUserID int64) (*Session, error) {
	b, err := r.rdb.Get(ctx, sessionKey(chatID, tgUserID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, sessionKey(s.ChatID, s.TgUserID), b, sessionTTL).Err()
}

func (r *RedisStore) Clear(ctx context.Context, chatID, tgUserID int64) error {
	return r.rdb.Del(ctx, sessionKey(chatID, tgUserID)).Err()
}

// README: Bearer tokens for web mini-app sessions, stored in Redis.
package web

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrTokenNotFound = errors.New("session token not found")

// TokenStore maps opaque bearer tokens to membership ids.
type TokenStore interface {
	Create(ctx context.Context, membershipID int64) (string, error)
	Resolve(ctx context.Context, token string) (int64, error)
}

const tokenTTL = 24 * time.Hour

type RedisTokens struct {
	rdb *redis.Client
}

func NewRedisTokens(rdb *redis.Client) *RedisTokens {
	return &RedisTokens{rdb: rdb}
}

func tokenKey(token string) string {
	return "webtoken:" + token
}

func (t *RedisTokens) Create(ctx context.Context, membershipID int64) (string, error) {
	token := uuid.NewString()
	err := t.rdb.Set(ctx, tokenKey(token), strconv.FormatInt(membershipID, 10), tokenTTL).Err()
	if err != nil {
		return "", err
	}
	return token, nil
}

func (t *RedisTokens) Resolve(ctx context.Context, token string) (int64, error) {
	v, err := t.rdb.Get(ctx, tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrTokenNotFound
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

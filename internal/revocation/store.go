package revocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store remembers, per user, a logout cutoff. Token iat has whole-second
// precision, so a token issued in the cutoff's second counts as revoked. A
// fresh login in that same second is rejected until the next second.
type Store interface {
	RevokeBefore(ctx context.Context, userID string, at time.Time, ttl time.Duration) error
	IsRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStoreWithClient(rdb), nil
}

func NewRedisStoreWithClient(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: "taskboard:revoked_before:"}
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + userID
}

// RevokeBefore keeps the marker for ttl, the lifetime of any token it could reject.
func (s *RedisStore) RevokeBefore(ctx context.Context, userID string, at time.Time, ttl time.Duration) error {
	return s.rdb.Set(ctx, s.key(userID), at.Unix(), ttl).Err()
}

func (s *RedisStore) IsRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	v, err := s.rdb.Get(ctx, s.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	cutoff, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return false, err
	}
	return issuedAt.Unix() <= cutoff, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

type Noop struct{}

func (Noop) RevokeBefore(context.Context, string, time.Time, time.Duration) error { return nil }
func (Noop) IsRevoked(context.Context, string, time.Time) (bool, error)          { return false, nil }

package reset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// ErrCodeNotFound means no live code exists for the email.
var ErrCodeNotFound = errors.New("reset code not found")

// CodeStore keeps at most one pending code per email. Set overwrites.
type CodeStore interface {
	Set(ctx context.Context, email, code string, ttl time.Duration) error
	Get(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
}

type memoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore keeps codes in process; expired entries are swept every minute.
func NewMemoryStore() CodeStore {
	return &memoryStore{cache: cache.New(cache.NoExpiration, time.Minute)}
}

func (s *memoryStore) Set(_ context.Context, email, code string, ttl time.Duration) error {
	s.cache.Set(email, code, ttl)
	return nil
}

func (s *memoryStore) Get(_ context.Context, email string) (string, error) {
	v, ok := s.cache.Get(email)
	if !ok {
		return "", ErrCodeNotFound
	}
	return v.(string), nil
}

func (s *memoryStore) Delete(_ context.Context, email string) error {
	s.cache.Delete(email)
	return nil
}

const redisKeyPrefix = "medbook:reset:"

type redisStore struct {
	client *redis.Client
}

// NewRedisStore shares codes across API replicas; Redis enforces the TTL.
func NewRedisStore(client *redis.Client) CodeStore {
	return &redisStore{client: client}
}

func (s *redisStore) Set(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, redisKeyPrefix+email, code, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, email string) (string, error) {
	code, err := s.client.Get(ctx, redisKeyPrefix+email).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCodeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read reset code: %w", err)
	}
	return code, nil
}

func (s *redisStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+email).Err(); err != nil {
		return fmt.Errorf("failed to delete reset code: %w", err)
	}
	return nil
}

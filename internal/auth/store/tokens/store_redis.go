package tokens

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"firtrace/pkg/domain"
)

const issuedTokenKeyPrefix = "auth:jti:"

// RedisTokenStore is the Redis-backed issued-token store for deployments
// where several auth instances share state. Key TTL equals the credential
// TTL, so expiry needs no sweeper.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Record(ctx context.Context, jti string, addr domain.Address, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	return s.client.Set(ctx, issuedTokenKeyPrefix+jti, addr.String(), ttl).Err()
}

func (s *RedisTokenStore) IsIssued(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	_, err := s.client.Get(ctx, issuedTokenKeyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AddressOf returns the address a token was issued for, or "" when unknown.
func (s *RedisTokenStore) AddressOf(ctx context.Context, jti string) (string, error) {
	addr, err := s.client.Get(ctx, issuedTokenKeyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return addr, nil
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"ward-pickup-service/internal/domain"
	"ward-pickup-service/internal/platform/obs"
	"ward-pickup-service/internal/ports"

	"github.com/redis/go-redis/v9"
)

const accountKeyPrefix = "pickup:account:"

// Redis read-through cache in front of an AccountRepository.
// Accounts are read on every request to resolve the caller's role, and the
// engine never writes them, so a TTL bounds how stale a role change can be.
// Redis failures fall through to the backing repository.
type RedisAccountCache struct {
	Client *redis.Client
	Next   ports.AccountRepository
	TTL    time.Duration
}

func NewRedisAccountCache(client *redis.Client, next ports.AccountRepository, ttl time.Duration) *RedisAccountCache {
	return &RedisAccountCache{Client: client, Next: next, TTL: ttl}
}

type cachedAccount struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Role        domain.Role      `json:"role"`
	WardNumber  string           `json:"wardNumber"`
	HouseNumber string           `json:"houseNumber"`
	Area        *string          `json:"area,omitempty"`
	Location    *domain.Location `json:"location,omitempty"`
}

func (c *RedisAccountCache) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	key := accountKeyPrefix + id
	log := obs.FromContext(ctx).WithField("account_id", id)

	raw, err := c.Client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var ca cachedAccount
		if uerr := json.Unmarshal(raw, &ca); uerr == nil {
			acc := domain.Account(ca)
			return &acc, nil
		}
		log.Warn("account cache: dropping undecodable entry")
		_ = c.Client.Del(ctx, key).Err()
	case errors.Is(err, redis.Nil):
	default:
		log.WithError(err).Warn("account cache: get failed, reading through")
	}

	acc, err := c.Next.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(cachedAccount(*acc))
	if err != nil {
		return nil, fmt.Errorf("account cache: encode account id=%s: %w", id, err)
	}
	if err := c.Client.Set(ctx, key, payload, c.TTL).Err(); err != nil {
		log.WithError(err).Warn("account cache: set failed")
	}

	return acc, nil
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"barbershop_backend/internal/models"
	"barbershop_backend/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// ActiveRewardsKey holds the JSON-encoded active catalog.
const ActiveRewardsKey = "loyalty:rewards:active"

// ActiveRewardsGenerationKey counts catalog invalidations. A catalog read from the database is only
// cached if no invalidation happened since the reader took the generation.
const ActiveRewardsGenerationKey = "loyalty:rewards:active:gen"

// NoGeneration is returned when the generation cannot be read. SetActiveRewards never accepts it.
const NoGeneration int64 = -1

var errStaleGeneration = errors.New("reward catalog generation moved")

// RewardCache caches the active reward catalog in Redis. A nil client turns every call into a no-op
// so the service keeps working when Redis is down.
type RewardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect opens a Redis connection. On failure it returns the error and a cache that degrades to no-op.
func Connect(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RewardCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// Close the failed client and set to nil for graceful degradation
		client.Close()
		return NewRewardCache(nil, ttl), err
	}
	return NewRewardCache(client, ttl), nil
}

// NewRewardCache wraps an existing client. client may be nil.
func NewRewardCache(client *redis.Client, ttl time.Duration) *RewardCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RewardCache{client: client, ttl: ttl}
}

// GetActiveRewards returns the cached catalog if available.
func (c *RewardCache) GetActiveRewards(ctx context.Context) ([]models.Reward, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, ActiveRewardsKey).Bytes()
	if err != nil {
		return nil, false
	}
	var rewards []models.Reward
	if err := json.Unmarshal(data, &rewards); err != nil {
		utils.LogError(err, "Discarding undecodable reward cache entry")
		c.client.Del(ctx, ActiveRewardsKey)
		return nil, false
	}
	return rewards, true
}

// ActiveRewardsGeneration returns the current catalog generation. Take it before loading the
// catalog from the database and hand it to SetActiveRewards.
func (c *RewardCache) ActiveRewardsGeneration(ctx context.Context) int64 {
	if c == nil || c.client == nil {
		return NoGeneration
	}
	gen, err := c.client.Get(ctx, ActiveRewardsGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0
	}
	if err != nil {
		utils.LogError(err, "Failed to read reward cache generation")
		return NoGeneration
	}
	return gen
}

// SetActiveRewards caches the catalog for the configured TTL, unless the generation moved past
// the one the caller loaded it under.
func (c *RewardCache) SetActiveRewards(ctx context.Context, rewards []models.Reward, generation int64) {
	if c == nil || c.client == nil || generation == NoGeneration {
		return
	}
	data, err := json.Marshal(rewards)
	if err != nil {
		utils.LogError(err, "Failed to encode reward cache entry")
		return
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, ActiveRewardsGenerationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, ActiveRewardsKey, data, c.ttl)
			return nil
		})
		return err
	}, ActiveRewardsGenerationKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		utils.LogDebug("Skipped caching a superseded reward catalog", map[string]interface{}{"generation": generation})
	default:
		utils.LogError(err, "Failed to write reward cache")
	}
}

// InvalidateActiveRewards drops the cached catalog after any reward change and bumps the
// generation so in-flight loads cannot write the old catalog back.
func (c *RewardCache) InvalidateActiveRewards(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, ActiveRewardsGenerationKey)
		pipe.Del(ctx, ActiveRewardsKey)
		return nil
	})
	if err != nil {
		utils.LogError(err, "Failed to invalidate reward cache")
	}
}

// Close releases the Redis connection.
func (c *RewardCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
	"github.com/YodaWagyu/everything-switching/internal/domain/repository"
)

// RedisRepository implements the ResultCache interface using Redis as the
// backend. Finished analyses are cached for a TTL so reloading the same
// filters does not re-query the warehouse.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRepository(addr, password string, db int, ttl time.Duration) *RedisRepository {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisRepository{client: client, ttl: ttl}
}

var _ repository.ResultCache = (*RedisRepository)(nil)

func resultKey(key string) string {
	return "switching:result:" + key
}

// SaveResult stores the result JSON-encoded under the request fingerprint.
func (r *RedisRepository) SaveResult(ctx context.Context, key string, result *model.AnalysisResult) error {
	if result == nil {
		return fmt.Errorf("cannot cache nil result")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, resultKey(key), data, r.ttl).Err()
}

// GetResult returns the cached result, or (nil, nil) on a miss.
func (r *RedisRepository) GetResult(ctx context.Context, key string) (*model.AnalysisResult, error) {
	data, err := r.client.Get(ctx, resultKey(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var result model.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ping verifies the Redis connection.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

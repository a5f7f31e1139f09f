package util

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"aicompass/internal/app/compass/entity"
	"aicompass/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	serviceName       = "compass"
	toolListCacheKey  = "tools:all"
	toolListKeyPrefix = "tools"
)

// RedisClient кеширует список инструментов со средними оценками
// Список пересчитывается из Mongo по каждому промаху и сбрасывается
// при публикации отзыва или создании инструмента
type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(addr, password string, db int, ttl time.Duration) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{client: client, ttl: ttl}, nil
}

// NewRedisClientWithOptions используется в тестах с miniredis
func NewRedisClientWithOptions(opts *redis.Options, ttl time.Duration) *RedisClient {
	return &RedisClient{client: redis.NewClient(opts), ttl: ttl}
}

func (r *RedisClient) SetToolList(ctx context.Context, tools []entity.ToolListItem) error {
	data, err := json.Marshal(tools)
	if err != nil {
		return fmt.Errorf("failed to marshal tool list: %w", err)
	}

	if err := r.client.Set(ctx, toolListCacheKey, data, r.ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, "set")
		return fmt.Errorf("failed to set tool list in cache: %w", err)
	}

	return nil
}

// GetToolList возвращает nil, nil при промахе кеша
func (r *RedisClient) GetToolList(ctx context.Context) ([]entity.ToolListItem, error) {
	data, err := r.client.Get(ctx, toolListCacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			metrics.RecordCacheMiss(serviceName, toolListKeyPrefix)
			return nil, nil
		}
		metrics.RecordRedisError(serviceName, "get")
		return nil, fmt.Errorf("failed to get tool list from cache: %w", err)
	}

	var tools []entity.ToolListItem
	if err := json.Unmarshal(data, &tools); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tool list: %w", err)
	}

	metrics.RecordCacheHit(serviceName, toolListKeyPrefix)
	return tools, nil
}

func (r *RedisClient) InvalidateToolList(ctx context.Context) error {
	if err := r.client.Del(ctx, toolListCacheKey).Err(); err != nil {
		metrics.RecordRedisError(serviceName, "del")
		return fmt.Errorf("failed to delete tool list from cache: %w", err)
	}
	return nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/profilewatch/profile-ui-api/internal/domain/model"
)

const workerKeyPrefix = "profilewatch:workers:"

// RedisWorkerRegistry tracks the live worker roster in redis. Each worker
// refreshes its own key with a TTL; workers that stop heartbeating drop off
// the roster when the key expires.
type RedisWorkerRegistry struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisWorkerRegistry creates a registry on an existing redis client.
func NewRedisWorkerRegistry(client redis.UniversalClient) *RedisWorkerRegistry {
	return &RedisWorkerRegistry{client: client, prefix: workerKeyPrefix}
}

// Heartbeat publishes the worker's descriptor under a TTL key.
func (r *RedisWorkerRegistry) Heartbeat(ctx context.Context, desc *model.WorkerDescriptor, ttl time.Duration) error {
	if desc == nil || desc.Name == "" {
		return errors.New("worker descriptor with a name is required")
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	desc.LastSeenAt = time.Now().UTC()
	data, err := json.Marshal(desc)
	if err != nil {
		return fmt.Errorf("marshal worker descriptor: %w", err)
	}
	return r.client.Set(ctx, r.prefix+desc.Name, data, ttl).Err()
}

// Deregister removes a worker from the roster immediately.
func (r *RedisWorkerRegistry) Deregister(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	return r.client.Del(ctx, r.prefix+name).Err()
}

// List returns all live workers, sorted by name for stable output.
func (r *RedisWorkerRegistry) List(ctx context.Context) ([]model.WorkerDescriptor, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan workers: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch workers: %w", err)
	}

	workers := make([]model.WorkerDescriptor, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Key expired between SCAN and MGET.
			continue
		}
		var desc model.WorkerDescriptor
		if err := json.Unmarshal([]byte(raw), &desc); err != nil {
			return nil, fmt.Errorf("unmarshal worker descriptor: %w", err)
		}
		workers = append(workers, desc)
	}

	sort.Slice(workers, func(i, j int) bool { return workers[i].Name < workers[j].Name })
	return workers, nil
}

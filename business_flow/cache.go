package businessflow

import (
	"context"
	"fmt"

	"github.com/amirphl/operator-ranking/config"
	"github.com/redis/go-redis/v9"
)

const scanBatchSize = 100

func redisKey(cfg config.CacheConfig, suffix string) string {
	return cfg.RedisPrefix + suffix
}

// deleteByPattern removes every key matching pattern with SCAN so redis is never blocked by KEYS.
func deleteByPattern(ctx context.Context, rc *redis.Client, pattern string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := rc.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := rc.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

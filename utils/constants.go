package utils

import (
	"time"
)

// Request handling constants
const (
	// RequestTimeout bounds every handler's business call
	RequestTimeout = 30 * time.Second

	// BearerPrefix precedes the token in the Authorization header
	BearerPrefix = "Bearer "
)

// Cache key suffixes, prefixed with CacheConfig.RedisPrefix
const (
	RankingCacheKeyPrefix = "ranking:"
	RankingWarmupLockKey  = "lock:ranking_warmup"
)

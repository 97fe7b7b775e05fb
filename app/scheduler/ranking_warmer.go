// Package scheduler runs periodic background jobs
package scheduler

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/amirphl/operator-ranking/config"
	"github.com/amirphl/operator-ranking/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Warmer precomputes rankings into the cache.
type Warmer interface {
	Warm(ctx context.Context) error
}

// releaseLock deletes the lock only while it still holds the caller's token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RankingWarmer periodically recomputes the global and latest-month rankings so the
// first dashboard request after an expiry does not pay the aggregation cost.
// When several replicas run, a redis lock lets only one of them warm per tick.
type RankingWarmer struct {
	warmer   Warmer
	rc       *redis.Client
	lockKey  string
	lockTTL  time.Duration
	interval time.Duration
	logger   *log.Logger
	logFile  io.Closer
}

func NewRankingWarmer(warmer Warmer, rc *redis.Client, cacheCfg config.CacheConfig, cfg config.SchedulerConfig, logCfg config.LoggingConfig) *RankingWarmer {
	interval := cfg.RankingWarmupInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}

	w := &RankingWarmer{
		warmer:   warmer,
		rc:       rc,
		lockKey:  cacheCfg.RedisPrefix + utils.RankingWarmupLockKey,
		lockTTL:  lockTTL,
		interval: interval,
	}
	w.initLogger(cfg.LogPath, logCfg)
	return w
}

// initLogger writes to stdout and, when a path is configured, to a rotated file.
func (w *RankingWarmer) initLogger(path string, logCfg config.LoggingConfig) {
	var out io.Writer = os.Stdout
	if path != "" {
		file := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    logCfg.MaxSize,
			MaxBackups: logCfg.MaxBackups,
			MaxAge:     logCfg.MaxAge,
			Compress:   logCfg.Compress,
		}
		w.logFile = file
		out = io.MultiWriter(os.Stdout, file)
	}
	w.logger = log.New(out, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}

// Start launches the warmup loop in a background goroutine and returns a stop function
func (w *RankingWarmer) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.RunOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.RunOnce(ctx)
			}
		}
	}()

	return func() {
		cancel()
		<-done
		if w.logFile != nil {
			_ = w.logFile.Close()
		}
	}
}

// RunOnce warms the cache if this instance wins the lock. It reports whether a warmup ran.
func (w *RankingWarmer) RunOnce(ctx context.Context) bool {
	if w.rc != nil {
		token := uuid.NewString()
		ok, err := w.rc.SetNX(ctx, w.lockKey, token, w.lockTTL).Result()
		if err != nil {
			w.logger.Printf("scheduler: acquire warmup lock failed: %v", err)
			return false
		}
		if !ok {
			return false
		}
		defer func() {
			if err := releaseLock.Run(context.Background(), w.rc, []string{w.lockKey}, token).Err(); err != nil {
				w.logger.Printf("scheduler: release warmup lock failed: %v", err)
			}
		}()
	}

	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, w.lockTTL)
	defer cancel()
	if err := w.warmer.Warm(runCtx); err != nil {
		w.logger.Printf("scheduler: ranking warmup failed: %v", err)
		return false
	}
	w.logger.Printf("scheduler: ranking warmup finished in %s", time.Since(start).Round(time.Millisecond))
	return true
}

// StartCacheHealthMonitor periodically pings redis so connectivity loss shows up in the logs.
// The returned function stops the monitor.
func StartCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker 按 key 的互斥锁，用于同一画家的序号分配与办展更新
type Locker interface {
	// Lock 阻塞直到拿到锁或 ctx 结束，返回的 unlock 只能调用一次
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// ArtistLockKey 画家维度锁 key
func ArtistLockKey(artistID int64) string {
	return fmt.Sprintf("artist:%d", artistID)
}

// ==================== 进程内实现 ====================

// LocalLocker 单实例部署使用
type LocalLocker struct {
	locks sync.Map // key -> chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	actual, _ := l.locks.LoadOrStore(key, make(chan struct{}, 1))
	sem := actual.(chan struct{})

	select {
	case sem <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-sem }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ==================== Redis 实现 ====================

const (
	redisLockPrefix = "hualang:lock:"
	redisLockTTL    = 10 * time.Second
	redisLockRetry  = 50 * time.Millisecond
)

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

// RedisLocker 多实例部署使用：SET NX PX + token，Lua 比对后释放
type RedisLocker struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisLocker(rdb redis.UniversalClient) *RedisLocker {
	return &RedisLocker{rdb: rdb, ttl: redisLockTTL}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	fullKey := redisLockPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(redisLockRetry)
	defer ticker.Stop()

	for {
		ok, err := l.rdb.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("获取分布式锁失败: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// 调用方 ctx 可能已取消，释放使用独立超时
			releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.rdb, []string{fullKey}, token).Err(); err != nil {
				log.Printf("[Locker] 释放锁 %s 失败: %v", fullKey, err)
			}
		})
	}, nil
}

package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== Cooldown 冷却限流 ====================

// defaultSweepEvery 清理过期条目的最短间隔
const defaultSweepEvery = time.Minute

// CooldownLimiter 按 key 的冷却限流器
// 同一 key 在 interval 内只放行一次，冷却结束的条目定期清除
type CooldownLimiter struct {
	entries sync.Map // key -> *cooldownEntry

	sweepEvery time.Duration
	sweepMu    sync.Mutex
	lastSweep  time.Time
	now        func() time.Time
}

type cooldownEntry struct {
	lastTime  time.Time
	expiresAt time.Time
	mu        sync.Mutex
}

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// NewCooldownLimiter 创建限流器
func NewCooldownLimiter() *CooldownLimiter {
	return &CooldownLimiter{sweepEvery: defaultSweepEvery, now: time.Now}
}

// Check 检查并在放行时记录本次时间
func (r *CooldownLimiter) Check(key string, interval time.Duration) CheckResult {
	now := r.now()
	r.maybeSweep(now)

	actual, _ := r.entries.LoadOrStore(key, &cooldownEntry{})
	entry := actual.(*cooldownEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if elapsed := now.Sub(entry.lastTime); elapsed < interval {
		return CheckResult{Allowed: false, RetryAfter: interval - elapsed}
	}
	entry.lastTime = now
	entry.expiresAt = now.Add(interval)
	return CheckResult{Allowed: true}
}

// Reset 重置指定 key
func (r *CooldownLimiter) Reset(key string) {
	r.entries.Delete(key)
}

// Sweep 删除冷却已结束的条目，返回删除数量
func (r *CooldownLimiter) Sweep(now time.Time) int {
	removed := 0
	r.entries.Range(func(key, value interface{}) bool {
		entry := value.(*cooldownEntry)
		entry.mu.Lock()
		expired := !now.Before(entry.expiresAt)
		if expired {
			if r.entries.CompareAndDelete(key, entry) {
				removed++
			}
		}
		entry.mu.Unlock()
		return true
	})
	return removed
}

// Len 当前条目数
func (r *CooldownLimiter) Len() int {
	n := 0
	r.entries.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// maybeSweep 距上次清理超过 sweepEvery 时清理一次
func (r *CooldownLimiter) maybeSweep(now time.Time) {
	r.sweepMu.Lock()
	if now.Sub(r.lastSweep) < r.sweepEvery {
		r.sweepMu.Unlock()
		return
	}
	r.lastSweep = now
	r.sweepMu.Unlock()

	r.Sweep(now)
}

// Cooldown 按登录用户 + 动作名限流，用于上传等较重的接口
// 未登录请求按客户端 IP 计
func Cooldown(limiter *CooldownLimiter, action string, interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ip:%s:%s", c.ClientIP(), action)
		if userID := GetUserID(c); userID > 0 {
			key = fmt.Sprintf("user:%d:%s", userID, action)
		}

		result := limiter.Check(key, interval)
		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": fmt.Sprintf("操作过于频繁，请 %d 秒后重试", int(result.RetryAfter.Seconds())+1),
				"data": gin.H{
					"retry_after": int(result.RetryAfter.Seconds()) + 1,
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

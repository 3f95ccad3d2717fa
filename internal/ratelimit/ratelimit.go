package ratelimit

import (
	"sync"
	"time"
)

// Result 是一次限流判定的结果，Remaining/ResetAt 会被透出到响应头
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter 是进程内的固定窗口计数器，按逻辑 key 限流。
// 状态只存在内存里，进程重启即清零；不做跨实例的分布式限流。
// 窗口边界处的突发不做平滑（不是真正的滑动窗口），调用方只能依赖
// “单个窗口内放行次数不超过 limit”这一保证。
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

func New() *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Check 对 key 做一次计数并返回判定结果。
// 首次请求或窗口已过期时重置计数并放行；否则累加计数，超过 limit 拒绝。
// 并发调用同一个 key 时由互斥锁保证计数不丢失。
func (l *Limiter) Check(key string, limit int, window time.Duration) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.purgeLocked(now)

	e, ok := l.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = &entry{count: 1, resetAt: now.Add(window)}
		l.entries[key] = e
		return Result{Allowed: true, Remaining: limit - 1, ResetAt: e.resetAt}
	}

	e.count++
	if e.count > limit {
		return Result{Allowed: false, Remaining: 0, ResetAt: e.resetAt}
	}
	return Result{Allowed: true, Remaining: limit - e.count, ResetAt: e.resetAt}
}

// purgeLocked 清理已过期的窗口，避免 key 无限增长；调用方必须持锁
func (l *Limiter) purgeLocked(now time.Time) {
	for k, e := range l.entries {
		if !now.Before(e.resetAt) {
			delete(l.entries, k)
		}
	}
}

// Len 返回当前活跃的 key 数，仅用于观测与测试
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

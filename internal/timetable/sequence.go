package timetable

import (
	"sync"
	"time"
)

// SequenceGate 交互式校验的“后发先至”守卫。
//
// 客户端为同一个编辑表单（key）上的每次校验请求附带单调递增的序号；
// 响应晚于更新请求返回时，旧序号的结果应被丢弃。
// ttl > 0 时超过 ttl 未再出现的 key 会在后续 Observe 中被清理。
// 并发安全，零值不可用，请使用 NewSequenceGate。
type SequenceGate struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	latest    map[string]seqEntry
	lastSweep time.Time
}

type seqEntry struct {
	seq  int64
	seen time.Time
}

// NewSequenceGate 创建内存守卫，ttl <= 0 表示不过期
func NewSequenceGate(ttl time.Duration) *SequenceGate {
	return newSequenceGateWithClock(ttl, time.Now)
}

func newSequenceGateWithClock(ttl time.Duration, now func() time.Time) *SequenceGate {
	return &SequenceGate{
		ttl:       ttl,
		now:       now,
		latest:    make(map[string]seqEntry),
		lastSweep: now(),
	}
}

// Observe 记录 key 的序号，并返回 seq 是否仍是最新（seq >= 已见过的最大序号）
func (g *SequenceGate) Observe(key string, seq int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.sweep(now)

	if cur, ok := g.latest[key]; ok && !g.expired(cur, now) && seq < cur.seq {
		return false
	}
	g.latest[key] = seqEntry{seq: seq, seen: now}
	return true
}

// Latest 返回 key 已见过的最大序号（已过期视为不存在）
func (g *SequenceGate) Latest(key string) (int64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.latest[key]
	if !ok || g.expired(e, g.now()) {
		return 0, false
	}
	return e.seq, true
}

// Len 当前记录的 key 数量
func (g *SequenceGate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.latest)
}

func (g *SequenceGate) expired(e seqEntry, now time.Time) bool {
	return g.ttl > 0 && now.Sub(e.seen) > g.ttl
}

// sweep 每隔 ttl 最多全量扫描一次，摊销到每次 Observe 上
func (g *SequenceGate) sweep(now time.Time) {
	if g.ttl <= 0 || now.Sub(g.lastSweep) < g.ttl {
		return
	}
	for k, e := range g.latest {
		if g.expired(e, now) {
			delete(g.latest, k)
		}
	}
	g.lastSweep = now
}

package service

import (
	"context"
	"time"

	"school-admin/backend/internal/timetable"
	"school-admin/backend/pkg/redis"
)

// SequenceStore 交互式校验序号存储
// Observe 记录 key 的序号并返回 seq 是否仍是最新
type SequenceStore interface {
	Observe(ctx context.Context, key string, seq int64) (bool, error)
}

// ── 进程内实现（单实例部署或 Redis 不可用时） ──

type memorySequenceStore struct {
	gate *timetable.SequenceGate
}

// NewMemorySequenceStore 创建进程内序号存储，超过 ttl 未出现的表单会被清理
func NewMemorySequenceStore(ttl time.Duration) SequenceStore {
	return &memorySequenceStore{gate: timetable.NewSequenceGate(ttl)}
}

func (m *memorySequenceStore) Observe(_ context.Context, key string, seq int64) (bool, error) {
	return m.gate.Observe(key, seq), nil
}

// ── Redis 实现（多实例共享） ──

type redisSequenceStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSequenceStore 创建 Redis 序号存储
func NewRedisSequenceStore(rdb *redis.Client, ttl time.Duration) SequenceStore {
	return &redisSequenceStore{rdb: rdb, ttl: ttl}
}

func (r *redisSequenceStore) Observe(ctx context.Context, key string, seq int64) (bool, error) {
	return r.rdb.ObserveSequence(ctx, key, seq, r.ttl)
}

package progress

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key 前缀
const opPrefix = "vault:op"

// RedisStatusStore 管理 Redis 中的操作状态记录（幂等控制）
type RedisStatusStore struct {
	rdb *redis.Client
}

func NewRedisStatusStore(rdb *redis.Client) *RedisStatusStore {
	return &RedisStatusStore{rdb: rdb}
}

func opKey(opID string) string {
	return fmt.Sprintf("%s:%s", opPrefix, opID)
}

// GetStatus 获取操作状态（Unknown / Committed / Rejected / Pending）
func (r *RedisStatusStore) GetStatus(ctx context.Context, opID string) (OpStatus, error) {
	val, err := r.rdb.Get(ctx, opKey(opID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return OpUnknown, nil
	case err != nil:
		return OpUnknown, fmt.Errorf("redis get error: %w", err)
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return OpUnknown, nil // 容错处理
	}
	switch s := OpStatus(n); s {
	case OpCommitted, OpRejected, OpPending:
		return s, nil
	default:
		return OpUnknown, nil
	}
}

func (r *RedisStatusStore) SetStatus(ctx context.Context, opID string, status OpStatus, ttl time.Duration) error {
	return r.rdb.Set(ctx, opKey(opID), int(status), ttl).Err()
}

// Claim 使用 SETNX 将操作标记为 Pending，已存在时返回 false
func (r *RedisStatusStore) Claim(ctx context.Context, opID string, ttl time.Duration) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, opKey(opID), int(OpPending), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx error: %w", err)
	}
	return ok, nil
}

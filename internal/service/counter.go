package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"civic-access/internal/cache"
	"civic-access/internal/store"

	"github.com/redis/go-redis/v9"
)

const userCountKey = "users:count"

type userCountStore interface {
	Count(ctx context.Context) (int64, error)
}

// UserCounter 提供已註冊使用者數量；有設定快取時先讀 Redis，
// 快取失敗則回查資料庫
type UserCounter struct {
	users  userCountStore
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewUserCounter 的 cache 可為 nil，此時每次都查資料庫
func NewUserCounter(users userCountStore, c cache.Cache, ttl time.Duration, logger *slog.Logger) *UserCounter {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserCounter{users: users, cache: c, ttl: ttl, logger: logger}
}

func (c *UserCounter) Count(ctx context.Context) (int64, error) {
	if c.cache != nil {
		n, err := c.cache.Get(ctx, userCountKey).Int64()
		switch {
		case err == nil:
			return n, nil
		case !errors.Is(err, redis.Nil):
			c.logger.WarnContext(ctx, "user count cache read failed", "error", err)
		}
	}

	n, err := c.users.Count(ctx)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return 0, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		return 0, fmt.Errorf("count users: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, userCountKey, n, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "user count cache write failed", "error", err)
		}
	}
	return n, nil
}

// Invalidate 刪除快取的數量，下次讀取即反映新註冊
func (c *UserCounter) Invalidate(ctx context.Context) {
	if c == nil || c.cache == nil {
		return
	}
	if err := c.cache.Del(ctx, userCountKey).Err(); err != nil {
		c.logger.WarnContext(ctx, "user count cache invalidate failed", "error", err)
	}
}

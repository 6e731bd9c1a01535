// Package refcache кэширует справочники ролей и отделов в Redis.
// Используется только для денормализации названий при чтении; проверки
// ссылок перед записью идут напрямую в базу.
package refcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/users"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "hradmin:ref:"

// Source источник справочных данных (обычно users.Repository)
type Source interface {
	LookupRoleByID(ctx context.Context, id uuid.UUID, activeOnly bool) (*users.Role, error)
	LookupDepartmentByID(ctx context.Context, id uuid.UUID) (*users.Department, error)
}

// Cache read-through кэш поверх Source
type Cache struct {
	rdb    redis.Cmdable
	src    Source
	ttl    time.Duration
	logger *zap.Logger
}

// New создает кэш. rdb может быть nil, тогда все чтения идут в src.
func New(rdb redis.Cmdable, src Source, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{rdb: rdb, src: src, ttl: ttl, logger: logger}
}

// LookupRoleByID returns the role, served from Redis when cached.
// activeOnly lookups always go to the source.
func (c *Cache) LookupRoleByID(ctx context.Context, id uuid.UUID, activeOnly bool) (*users.Role, error) {
	if activeOnly {
		return c.src.LookupRoleByID(ctx, id, true)
	}
	var role users.Role
	err := c.readThrough(ctx, keyPrefix+"role:"+id.String(), &role, func() (any, error) {
		return c.src.LookupRoleByID(ctx, id, false)
	})
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// LookupDepartmentByID returns the department, served from Redis when cached.
func (c *Cache) LookupDepartmentByID(ctx context.Context, id uuid.UUID) (*users.Department, error) {
	var dept users.Department
	err := c.readThrough(ctx, keyPrefix+"department:"+id.String(), &dept, func() (any, error) {
		return c.src.LookupDepartmentByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

// Purge удаляет все закэшированные справочники. Вызывается после
// изменения ролей или отделов (например, migrator seed)
func (c *Cache) Purge(ctx context.Context) (int, error) {
	if c.rdb == nil {
		return 0, nil
	}
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return removed, fmt.Errorf("scanning cache keys: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("deleting cache keys: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

func (c *Cache) readThrough(ctx context.Context, key string, out any, load func() (any, error)) error {
	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			if jerr := json.Unmarshal(raw, out); jerr == nil {
				return nil
			}
			c.logger.Warn("dropping corrupt cache entry", zap.String("key", key))
		case errors.Is(err, redis.Nil):
		default:
			c.logger.Warn("redis read failed", zap.String("key", key), zap.Error(err))
		}
	}

	v, err := load()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}

	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("redis write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"carwash/internal/allocation"
	"carwash/pkg/logger"
	"carwash/pkg/model"

	"github.com/go-redis/redis/v8"
)

const cacheKeyPrefix = "directory:area:"

// CacheBackend is the part of *redis.Client the cache uses.
type CacheBackend interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedDirectory keeps area lookups in Redis for ttl. Redis is never a reason to fail a lookup:
// any cache error falls through to the wrapped directory.
type CachedDirectory struct {
	next    allocation.Directory
	backend CacheBackend
	ttl     time.Duration
	log     *logger.Logger
}

func NewCachedDirectory(next allocation.Directory, backend CacheBackend, ttl time.Duration, log *logger.Logger) *CachedDirectory {
	return &CachedDirectory{
		next:    next,
		backend: backend,
		ttl:     ttl,
		log:     log,
	}
}

func cacheKey(areaID int) string {
	return fmt.Sprintf("%s%d", cacheKeyPrefix, areaID)
}

func (c *CachedDirectory) ListProfessionalsCoveringArea(ctx context.Context, areaID int) ([]model.Professional, error) {
	key := cacheKey(areaID)

	payload, err := c.backend.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var professionals []model.Professional
		if err := json.Unmarshal(payload, &professionals); err == nil {
			return professionals, nil
		}
		c.log.Warn("Discarding undecodable directory cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		c.log.Warn("Directory cache read failed", "key", key, "error", err)
	}

	professionals, err := c.next.ListProfessionalsCoveringArea(ctx, areaID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(professionals); err == nil {
		if err := c.backend.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.log.Warn("Directory cache write failed", "key", key, "error", err)
		}
	}
	return professionals, nil
}

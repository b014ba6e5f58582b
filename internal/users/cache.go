package users

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"dental-clinic/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const principalKeyPrefix = "dental:principal:"

// DefaultCacheTTL bounds how long a renamed or deleted principal can still be
// served from the cache.
const DefaultCacheTTL = 15 * time.Second

// CachedDirectory is a read-through Redis cache in front of another Directory.
//
// Entries are never invalidated explicitly; users are managed outside this
// service, so the TTL is the only staleness bound.
// Cache failures degrade to the underlying directory; they are logged, not returned.
// A nil client disables caching.
type CachedDirectory struct {
	next Directory
	rdb  *redis.Client
	ttl  time.Duration
}

func NewCachedDirectory(next Directory, rdb *redis.Client, ttl time.Duration) *CachedDirectory {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedDirectory{next: next, rdb: rdb, ttl: ttl}
}

func (d *CachedDirectory) Principals(ctx context.Context, ids []int64) (map[int64]Principal, error) {
	ids = uniqueIDs(ids)
	if d.rdb == nil || len(ids) == 0 {
		return d.next.Principals(ctx, ids)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = principalKey(id)
	}

	vals, err := d.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		logger.From(ctx).Warn("principal cache read failed", "err", err)
		return d.next.Principals(ctx, ids)
	}

	out := make(map[int64]Principal, len(ids))
	missing := make([]int64, 0, len(ids))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		var p Principal
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			missing = append(missing, ids[i])
			continue
		}
		out[ids[i]] = p
	}
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := d.next.Principals(ctx, missing)
	if err != nil {
		return nil, err
	}

	pipe := d.rdb.Pipeline()
	for id, p := range fetched {
		out[id] = p
		b, err := json.Marshal(p)
		if err != nil {
			continue
		}
		pipe.Set(ctx, principalKey(id), b, d.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.From(ctx).Warn("principal cache write failed", "err", err)
	}
	return out, nil
}

func principalKey(id int64) string {
	return principalKeyPrefix + strconv.FormatInt(id, 10)
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

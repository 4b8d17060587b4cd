package authz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/driftboard/driftboard/internal/observability"
)

// TTLClass groups cache entries by volatility.
type TTLClass int

const (
	// TTLShort is for volatile aggregates (~30s).
	TTLShort TTLClass = iota
	// TTLMedium is for per-principal resolved sets and auth contexts.
	TTLMedium
	// TTLLong is for rarely-changing catalog-adjacent data (~2h).
	TTLLong
)

const (
	keyPrefix       = "authz"
	principalPrefix = keyPrefix + ":perms:"
	profileIndex    = keyPrefix + ":idx:profile:"
	teamIndex       = keyPrefix + ":idx:team:"
)

// CacheOptions overrides the default TTL per class. Logger, when set,
// receives memoization write failures.
type CacheOptions struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Logger *slog.Logger
}

// Cache memoizes resolved permission sets in Redis. Alongside each
// principal entry it maintains reverse-index sets per contributing
// profile and team, so a mutation on either can evict exactly the
// principals it touches. All eviction is an idempotent delete; no
// locking is needed.
//
// A nil client degrades to pass-through: every lookup misses and every
// eviction succeeds. Handlers and tests rely on that.
type Cache struct {
	client  *redis.Client
	short   time.Duration
	medium  time.Duration
	long    time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCache constructs the cache helper. opts fields left zero fall back
// to the defaults (30s / 10m / 2h).
func NewCache(client *redis.Client, metrics *observability.Metrics, opts CacheOptions) *Cache {
	c := &Cache{client: client, short: 30 * time.Second, medium: 10 * time.Minute, long: 2 * time.Hour, metrics: metrics, logger: opts.Logger}
	if opts.Short > 0 {
		c.short = opts.Short
	}
	if opts.Medium > 0 {
		c.medium = opts.Medium
	}
	if opts.Long > 0 {
		c.long = opts.Long
	}
	return c
}

func (c *Cache) ttl(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return c.short
	case TTLLong:
		return c.long
	default:
		return c.medium
	}
}

// PrincipalKey returns the cache key for one principal's resolved set.
func PrincipalKey(principalID int64) string {
	return fmt.Sprintf("%s%d", principalPrefix, principalID)
}

// Get loads a cached JSON value into dest. The boolean reports a hit.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores a JSON value under the TTL of its class.
func (c *Cache) Set(ctx context.Context, key string, value any, class TTLClass) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl(class)).Err()
}

// Del removes the given keys. Deleting a missing key is not an error.
func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Invalidate is the administrative delete-by-keys surface.
func (c *Cache) Invalidate(ctx context.Context, keys []string) error {
	return c.Del(ctx, keys...)
}

// InvalidatePattern deletes every key matching the glob pattern and
// returns how many were removed. It scans rather than using KEYS so
// large keyspaces do not block the server.
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	if c == nil || c.client == nil || pattern == "" {
		return 0, nil
	}
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return removed, err
			}
			removed += len(keys)
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

// FetchResolvedSet returns the cached set for a principal, populating it
// via loader on a miss. The loader result is stored under TTLMedium and
// registered in the reverse indexes of every contributing profile and
// team.
func (c *Cache) FetchResolvedSet(ctx context.Context, principalID int64, loader func(context.Context) (ResolvedSet, error)) (ResolvedSet, error) {
	var set ResolvedSet
	hit, err := c.Get(ctx, PrincipalKey(principalID), &set)
	if err == nil && hit {
		c.metrics.AuthzCacheHit()
		return set, nil
	}
	if err != nil {
		// A broken cache entry must not break authorization; fall
		// through to the resolver.
		_ = c.Del(ctx, PrincipalKey(principalID))
	}
	c.metrics.AuthzCacheMiss()

	set, err = loader(ctx)
	if err != nil {
		return ResolvedSet{}, err
	}
	// Memoization is best effort: a failed write never fails a read
	// that already resolved.
	if err := c.Set(ctx, PrincipalKey(principalID), set, TTLMedium); err != nil {
		c.logWriteFailure(ctx, "store resolved set", principalID, err)
		return set, nil
	}
	if err := c.index(ctx, set); err != nil {
		// An unindexed entry would dodge profile/team eviction; drop
		// it rather than risk a stale grant.
		_ = c.Del(ctx, PrincipalKey(principalID))
		c.logWriteFailure(ctx, "index resolved set", principalID, err)
	}
	return set, nil
}

func (c *Cache) logWriteFailure(ctx context.Context, op string, principalID int64, err error) {
	if c == nil || c.logger == nil {
		return
	}
	c.logger.WarnContext(ctx, "authz cache write",
		slog.String("op", op),
		slog.Int64("principal_id", principalID),
		slog.Any("error", err))
}

// index records the principal in the reverse-index set of every profile
// and team that contributed to its resolution.
func (c *Cache) index(ctx context.Context, set ResolvedSet) error {
	if c == nil || c.client == nil {
		return nil
	}
	member := fmt.Sprintf("%d", set.PrincipalID)
	pipe := c.client.Pipeline()
	for _, pid := range set.ProfileIDs {
		key := fmt.Sprintf("%s%d", profileIndex, pid)
		pipe.SAdd(ctx, key, member)
		pipe.Expire(ctx, key, c.long)
	}
	for _, tid := range set.TeamIDs {
		key := fmt.Sprintf("%s%d", teamIndex, tid)
		pipe.SAdd(ctx, key, member)
		pipe.Expire(ctx, key, c.long)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// EvictPrincipal drops one principal's cached resolution.
func (c *Cache) EvictPrincipal(ctx context.Context, principalID int64) error {
	return c.Del(ctx, PrincipalKey(principalID))
}

// EvictProfile drops the cached resolution of every principal whose set
// was derived from the given profile, then the index itself.
func (c *Cache) EvictProfile(ctx context.Context, profileID int64) error {
	return c.evictIndexed(ctx, fmt.Sprintf("%s%d", profileIndex, profileID))
}

// EvictTeam drops the cached resolution of every principal whose set was
// derived from the given team, then the index itself.
func (c *Cache) EvictTeam(ctx context.Context, teamID int64) error {
	return c.evictIndexed(ctx, fmt.Sprintf("%s%d", teamIndex, teamID))
}

func (c *Cache) evictIndexed(ctx context.Context, indexKey string) error {
	if c == nil || c.client == nil {
		return nil
	}
	members, err := c.client.SMembers(ctx, indexKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, principalPrefix+m)
	}
	keys = append(keys, indexKey)
	return c.Del(ctx, keys...)
}

package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis key layout for the storefront page cache. Rendered pages live under
// cache:page:<path>; cache:tag:<tag> is a set of page keys carrying that tag.
const (
	pageKeyPrefix = "cache:page:"
	tagKeyPrefix  = "cache:tag:"

	scanBatchSize = 100
)

// Revalidator drops storefront page cache entries in Redis so the next
// request re-renders from the fresh snapshot.
type Revalidator struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRevalidator creates a Redis-backed page cache revalidator.
func NewRevalidator(client *redis.Client, logger *slog.Logger) *Revalidator {
	return &Revalidator{client: client, logger: logger}
}

// InvalidateTag drops every page carrying the given tag, plus the tag set
// itself. Returns the number of pages dropped.
func (r *Revalidator) InvalidateTag(ctx context.Context, tag string) (int, error) {
	tagKey := tagKeyPrefix + tag

	keys, err := r.client.SMembers(ctx, tagKey).Result()
	if err != nil {
		return 0, fmt.Errorf("read tag set %q: %w", tag, err)
	}

	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return 0, fmt.Errorf("drop pages for tag %q: %w", tag, err)
		}
	}

	if err := r.client.Del(ctx, tagKey).Err(); err != nil {
		return len(keys), fmt.Errorf("drop tag set %q: %w", tag, err)
	}

	r.logger.Debug("invalidated tag",
		slog.String("tag", tag),
		slog.Int("pages", len(keys)),
	)
	return len(keys), nil
}

// InvalidatePath drops the cached page at the given path and, recursively,
// every cached page below it. Returns the number of pages dropped.
func (r *Revalidator) InvalidatePath(ctx context.Context, path string) (int, error) {
	path = "/" + strings.Trim(path, "/")

	dropped := 0
	if n, err := r.client.Del(ctx, pageKeyPrefix+path).Result(); err != nil {
		return 0, fmt.Errorf("drop page %q: %w", path, err)
	} else {
		dropped += int(n)
	}

	n, err := r.deleteByPattern(ctx, pageKeyPrefix+path+"/*")
	if err != nil {
		return dropped, err
	}
	dropped += n

	r.logger.Debug("invalidated path",
		slog.String("path", path),
		slog.Int("pages", dropped),
	)
	return dropped, nil
}

// InvalidateAll drops the whole page cache, tag sets included.
func (r *Revalidator) InvalidateAll(ctx context.Context) (int, error) {
	pages, err := r.deleteByPattern(ctx, pageKeyPrefix+"*")
	if err != nil {
		return 0, err
	}

	if _, err := r.deleteByPattern(ctx, tagKeyPrefix+"*"); err != nil {
		return pages, err
	}

	r.logger.Debug("invalidated page cache", slog.Int("pages", pages))
	return pages, nil
}

// Ping verifies connectivity to Redis, for readiness checks.
func (r *Revalidator) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// deleteByPattern scans for keys matching pattern and deletes them in batches.
func (r *Revalidator) deleteByPattern(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)

	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return deleted, fmt.Errorf("scan %q: %w", pattern, err)
		}

		if len(keys) > 0 {
			n, err := r.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("delete matched keys: %w", err)
			}
			deleted += int(n)
		}

		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

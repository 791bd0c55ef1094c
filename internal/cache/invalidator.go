package cache

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/utafrali/storefront-sync/internal/snapshot"
)

// SnapshotRebuilder rebuilds the static snapshot tree.
type SnapshotRebuilder interface {
	Build(ctx context.Context) (*snapshot.Result, error)
}

// PageCache drops rendered pages from the storefront page cache.
type PageCache interface {
	InvalidateAll(ctx context.Context) (int, error)
	InvalidateTag(ctx context.Context, tag string) (int, error)
	InvalidatePath(ctx context.Context, path string) (int, error)
}

// CDNPurger purges the edge cache.
type CDNPurger interface {
	Enabled() bool
	PurgeAll(ctx context.Context) error
}

// Notifier is told about completed invalidations, typically to publish events.
type Notifier interface {
	SnapshotCompleted(ctx context.Context, res *snapshot.Result)
	CacheInvalidated(ctx context.Context, res Result)
}

// Operations records which invalidation layers succeeded. Revalidation covers
// the local page-cache drop only; the rebuild outcome is reported through the
// Snapshot and Error fields of Result.
type Operations struct {
	Revalidation bool `json:"revalidation"`
	Cloudflare   bool `json:"cloudflare"`
}

// Result is the outcome of one invalidation run. Snapshot carries the build
// result when the rebuild succeeded.
type Result struct {
	Success    bool             `json:"success"`
	Operations Operations       `json:"operations"`
	Error      string           `json:"error,omitempty"`
	Snapshot   *snapshot.Result `json:"snapshot,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// Invalidator drives the full invalidation pipeline: rebuild the snapshot,
// drop the local page cache, purge the CDN. The layers are independent; one
// failing does not stop the others, and the run counts as a success when any
// layer got fresh content in front of shoppers.
type Invalidator struct {
	builder   SnapshotRebuilder
	pageCache PageCache
	cdn       CDNPurger
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewInvalidator creates an invalidation pipeline. The notifier may be nil.
func NewInvalidator(builder SnapshotRebuilder, pageCache PageCache, cdn CDNPurger, notifier Notifier, logger *slog.Logger) *Invalidator {
	return &Invalidator{
		builder:   builder,
		pageCache: pageCache,
		cdn:       cdn,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// InvalidateAll runs the whole pipeline for the entire catalog.
func (inv *Invalidator) InvalidateAll(ctx context.Context, reason string) Result {
	return inv.run(ctx, reason, inv.pageCache.InvalidateAll)
}

// InvalidateCategory runs the pipeline scoped to one category: the category
// page, its tag set and the shared category listings. The snapshot is still
// rebuilt in full; the builder coalesces concurrent rebuilds anyway.
func (inv *Invalidator) InvalidateCategory(ctx context.Context, slug string) Result {
	return inv.run(ctx, "category:"+slug, func(ctx context.Context) (int, error) {
		dropped := 0
		for _, tag := range []string{"category:" + slug, "categories"} {
			n, err := inv.pageCache.InvalidateTag(ctx, tag)
			dropped += n
			if err != nil {
				return dropped, err
			}
		}
		n, err := inv.pageCache.InvalidatePath(ctx, "/categories/"+slug)
		return dropped + n, err
	})
}

func (inv *Invalidator) run(ctx context.Context, reason string, drop func(context.Context) (int, error)) Result {
	res := Result{Timestamp: inv.now().UTC()}
	var errs []string

	buildRes, buildErr := inv.builder.Build(ctx)
	if buildErr != nil {
		errs = append(errs, "snapshot rebuild: "+buildErr.Error())
	} else {
		res.Snapshot = buildRes
	}
	recordInvalidation("snapshot", buildErr == nil)

	dropped, cacheErr := drop(ctx)
	if cacheErr != nil {
		errs = append(errs, "page cache: "+cacheErr.Error())
	}

	res.Operations.Revalidation = cacheErr == nil
	recordInvalidation("revalidation", res.Operations.Revalidation)

	if inv.cdn.Enabled() {
		if err := inv.cdn.PurgeAll(ctx); err != nil {
			errs = append(errs, "cloudflare: "+err.Error())
		} else {
			res.Operations.Cloudflare = true
		}
		recordInvalidation("cloudflare", res.Operations.Cloudflare)
	}

	res.Success = res.Operations.Revalidation || res.Operations.Cloudflare
	res.Error = strings.Join(errs, "; ")

	inv.logger.Info("invalidation run finished",
		slog.String("reason", reason),
		slog.Bool("success", res.Success),
		slog.Bool("revalidation", res.Operations.Revalidation),
		slog.Bool("cloudflare", res.Operations.Cloudflare),
		slog.Int("pages_dropped", dropped),
	)
	if res.Error != "" {
		inv.logger.Error("invalidation run had failures",
			slog.String("reason", reason),
			slog.String("error", res.Error),
		)
	}

	if inv.notifier != nil {
		if buildErr == nil && buildRes != nil {
			inv.notifier.SnapshotCompleted(ctx, buildRes)
		}
		inv.notifier.CacheInvalidated(ctx, res)
	}

	return res
}

// OnEntityMutated reacts to a catalog mutation. Product and category graphs
// are too entangled to invalidate precisely (deals, collections, category
// pages), so mutations invalidate the whole catalog unless the caller knows
// the affected category and uses OnCategoryMutated instead.
func (inv *Invalidator) OnEntityMutated(ctx context.Context, entityType, entityID, action string) Result {
	inv.logger.Info("catalog mutation received",
		slog.String("entity_type", entityType),
		slog.String("entity_id", entityID),
		slog.String("action", action),
	)
	return inv.InvalidateAll(ctx, entityType+"."+action)
}

// OnCategoryMutated reacts to a category mutation whose event payload carried
// the category slug, allowing a scoped page-cache drop instead of a full wipe.
func (inv *Invalidator) OnCategoryMutated(ctx context.Context, slug string) Result {
	inv.logger.Info("category mutation received", slog.String("slug", slug))
	return inv.InvalidateCategory(ctx, slug)
}

package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/utafrali/storefront-sync/internal/domain"
	"github.com/utafrali/storefront-sync/internal/repository"
	"github.com/utafrali/storefront-sync/internal/sanitize"
	"github.com/utafrali/storefront-sync/internal/store"
)

// Artifact paths relative to the snapshot root.
const (
	HomepagePath = "data/homepage.json"
	ManifestPath = "api/static-data/manifest.json"
)

// ProductPath returns the per-slug product artifact path.
func ProductPath(slug string) string {
	return "api/products/" + slug + ".json"
}

// CategoryPath returns the per-slug category artifact path.
func CategoryPath(slug string) string {
	return "api/categories/" + slug + ".json"
}

// Result summarizes a completed rebuild.
type Result struct {
	Version       int64         `json:"version"`
	ProductCount  int           `json:"product_count"`
	CategoryCount int           `json:"category_count"`
	FilesWritten  int           `json:"files_written"`
	FilesSkipped  int           `json:"files_skipped"`
	Duration      time.Duration `json:"-"`
	DurationMS    int64         `json:"duration_ms"`
}

// Builder assembles the static snapshot tree from the catalog of record.
// Concurrent Build calls are coalesced: callers arriving while a rebuild is in
// flight share its result instead of starting another.
type Builder struct {
	catalog repository.CatalogReader
	store   store.Store
	san     *sanitize.Sanitizer
	logger  *slog.Logger

	now   func() time.Time
	group singleflight.Group
}

// NewBuilder creates a snapshot builder. The sanitizer may be nil when no
// rewrite rules are configured.
func NewBuilder(catalog repository.CatalogReader, st store.Store, san *sanitize.Sanitizer, logger *slog.Logger) *Builder {
	return &Builder{
		catalog: catalog,
		store:   st,
		san:     san,
		logger:  logger,
		now:     time.Now,
	}
}

// Build reads the full catalog, sanitizes it, and publishes every snapshot
// artifact. A catalog read failure aborts the rebuild and leaves the previous
// snapshot untouched. A single artifact write failure is logged and skipped so
// the remaining artifacts still publish.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	v, err, shared := b.group.Do("build", func() (any, error) {
		return b.build(ctx)
	})
	if err != nil {
		return nil, err
	}
	res := v.(*Result)
	if shared {
		b.logger.Debug("joined in-flight snapshot rebuild", slog.Int64("version", res.Version))
	}
	return res, nil
}

func (b *Builder) build(ctx context.Context) (*Result, error) {
	start := b.now()
	stamp := start.UTC()
	version := stamp.UnixMilli()

	products, err := b.catalog.ListProducts(ctx, repository.CatalogFilter{})
	if err != nil {
		rebuildTotal.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("read products: %w", err)
	}

	categories, err := b.catalog.ListCategories(ctx, false)
	if err != nil {
		rebuildTotal.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("read categories: %w", err)
	}

	for i := range products {
		b.sanitizeProduct(&products[i])
	}
	for i := range categories {
		b.sanitizeCategory(&categories[i])
	}

	res := &Result{
		Version:       version,
		ProductCount:  len(products),
		CategoryCount: len(categories),
	}

	b.writeArtifact(ctx, HomepagePath, b.homepage(products, categories, stamp, version), res)
	b.writeArtifact(ctx, ManifestPath, b.manifest(products, categories, stamp, version), res)

	for _, cp := range products {
		if !cp.Visible() {
			continue
		}
		b.writeArtifact(ctx, ProductPath(cp.Slug), cp, res)
	}

	for _, c := range categories {
		if !c.IsActive {
			continue
		}
		b.writeArtifact(ctx, CategoryPath(c.Slug), domain.CategoryBundle{
			Category:    c,
			Products:    productsInCategory(products, c.ID),
			LastUpdated: stamp,
			Version:     version,
		}, res)
	}

	res.Duration = b.now().Sub(start)
	res.DurationMS = res.Duration.Milliseconds()
	buildDuration.Observe(res.Duration.Seconds())

	status := "success"
	if res.FilesSkipped > 0 {
		status = "partial"
	}
	rebuildTotal.WithLabelValues(status).Inc()

	b.logger.Info("snapshot rebuild complete",
		slog.Int64("version", res.Version),
		slog.Int("products", res.ProductCount),
		slog.Int("categories", res.CategoryCount),
		slog.Int("files_written", res.FilesWritten),
		slog.Int("files_skipped", res.FilesSkipped),
		slog.Duration("duration", res.Duration),
	)

	return res, nil
}

// writeArtifact marshals and persists one artifact, recording the outcome on
// res. Failures do not stop the rebuild.
func (b *Builder) writeArtifact(ctx context.Context, path string, v any, res *Result) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		res.FilesSkipped++
		b.logger.Error("failed to marshal snapshot artifact",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := b.store.Write(ctx, path, data); err != nil {
		res.FilesSkipped++
		b.logger.Error("failed to write snapshot artifact",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return
	}

	res.FilesWritten++
	filesWrittenTotal.Inc()
}

func (b *Builder) homepage(products []domain.CatalogProduct, categories []domain.Category, stamp time.Time, version int64) domain.HomepageBundle {
	bundle := domain.EmptyHomepageBundle()
	bundle.LastUpdated = stamp
	bundle.Version = version

	for _, c := range categories {
		if c.IsActive {
			bundle.Categories = append(bundle.Categories, c)
		}
	}

	for _, cp := range products {
		if !cp.Visible() {
			continue
		}
		if cp.IsFeatured {
			bundle.FeaturedProducts = append(bundle.FeaturedProducts, cp)
		}
		if cp.HasDealPrice() {
			bundle.DealProducts = append(bundle.DealProducts, cp)
		}
		if cp.IsTrending {
			bundle.TrendingProducts = append(bundle.TrendingProducts, cp)
		}
	}

	return bundle
}

func (b *Builder) manifest(products []domain.CatalogProduct, categories []domain.Category, stamp time.Time, version int64) domain.Manifest {
	m := domain.Manifest{
		Products:   make(map[string]domain.CatalogProduct, len(products)),
		Categories: make(map[string]domain.Category, len(categories)),
		Collections: domain.ManifestCollections{
			Featured:  []string{},
			Trending:  []string{},
			BestDeals: []string{},
		},
		LastUpdated: stamp,
		Version:     version,
	}

	for _, cp := range products {
		m.Products[cp.ID] = cp
		if !cp.Visible() {
			continue
		}
		if cp.IsFeatured {
			m.Collections.Featured = append(m.Collections.Featured, cp.ID)
		}
		if cp.IsTrending {
			m.Collections.Trending = append(m.Collections.Trending, cp.ID)
		}
		if cp.HasDealPrice() {
			m.Collections.BestDeals = append(m.Collections.BestDeals, cp.ID)
		}
	}

	for _, c := range categories {
		m.Categories[c.ID] = c
	}

	return m
}

func (b *Builder) sanitizeProduct(cp *domain.CatalogProduct) {
	if b.san == nil {
		return
	}
	cp.Name = b.san.String(cp.Name)
	cp.Description = b.san.String(cp.Description)
	for i := range cp.Tags {
		cp.Tags[i] = b.san.String(cp.Tags[i])
	}
	for i := range cp.Images {
		cp.Images[i].Alt = b.san.String(cp.Images[i].Alt)
	}
	if cp.Category != nil {
		b.sanitizeCategory(cp.Category)
	}
}

func (b *Builder) sanitizeCategory(c *domain.Category) {
	if b.san == nil {
		return
	}
	c.Name = b.san.String(c.Name)
	if c.Description != nil {
		desc := b.san.String(*c.Description)
		c.Description = &desc
	}
}

func productsInCategory(products []domain.CatalogProduct, categoryID string) []domain.CatalogProduct {
	out := []domain.CatalogProduct{}
	for _, cp := range products {
		if !cp.Visible() || cp.CategoryID == nil || *cp.CategoryID != categoryID {
			continue
		}
		out = append(out, cp)
	}
	return out
}

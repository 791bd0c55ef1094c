package repository

import (
	"context"

	"github.com/utafrali/storefront-sync/internal/domain"
)

// CatalogFilter defines filter criteria for reading catalog products. The
// zero value selects the full catalog.
type CatalogFilter struct {
	IDs          []string
	Slugs        []string
	Status       *string
	CategorySlug *string
}

// CatalogReader defines read-only access to the catalog of record.
type CatalogReader interface {
	// ListProducts returns catalog products with their categories joined in,
	// matching the given filter, ordered by sort order then name.
	ListProducts(ctx context.Context, filter CatalogFilter) ([]domain.CatalogProduct, error)

	// ListCategories returns categories ordered by sort order then name.
	// When onlyActive is true, inactive categories are excluded.
	ListCategories(ctx context.Context, onlyActive bool) ([]domain.Category, error)
}

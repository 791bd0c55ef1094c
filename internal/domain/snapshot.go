package domain

import (
	"time"
)

// Snapshot artifacts use camelCase keys: they are the wire format the
// storefront reads directly from the static file tree.

// CatalogProduct is a product with its category denormalized inline.
// A missing category is nil, not an error.
type CatalogProduct struct {
	Product
	Category *Category `json:"category"`
}

// HomepageBundle is the single-file projection the storefront homepage reads.
type HomepageBundle struct {
	Categories       []Category       `json:"categories"`
	FeaturedProducts []CatalogProduct `json:"featuredProducts"`
	DealProducts     []CatalogProduct `json:"dealProducts"`
	TrendingProducts []CatalogProduct `json:"trendingProducts"`
	LastUpdated      time.Time        `json:"lastUpdated"`
	Version          int64            `json:"version"`
}

// EmptyHomepageBundle returns a well-typed bundle with no entries, used as the
// fallback response when the snapshot cannot be read.
func EmptyHomepageBundle() HomepageBundle {
	return HomepageBundle{
		Categories:       []Category{},
		FeaturedProducts: []CatalogProduct{},
		DealProducts:     []CatalogProduct{},
		TrendingProducts: []CatalogProduct{},
	}
}

// CategoryBundle is the per-category artifact: the category plus its visible
// products.
type CategoryBundle struct {
	Category    Category         `json:"category"`
	Products    []CatalogProduct `json:"products"`
	LastUpdated time.Time        `json:"lastUpdated"`
	Version     int64            `json:"version"`
}

// ManifestCollections lists collection membership by product id.
type ManifestCollections struct {
	Featured  []string `json:"featured"`
	Trending  []string `json:"trending"`
	BestDeals []string `json:"bestDeals"`
}

// Manifest is the id-indexed snapshot variant optimized for O(1) entity lookup.
type Manifest struct {
	Products    map[string]CatalogProduct `json:"products"`
	Categories  map[string]Category       `json:"categories"`
	Collections ManifestCollections       `json:"collections"`
	LastUpdated time.Time                 `json:"lastUpdated"`
	Version     int64                     `json:"version"`
}

package domain

import (
	"time"
)

// Product status constants.
const (
	ProductStatusDraft    = "draft"
	ProductStatusActive   = "active"
	ProductStatusArchived = "archived"
)

// ProductImage represents a single image attached to a product, with separate
// renditions for web display and shopping feeds.
type ProductImage struct {
	WebImageURL  string `json:"web_image_url"`
	FeedImageURL string `json:"feed_image_url,omitempty"`
	Alt          string `json:"alt,omitempty"`
}

// Product represents a product in the catalog.
type Product struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Slug           string         `json:"slug"`
	Description    string         `json:"description"`
	Price          int64          `json:"price"`
	CompareAtPrice *int64         `json:"compare_at_price,omitempty"`
	Stock          int            `json:"stock"`
	Status         string         `json:"status"`
	IsFeatured     bool           `json:"is_featured"`
	IsTrending     bool           `json:"is_trending"`
	IsDeal         bool           `json:"is_deal"`
	Images         []ProductImage `json:"images"`
	CategoryID     *string        `json:"category_id,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	SortOrder      int            `json:"sort_order"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Visible reports whether shoppers may see the product.
func (p *Product) Visible() bool {
	return p.Status == ProductStatusActive
}

// HasDealPrice reports whether the product qualifies as a deal: a compare-at
// price is present and strictly above the selling price. The is_deal flag is a
// display hint only; deal collections are derived from prices.
func (p *Product) HasDealPrice() bool {
	return p.CompareAtPrice != nil && *p.CompareAtPrice > p.Price
}

// ValidStatuses returns the set of valid product statuses.
func ValidStatuses() []string {
	return []string{ProductStatusDraft, ProductStatusActive, ProductStatusArchived}
}

// IsValidStatus checks whether the given status string is a valid product status.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

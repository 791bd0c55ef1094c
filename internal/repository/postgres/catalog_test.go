package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront-sync/internal/domain"
	"github.com/utafrali/storefront-sync/internal/repository"
	"github.com/utafrali/storefront-sync/pkg/database"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return mock
}

func strPtr(s string) *string { return &s }
func int64Ptr(n int64) *int64 { return &n }

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

var productJoinColumns = []string{
	"id", "name", "slug", "description", "price", "compare_at_price",
	"stock", "status", "is_featured", "is_trending", "is_deal",
	"images", "category_id", "tags", "sort_order", "created_at", "updated_at",
	"c_id", "c_name", "c_slug", "c_description", "c_image_url", "c_is_active",
	"c_sort_order", "c_created_at", "c_updated_at",
}

var categoryColumns = []string{
	"id", "name", "slug", "description", "image_url", "is_active",
	"sort_order", "created_at", "updated_at",
}

func sampleCategory() domain.Category {
	return domain.Category{
		ID:        "cat-1",
		Name:      "Electronics",
		Slug:      "electronics",
		IsActive:  true,
		SortOrder: 1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func sampleProduct() domain.CatalogProduct {
	return domain.CatalogProduct{
		Product: domain.Product{
			ID:             "prod-1",
			Name:           "Wireless Headphones",
			Slug:           "wireless-headphones",
			Description:    "Over-ear wireless headphones",
			Price:          12999,
			CompareAtPrice: int64Ptr(15999),
			Stock:          42,
			Status:         domain.ProductStatusActive,
			IsFeatured:     true,
			Images: []domain.ProductImage{
				{WebImageURL: "https://cdn.example.com/headphones.jpg", Alt: "Headphones"},
			},
			CategoryID: strPtr("cat-1"),
			Tags:       []string{"audio", "wireless"},
			SortOrder:  1,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
}

func productJoinRow(cp domain.CatalogProduct, cat *domain.Category) []any {
	imagesJSON, _ := json.Marshal(cp.Images)
	row := []any{
		cp.ID, cp.Name, cp.Slug, cp.Description, cp.Price, cp.CompareAtPrice,
		cp.Stock, cp.Status, cp.IsFeatured, cp.IsTrending, cp.IsDeal,
		imagesJSON, cp.CategoryID, cp.Tags, cp.SortOrder, cp.CreatedAt, cp.UpdatedAt,
	}
	if cat == nil {
		return append(row,
			(*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil),
			(*bool)(nil), (*int)(nil), (*time.Time)(nil), (*time.Time)(nil),
		)
	}
	return append(row,
		&cat.ID, &cat.Name, &cat.Slug, cat.Description, cat.ImageURL,
		&cat.IsActive, &cat.SortOrder, &cat.CreatedAt, &cat.UpdatedAt,
	)
}

func categoryRow(c domain.Category) []any {
	return []any{
		c.ID, c.Name, c.Slug, c.Description, c.ImageURL, c.IsActive,
		c.SortOrder, c.CreatedAt, c.UpdatedAt,
	}
}

func TestCatalogRepository_ListProducts_JoinsCategory(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewCatalogRepository(mock)

	cat := sampleCategory()
	cp := sampleProduct()

	mock.ExpectQuery("SELECT .+ FROM products p").
		WillReturnRows(pgxmock.NewRows(productJoinColumns).AddRow(productJoinRow(cp, &cat)...))

	got, err := repo.ListProducts(context.Background(), repository.CatalogFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "prod-1", got[0].ID)
	require.NotNil(t, got[0].Category)
	assert.Equal(t, "electronics", got[0].Category.Slug)
	assert.Equal(t, []string{"audio", "wireless"}, got[0].Tags)
	require.Len(t, got[0].Images, 1)
	assert.Equal(t, "https://cdn.example.com/headphones.jpg", got[0].Images[0].WebImageURL)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_ListProducts_NoCategory(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewCatalogRepository(mock)

	cp := sampleProduct()
	cp.CategoryID = nil

	mock.ExpectQuery("SELECT .+ FROM products p").
		WillReturnRows(pgxmock.NewRows(productJoinColumns).AddRow(productJoinRow(cp, nil)...))

	got, err := repo.ListProducts(context.Background(), repository.CatalogFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Category)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_ListProducts_StatusFilter(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewCatalogRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM products p .+ WHERE p.status").
		WithArgs(domain.ProductStatusActive).
		WillReturnRows(pgxmock.NewRows(productJoinColumns))

	got, err := repo.ListProducts(context.Background(), repository.CatalogFilter{
		Status: strPtr(domain.ProductStatusActive),
	})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_ListProducts_IDAndSlugFilters(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewCatalogRepository(mock)

	mock.ExpectQuery(`SELECT .+ FROM products p .+ WHERE p.id = ANY\(\$1\) AND p.slug = ANY\(\$2\)`).
		WithArgs([]string{"prod-1", "prod-2"}, []string{"wireless-headphones"}).
		WillReturnRows(pgxmock.NewRows(productJoinColumns))

	got, err := repo.ListProducts(context.Background(), repository.CatalogFilter{
		IDs:   []string{"prod-1", "prod-2"},
		Slugs: []string{"wireless-headphones"},
	})
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_ListProducts_QueryError(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewCatalogRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM products p").
		WillReturnError(errors.New("connection refused"))

	_, err := repo.ListProducts(context.Background(), repository.CatalogFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list products")
}

func TestCatalogRepository_ListCategories_OnlyActive(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewCatalogRepository(mock)

	c := sampleCategory()

	mock.ExpectQuery("SELECT .+ FROM categories .*WHERE is_active").
		WillReturnRows(pgxmock.NewRows(categoryColumns).AddRow(categoryRow(c)...))

	got, err := repo.ListCategories(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "electronics", got[0].Slug)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_ListCategories_Empty(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewCatalogRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM categories").
		WillReturnRows(pgxmock.NewRows(categoryColumns))

	got, err := repo.ListCategories(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

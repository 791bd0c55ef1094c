package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/utafrali/storefront-sync/internal/domain"
	"github.com/utafrali/storefront-sync/internal/repository"
	"github.com/utafrali/storefront-sync/pkg/database"
)

// CatalogRepository implements repository.CatalogReader using PostgreSQL.
type CatalogRepository struct {
	pool database.DBTX
}

// NewCatalogRepository creates a new PostgreSQL-backed catalog reader.
func NewCatalogRepository(pool database.DBTX) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListProducts returns catalog products with their categories joined in.
func (r *CatalogRepository) ListProducts(ctx context.Context, filter repository.CatalogFilter) ([]domain.CatalogProduct, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if len(filter.IDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("p.id = ANY($%d)", argIndex))
		args = append(args, filter.IDs)
		argIndex++
	}

	if len(filter.Slugs) > 0 {
		conditions = append(conditions, fmt.Sprintf("p.slug = ANY($%d)", argIndex))
		args = append(args, filter.Slugs)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.CategorySlug != nil {
		conditions = append(conditions, fmt.Sprintf("c.slug = $%d", argIndex))
		args = append(args, *filter.CategorySlug)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.name, p.slug, p.description, p.price, p.compare_at_price,
			   p.stock, p.status, p.is_featured, p.is_trending, p.is_deal,
			   p.images, p.category_id, p.tags, p.sort_order, p.created_at, p.updated_at,
			   c.id, c.name, c.slug, c.description, c.image_url, c.is_active,
			   c.sort_order, c.created_at, c.updated_at
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		%s
		ORDER BY p.sort_order ASC, p.name ASC`,
		whereClause,
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.CatalogProduct

	for rows.Next() {
		var (
			cp         domain.CatalogProduct
			imagesJSON []byte

			catID        *string
			catName      *string
			catSlug      *string
			catDesc      *string
			catImageURL  *string
			catIsActive  *bool
			catSortOrder *int
			catCreatedAt *time.Time
			catUpdatedAt *time.Time
		)

		if err := rows.Scan(
			&cp.ID,
			&cp.Name,
			&cp.Slug,
			&cp.Description,
			&cp.Price,
			&cp.CompareAtPrice,
			&cp.Stock,
			&cp.Status,
			&cp.IsFeatured,
			&cp.IsTrending,
			&cp.IsDeal,
			&imagesJSON,
			&cp.CategoryID,
			&cp.Tags,
			&cp.SortOrder,
			&cp.CreatedAt,
			&cp.UpdatedAt,
			&catID,
			&catName,
			&catSlug,
			&catDesc,
			&catImageURL,
			&catIsActive,
			&catSortOrder,
			&catCreatedAt,
			&catUpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}

		if imagesJSON != nil {
			if err := json.Unmarshal(imagesJSON, &cp.Images); err != nil {
				return nil, fmt.Errorf("unmarshal images: %w", err)
			}
		}
		if cp.Images == nil {
			cp.Images = []domain.ProductImage{}
		}

		if catID != nil {
			cp.Category = &domain.Category{
				ID:          *catID,
				Name:        *catName,
				Slug:        *catSlug,
				Description: catDesc,
				ImageURL:    catImageURL,
				IsActive:    *catIsActive,
				SortOrder:   *catSortOrder,
				CreatedAt:   *catCreatedAt,
				UpdatedAt:   *catUpdatedAt,
			}
		}

		products = append(products, cp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.CatalogProduct{}
	}

	return products, nil
}

// ListCategories returns categories ordered by sort order then name.
func (r *CatalogRepository) ListCategories(ctx context.Context, onlyActive bool) ([]domain.Category, error) {
	query := `
		SELECT id, name, slug, description, image_url, is_active, sort_order, created_at, updated_at
		FROM categories`
	if onlyActive {
		query += `
		WHERE is_active = true`
	}
	query += `
		ORDER BY sort_order ASC, name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category

	for rows.Next() {
		var c domain.Category

		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Slug,
			&c.Description,
			&c.ImageURL,
			&c.IsActive,
			&c.SortOrder,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}

		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}

	if categories == nil {
		categories = []domain.Category{}
	}

	return categories, nil
}

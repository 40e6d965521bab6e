package repository

import (
	"context"
	"fmt"

	"supplier-catalog/internal/domain"
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	// GetOrCreate resolves the product by (name, category), creating it when absent
	GetOrCreate(ctx context.Context, name string, categoryID int64) (*domain.Product, bool, error)
	// List returns products offered by active shops, each with its listings and parameters
	List(ctx context.Context, filter domain.ProductFilter) ([]*domain.ProductView, error)
}

type productRepository struct {
	db DBTX
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db DBTX) ProductRepository {
	return &productRepository{db: db}
}

// GetOrCreate reports whether the product was created by this call
func (r *productRepository) GetOrCreate(ctx context.Context, name string, categoryID int64) (*domain.Product, bool, error) {
	// xmax = 0 only for rows inserted by this statement
	query := `
		INSERT INTO products (name, category_id)
		VALUES ($1, $2)
		ON CONFLICT ON CONSTRAINT uq_products_name_category DO UPDATE SET name = EXCLUDED.name
		RETURNING id, (xmax = 0)
	`

	product := &domain.Product{Name: name, CategoryID: categoryID}
	var created bool
	if err := r.db.QueryRowContext(ctx, query, name, categoryID).Scan(&product.ID, &created); err != nil {
		return nil, false, fmt.Errorf("failed to get or create product: %w", err)
	}

	return product, created, nil
}

// List builds product views from a single joined query. Rows arrive ordered by
// product and listing so consecutive rows can be folded together.
func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.ProductView, error) {
	query := `
		SELECT p.id, p.name, c.name,
		       l.id, l.shop_id, s.name, l.external_id, l.model, l.name, l.quantity, l.price, l.price_rrp,
		       pa.name, lp.value
		FROM products p
		JOIN categories c ON c.id = p.category_id
		JOIN listings l ON l.product_id = p.id
		JOIN shops s ON s.id = l.shop_id
		LEFT JOIN listing_parameters lp ON lp.listing_id = l.id
		LEFT JOIN parameters pa ON pa.id = lp.parameter_id
		WHERE s.state = TRUE
		  AND ($1::BIGINT IS NULL OR l.shop_id = $1)
		  AND ($2::BIGINT IS NULL OR p.category_id = $2)
		ORDER BY p.id, l.id, pa.name
	`

	rows, err := r.db.QueryContext(ctx, query, filter.ShopID, filter.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.ProductView{}
	var current *domain.ProductView
	var listing *domain.ListingView

	for rows.Next() {
		var (
			productID    int64
			productName  string
			categoryName string
			lv           domain.ListingView
			paramName    *string
			paramValue   *string
		)
		err := rows.Scan(
			&productID,
			&productName,
			&categoryName,
			&lv.ID,
			&lv.ShopID,
			&lv.Shop,
			&lv.ExternalID,
			&lv.Model,
			&lv.Name,
			&lv.Quantity,
			&lv.Price,
			&lv.PriceRRP,
			&paramName,
			&paramValue,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}

		// Start a new product
		if current == nil || current.ID != productID {
			current = &domain.ProductView{
				ID:       productID,
				Name:     productName,
				Category: categoryName,
				Listings: []domain.ListingView{},
			}
			products = append(products, current)
			listing = nil
		}

		// Start a new listing under the current product
		if listing == nil || listing.ID != lv.ID {
			lv.Parameters = []domain.ParameterValue{}
			current.Listings = append(current.Listings, lv)
			listing = &current.Listings[len(current.Listings)-1]
		}

		// Listings without parameters come back with NULL columns
		if paramName != nil && paramValue != nil {
			listing.Parameters = append(listing.Parameters, domain.ParameterValue{
				Parameter: *paramName,
				Value:     *paramValue,
			})
		}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

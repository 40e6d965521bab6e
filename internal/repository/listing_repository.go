package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"supplier-catalog/internal/domain"
)

var ErrListingNotFound = errors.New("listing not found")

// ListingRepository defines the interface for shop listing data access
type ListingRepository interface {
	// Upsert inserts the listing for (product, shop) or updates it in place
	Upsert(ctx context.Context, listing *domain.Listing) error
	FindByProductAndShop(ctx context.Context, productID, shopID int64) (*domain.Listing, error)
}

type listingRepository struct {
	db DBTX
}

// NewListingRepository creates a new instance of ListingRepository
func NewListingRepository(db DBTX) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Upsert(ctx context.Context, listing *domain.Listing) error {
	query := `
		INSERT INTO listings (product_id, shop_id, external_id, model, name, quantity, price, price_rrp, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT ON CONSTRAINT uq_listings_product_shop DO UPDATE SET
			external_id = EXCLUDED.external_id,
			model = EXCLUDED.model,
			name = EXCLUDED.name,
			quantity = EXCLUDED.quantity,
			price = EXCLUDED.price,
			price_rrp = EXCLUDED.price_rrp,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		listing.ProductID,
		listing.ShopID,
		listing.ExternalID,
		listing.Model,
		listing.Name,
		listing.Quantity,
		listing.Price,
		listing.PriceRRP,
		listing.UpdatedAt,
	).Scan(&listing.ID, &listing.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert listing: %w", err)
	}

	return nil
}

func (r *listingRepository) FindByProductAndShop(ctx context.Context, productID, shopID int64) (*domain.Listing, error) {
	query := `
		SELECT id, product_id, shop_id, external_id, model, name, quantity, price, price_rrp, created_at, updated_at
		FROM listings
		WHERE product_id = $1 AND shop_id = $2
	`

	listing := &domain.Listing{}
	err := r.db.QueryRowContext(ctx, query, productID, shopID).Scan(
		&listing.ID,
		&listing.ProductID,
		&listing.ShopID,
		&listing.ExternalID,
		&listing.Model,
		&listing.Name,
		&listing.Quantity,
		&listing.Price,
		&listing.PriceRRP,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}

	return listing, nil
}

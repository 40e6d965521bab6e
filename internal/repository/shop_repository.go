package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"supplier-catalog/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrShopNotFound      = errors.New("shop not found")
	ErrShopOwnerConflict = errors.New("user already owns a shop")
)

// ShopRepository defines the interface for shop data access
type ShopRepository interface {
	Create(ctx context.Context, shop *domain.Shop) error
	FindByOwner(ctx context.Context, userID uuid.UUID) (*domain.Shop, error)
	FindByID(ctx context.Context, id int64) (*domain.Shop, error)
	UpdateURL(ctx context.Context, id int64, url string) error
	UpdateState(ctx context.Context, id int64, state bool) error
	List(ctx context.Context) ([]*domain.Shop, error)
	// ListImportable returns active shops that have both an owner and a price-list URL
	ListImportable(ctx context.Context) ([]*domain.Shop, error)
}

type shopRepository struct {
	db DBTX
}

// NewShopRepository creates a new instance of ShopRepository
func NewShopRepository(db DBTX) ShopRepository {
	return &shopRepository{db: db}
}

const shopColumns = `id, name, url, state, user_id, created_at, updated_at`

// Create inserts a shop and fills in its generated ID
func (r *shopRepository) Create(ctx context.Context, shop *domain.Shop) error {
	query := `
		INSERT INTO shops (name, url, state, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		shop.Name,
		shop.URL,
		shop.State,
		shop.UserID,
		shop.CreatedAt,
		shop.UpdatedAt,
	).Scan(&shop.ID)

	if err != nil {
		// Check for the one-shop-per-seller constraint
		if isUniqueViolation(err, "shops_user_id_key") {
			return ErrShopOwnerConflict
		}
		return fmt.Errorf("failed to create shop: %w", err)
	}

	return nil
}

// FindByOwner retrieves the shop owned by a user
func (r *shopRepository) FindByOwner(ctx context.Context, userID uuid.UUID) (*domain.Shop, error) {
	query := `SELECT ` + shopColumns + ` FROM shops WHERE user_id = $1`

	shop, err := scanShop(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShopNotFound
		}
		return nil, fmt.Errorf("failed to find shop by owner: %w", err)
	}

	return shop, nil
}

// FindByID retrieves a shop by ID
func (r *shopRepository) FindByID(ctx context.Context, id int64) (*domain.Shop, error) {
	query := `SELECT ` + shopColumns + ` FROM shops WHERE id = $1`

	shop, err := scanShop(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShopNotFound
		}
		return nil, fmt.Errorf("failed to find shop by ID: %w", err)
	}

	return shop, nil
}

// UpdateURL records where the shop's price list is published
func (r *shopRepository) UpdateURL(ctx context.Context, id int64, url string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE shops SET url = $2, updated_at = NOW() WHERE id = $1`, id, url)
	if err != nil {
		return fmt.Errorf("failed to update shop url: %w", err)
	}
	return rowsAffected(result, ErrShopNotFound)
}

// UpdateState toggles whether the shop accepts orders
func (r *shopRepository) UpdateState(ctx context.Context, id int64, state bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE shops SET state = $2, updated_at = NOW() WHERE id = $1`, id, state)
	if err != nil {
		return fmt.Errorf("failed to update shop state: %w", err)
	}
	return rowsAffected(result, ErrShopNotFound)
}

// List retrieves all shops ordered by name
func (r *shopRepository) List(ctx context.Context) ([]*domain.Shop, error) {
	return r.list(ctx, `SELECT `+shopColumns+` FROM shops ORDER BY name DESC`)
}

func (r *shopRepository) ListImportable(ctx context.Context) ([]*domain.Shop, error) {
	return r.list(ctx, `
		SELECT `+shopColumns+`
		FROM shops
		WHERE state = TRUE AND user_id IS NOT NULL AND url <> ''
		ORDER BY id
	`)
}

func (r *shopRepository) list(ctx context.Context, query string) ([]*domain.Shop, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}
	defer rows.Close()

	shops := []*domain.Shop{}
	for rows.Next() {
		shop, err := scanShop(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shop: %w", err)
		}
		shops = append(shops, shop)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shops: %w", err)
	}

	return shops, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShop(row rowScanner) (*domain.Shop, error) {
	shop := &domain.Shop{}
	var owner uuid.NullUUID
	err := row.Scan(
		&shop.ID,
		&shop.Name,
		&shop.URL,
		&shop.State,
		&owner,
		&shop.CreatedAt,
		&shop.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if owner.Valid {
		shop.UserID = &owner.UUID
	}
	return shop, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"supplier-catalog/internal/domain"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryConflict = errors.New("category id is already registered under another name")
)

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	// Upsert resolves the category by ID, creating it when absent. An existing
	// category with a different name yields ErrCategoryConflict.
	Upsert(ctx context.Context, category *domain.Category) error
	// AddShop links the shop to the category; linking twice is a no-op
	AddShop(ctx context.Context, categoryID, shopID int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context) ([]*domain.Category, error)
}

type categoryRepository struct {
	db DBTX
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Upsert(ctx context.Context, category *domain.Category) error {
	// The no-op update makes RETURNING yield the stored name on conflict.
	query := `
		INSERT INTO categories (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = categories.name
		RETURNING name
	`

	var stored string
	if err := r.db.QueryRowContext(ctx, query, category.ID, category.Name).Scan(&stored); err != nil {
		return fmt.Errorf("failed to upsert category: %w", err)
	}

	// Another shop already named this id differently
	if stored != category.Name {
		return fmt.Errorf("%w: id %d is %q, got %q", ErrCategoryConflict, category.ID, stored, category.Name)
	}

	return nil
}

func (r *categoryRepository) AddShop(ctx context.Context, categoryID, shopID int64) error {
	query := `
		INSERT INTO shop_categories (shop_id, category_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, shopID, categoryID); err != nil {
		return fmt.Errorf("failed to link shop to category: %w", err)
	}

	return nil
}

func (r *categoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check category: %w", err)
	}
	return exists, nil
}

// List retrieves all categories
func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	query := `
		SELECT id, name
		FROM categories
		ORDER BY name DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category := &domain.Category{}
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

package repository

import (
	"context"
	"fmt"

	"supplier-catalog/internal/domain"
)

// ParameterRepository defines the interface for parameter data access
type ParameterRepository interface {
	GetOrCreate(ctx context.Context, name string) (*domain.Parameter, error)
	// SetValue upserts the value of a parameter on a listing
	SetValue(ctx context.Context, listingID, parameterID int64, value string) error
	ListForListing(ctx context.Context, listingID int64) ([]domain.ParameterValue, error)
}

type parameterRepository struct {
	db DBTX
}

// NewParameterRepository creates a new instance of ParameterRepository
func NewParameterRepository(db DBTX) ParameterRepository {
	return &parameterRepository{db: db}
}

func (r *parameterRepository) GetOrCreate(ctx context.Context, name string) (*domain.Parameter, error) {
	query := `
		INSERT INTO parameters (name)
		VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`

	parameter := &domain.Parameter{Name: name}
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&parameter.ID); err != nil {
		return nil, fmt.Errorf("failed to get or create parameter: %w", err)
	}

	return parameter, nil
}

func (r *parameterRepository) SetValue(ctx context.Context, listingID, parameterID int64, value string) error {
	query := `
		INSERT INTO listing_parameters (listing_id, parameter_id, value)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT uq_listing_parameters_listing_parameter DO UPDATE SET value = EXCLUDED.value
	`

	if _, err := r.db.ExecContext(ctx, query, listingID, parameterID, value); err != nil {
		return fmt.Errorf("failed to set listing parameter: %w", err)
	}

	return nil
}

func (r *parameterRepository) ListForListing(ctx context.Context, listingID int64) ([]domain.ParameterValue, error) {
	query := `
		SELECT p.name, lp.value
		FROM listing_parameters lp
		JOIN parameters p ON p.id = lp.parameter_id
		WHERE lp.listing_id = $1
		ORDER BY p.name
	`

	rows, err := r.db.QueryContext(ctx, query, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list listing parameters: %w", err)
	}
	defer rows.Close()

	values := []domain.ParameterValue{}
	for rows.Next() {
		var v domain.ParameterValue
		if err := rows.Scan(&v.Parameter, &v.Value); err != nil {
			return nil, fmt.Errorf("failed to scan listing parameter: %w", err)
		}
		values = append(values, v)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listing parameters: %w", err)
	}

	return values, nil
}

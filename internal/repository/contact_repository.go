package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"supplier-catalog/internal/domain"

	"github.com/google/uuid"
)

var ErrContactNotFound = errors.New("contact not found")

// ContactRepository defines the interface for contact data access. Every lookup
// is scoped to the owning user.
type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Contact, error)
	FindForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Contact, error)
	DeleteForUser(ctx context.Context, id, userID uuid.UUID) error
}

type contactRepository struct {
	db DBTX
}

// NewContactRepository creates a new instance of ContactRepository
func NewContactRepository(db DBTX) ContactRepository {
	return &contactRepository{db: db}
}

const contactColumns = `id, user_id, last_name, first_name, surname, email, phone, city, street, building, housing, structure, apartment, created_at`

func (r *contactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	query := `
		INSERT INTO contacts (` + contactColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		contact.ID,
		contact.UserID,
		contact.LastName,
		contact.FirstName,
		contact.Surname,
		contact.Email,
		contact.Phone,
		contact.City,
		contact.Street,
		contact.Building,
		contact.Housing,
		contact.Structure,
		contact.Apartment,
		contact.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	return nil
}

func (r *contactRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []*domain.Contact{}
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}

	return contacts, nil
}

func (r *contactRepository) FindForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND user_id = $2`

	contact, err := scanContact(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to find contact: %w", err)
	}

	return contact, nil
}

// DeleteForUser removes a contact owned by userID. A contact that belongs to
// somebody else is reported as not found.
func (r *contactRepository) DeleteForUser(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return rowsAffected(result, ErrContactNotFound)
}

func scanContact(row rowScanner) (*domain.Contact, error) {
	contact := &domain.Contact{}
	err := row.Scan(
		&contact.ID,
		&contact.UserID,
		&contact.LastName,
		&contact.FirstName,
		&contact.Surname,
		&contact.Email,
		&contact.Phone,
		&contact.City,
		&contact.Street,
		&contact.Building,
		&contact.Housing,
		&contact.Structure,
		&contact.Apartment,
		&contact.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return contact, nil
}

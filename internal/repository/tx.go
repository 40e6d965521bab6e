package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Repositories bundles the repositories bound to one connection or transaction
type Repositories struct {
	Shops      ShopRepository
	Categories CategoryRepository
	Products   ProductRepository
	Listings   ListingRepository
	Parameters ParameterRepository
	Contacts   ContactRepository
	Orders     OrderRepository
}

// NewRepositories binds every repository to db
func NewRepositories(db DBTX) Repositories {
	return Repositories{
		Shops:      NewShopRepository(db),
		Categories: NewCategoryRepository(db),
		Products:   NewProductRepository(db),
		Listings:   NewListingRepository(db),
		Parameters: NewParameterRepository(db),
		Contacts:   NewContactRepository(db),
		Orders:     NewOrderRepository(db),
	}
}

// Transactor runs a unit of work inside a single database transaction
type Transactor interface {
	// WithinTx commits when fn returns nil and rolls back otherwise
	WithinTx(ctx context.Context, fn func(Repositories) error) error
}

type sqlTransactor struct {
	db *sql.DB
}

// NewTransactor creates a Transactor backed by db
func NewTransactor(db *sql.DB) Transactor {
	return &sqlTransactor{db: db}
}

func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(Repositories) error) (err error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Roll back and re-panic so the recoverer still sees the panic
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(NewRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	// Commit only after every step succeeded
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"supplier-catalog/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRepository_Upsert(t *testing.T) {
	tests := []struct {
		name    string
		stored  string
		wantErr error
	}{
		{name: "new or matching category", stored: "Tools"},
		{name: "id taken by another name", stored: "Garden", wantErr: ErrCategoryConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectQuery("INSERT INTO categories").
				WithArgs(int64(7), "Tools").
				WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow(tt.stored))

			err = NewCategoryRepository(db).Upsert(context.Background(), &domain.Category{ID: 7, Name: "Tools"})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestShopRepository_Create_OwnerConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO shops").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "shops_user_id_key"})

	owner := uuid.New()
	err = NewShopRepository(db).Create(context.Background(), &domain.Shop{Name: "Acme", UserID: &owner, State: true})
	assert.ErrorIs(t, err, ErrShopOwnerConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShopRepository_FindByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	owner := uuid.New()
	now := time.Now()
	columns := []string{"id", "name", "url", "state", "user_id", "created_at", "updated_at"}

	mock.ExpectQuery("SELECT (.+) FROM shops WHERE user_id").
		WithArgs(owner).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(int64(3), "Acme", "", true, owner.String(), now, now))
	mock.ExpectQuery("SELECT (.+) FROM shops WHERE user_id").
		WithArgs(owner).
		WillReturnRows(sqlmock.NewRows(columns))

	repo := NewShopRepository(db)

	shop, err := repo.FindByOwner(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, int64(3), shop.ID)
	require.NotNil(t, shop.UserID)
	assert.Equal(t, owner, *shop.UserID)

	_, err = repo.FindByOwner(context.Background(), owner)
	assert.ErrorIs(t, err, ErrShopNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_DeleteForUser_NotOwned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id, userID := uuid.New(), uuid.New()
	mock.ExpectExec("DELETE FROM contacts WHERE id = \\$1 AND user_id = \\$2").
		WithArgs(id, userID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewContactRepository(db).DeleteForUser(context.Background(), id, userID)
	assert.ErrorIs(t, err, ErrContactNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_FoldsRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	columns := []string{
		"id", "name", "name", "id", "shop_id", "name", "external_id", "model", "name",
		"quantity", "price", "price_rrp", "name", "value",
	}
	mock.ExpectQuery("SELECT (.+) FROM products p").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(1), "Drill", "Tools", int64(10), int64(3), "Acme", int64(100), "D-1", "Drill", 5, 1000, 1200, "color", "red").
			AddRow(int64(1), "Drill", "Tools", int64(10), int64(3), "Acme", int64(100), "D-1", "Drill", 5, 1000, 1200, "power", "500W").
			AddRow(int64(1), "Drill", "Tools", int64(11), int64(4), "Bolt", int64(7), "", "Drill", 1, 990, 990, nil, nil).
			AddRow(int64(2), "Saw", "Tools", int64(12), int64(3), "Acme", int64(101), "", "Saw", 2, 500, 600, nil, nil))

	products, err := NewProductRepository(db).List(context.Background(), domain.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, products, 2)

	drill := products[0]
	assert.Equal(t, "Tools", drill.Category)
	require.Len(t, drill.Listings, 2)
	assert.Equal(t, []domain.ParameterValue{
		{Parameter: "color", Value: "red"},
		{Parameter: "power", Value: "500W"},
	}, drill.Listings[0].Parameters)
	assert.Empty(t, drill.Listings[1].Parameters)
	assert.Equal(t, "Bolt", drill.Listings[1].Shop)

	require.Len(t, products[1].Listings, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpsertItem_UnlistedProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO order_items").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	item := &domain.OrderItem{ID: uuid.New(), OrderID: uuid.New(), ProductID: 1, ShopID: 2, Quantity: 1}
	err = NewOrderRepository(db).UpsertItem(context.Background(), item)
	assert.ErrorIs(t, err, ErrListingUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_WithinTx(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO shop_categories").
			WithArgs(int64(3), int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = NewTransactor(db).WithinTx(context.Background(), func(repos Repositories) error {
			return repos.Categories.AddShop(context.Background(), 7, 3)
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err = NewTransactor(db).WithinTx(context.Background(), func(Repositories) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIsConflict(t *testing.T) {
	assert.True(t, IsConflict(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsConflict(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsConflict(errors.New("plain")))
}

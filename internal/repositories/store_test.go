package repositories

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"gym_sales_backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productColumnNames = []string{
	"id", "gym_id", "category_id", "name", "price", "status", "tracking_mode", "stock",
	"created_at", "updated_at", "deleted_at",
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db, time.Second), mock
}

func productRow(id int64, stock driver.Value) []driver.Value {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return []driver.Value{id, int64(1), nil, "Bar", "5.00", "active", "tracked", stock, now, now, nil}
}

func TestPostgresStoreLocksProductsBeforeSaleNumbers(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM products p WHERE p.gym_id = $1 AND p.id = ANY($2) AND p.deleted_at IS NULL ORDER BY p.id FOR UPDATE")).
		WithArgs(int64(1), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(productColumnNames).
			AddRow(productRow(3, int64(10))...).
			AddRow(productRow(8, int64(4))...))
	mock.ExpectExec(regexp.QuoteMeta(
		"SELECT pg_advisory_xact_lock(hashtext('sale_number'), hashtext($1::text || ':' || $2::text))")).
		WithArgs(int64(1), "20240501").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT sale_number FROM sales WHERE gym_id = $1 AND deleted_at IS NULL")).
		WithArgs(int64(1), "20240501").
		WillReturnRows(sqlmock.NewRows([]string{"sale_number"}).AddRow("202405010004"))
	mock.ExpectCommit()

	err := store.RunInTx(context.Background(), func(ctx context.Context, r Repos) error {
		products, err := r.Products.LockForSale(ctx, 1, []int64{3, 8})
		if err != nil {
			return err
		}
		assert.Len(t, products, 2)
		assert.Equal(t, 4, *products[8].Stock)

		if err := r.Sales.LockSaleNumbers(ctx, 1, "20240501"); err != nil {
			return err
		}
		latest, err := r.Sales.LatestSaleNumber(ctx, 1, "20240501")
		assert.Equal(t, "202405010004", latest)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreLocksProductsForRestore(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM products p WHERE p.gym_id = $1 AND p.id = ANY($2) ORDER BY p.id FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(productColumnNames).AddRow(productRow(3, int64(0))...))
	mock.ExpectCommit()

	err := store.RunInTx(context.Background(), func(ctx context.Context, r Repos) error {
		products, err := r.Products.LockForRestore(ctx, 1, []int64{3})
		require.Contains(t, products, int64(3))
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreAdjustStock(t *testing.T) {
	guarded := regexp.QuoteMeta(
		"WHERE id = $3 AND gym_id = $4 AND tracking_mode <> 'none' AND stock IS NOT NULL AND stock + $1 >= 0 RETURNING stock")

	t.Run("applies delta", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery(guarded).
			WithArgs(int64(-3), sqlmock.AnyArg(), int64(7), int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(int64(2)))
		mock.ExpectCommit()

		var after int
		err := store.RunInTx(context.Background(), func(ctx context.Context, r Repos) error {
			var err error
			after, err = r.Products.AdjustStock(ctx, 1, 7, -3)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 2, after)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no row is underflow", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery(guarded).
			WithArgs(int64(-3), sqlmock.AnyArg(), int64(7), int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"stock"}))
		mock.ExpectRollback()

		err := store.RunInTx(context.Background(), func(ctx context.Context, r Repos) error {
			_, err := r.Products.AdjustStock(ctx, 1, 7, -3)
			return err
		})
		assert.ErrorIs(t, err, ErrStockUnderflow)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStoreRollsBackFailedUnitOfWork(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.RunInTx(context.Background(), func(ctx context.Context, r Repos) error {
		require.NoError(t, r.Sales.LockSaleNumbers(ctx, 1, "20240501"))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	// An unexpected Commit would leave the Rollback expectation unmet.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreClassifiesDriverErrors(t *testing.T) {
	t.Run("duplicate sale number", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sales")).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "sales_gym_number_active_key"})
		mock.ExpectRollback()

		err := store.RunInTx(context.Background(), func(ctx context.Context, r Repos) error {
			return r.Sales.Create(ctx, &models.Sale{
				GymID: 1, SaleNumber: "202405010001", Total: decimal.RequireFromString("5.00"),
				PaymentStatus: models.PaymentUnpaid, CreatedBy: 42, CreatedAt: time.Now(),
			})
		})
		assert.ErrorIs(t, err, ErrDuplicateKey)
		assert.Contains(t, err.Error(), "sales_gym_number_active_key")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("serialization failure on commit", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40001"})

		err := store.RunInTx(context.Background(), func(ctx context.Context, r Repos) error {
			return nil
		})
		assert.ErrorIs(t, err, ErrTxConflict)
		assert.True(t, IsRetryable(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

		called := false
		err := store.ReadOnly(context.Background(), func(ctx context.Context, r Repos) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, ErrDatabaseError)
		assert.False(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

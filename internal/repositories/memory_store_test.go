package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"gym_sales_backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTrackedProduct(s *MemoryStore, gymID int64, stock int) models.Product {
	return s.SeedProduct(models.Product{
		GymID: gymID, Name: "Bar", Price: decimal.RequireFromString("2.50"),
		Status: models.ProductActive, TrackingMode: models.TrackingTracked, Stock: &stock,
	})
}

func TestMemoryStoreRollsBackFailedUnitOfWork(t *testing.T) {
	store := NewMemoryStore()
	p := seedTrackedProduct(store, 1, 5)
	boom := errors.New("boom")

	err := store.RunInTx(context.Background(), func(ctx context.Context, r Repos) error {
		stock, err := r.Products.AdjustStock(ctx, 1, p.ID, -2)
		require.NoError(t, err)
		assert.Equal(t, 3, stock)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, ok := store.Product(p.ID)
	require.True(t, ok)
	assert.Equal(t, 5, *got.Stock)
}

func TestMemoryStoreAdjustStockGuardsUnderflow(t *testing.T) {
	store := NewMemoryStore()
	p := seedTrackedProduct(store, 1, 2)

	err := store.RunInTx(context.Background(), func(ctx context.Context, r Repos) error {
		_, err := r.Products.AdjustStock(ctx, 1, p.ID, -3)
		return err
	})
	assert.ErrorIs(t, err, ErrStockUnderflow)

	err = store.RunInTx(context.Background(), func(ctx context.Context, r Repos) error {
		_, err := r.Products.AdjustStock(ctx, 2, p.ID, -1)
		return err
	})
	assert.ErrorIs(t, err, ErrStockUnderflow, "other gym's product must not move")
}

func TestMemoryStoreLockedProductsAreCopies(t *testing.T) {
	store := NewMemoryStore()
	p := seedTrackedProduct(store, 1, 5)

	err := store.RunInTx(context.Background(), func(ctx context.Context, r Repos) error {
		locked, err := r.Products.LockForSale(ctx, 1, []int64{p.ID})
		require.NoError(t, err)
		*locked[p.ID].Stock = 99
		return nil
	})
	require.NoError(t, err)

	got, _ := store.Product(p.ID)
	assert.Equal(t, 5, *got.Stock)
}

func TestMemoryStoreSaleNumberUniqueAmongActiveSales(t *testing.T) {
	store := NewMemoryStore()
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	err := store.RunInTx(context.Background(), func(ctx context.Context, r Repos) error {
		first := &models.Sale{GymID: 1, SaleNumber: "202405010001", CreatedAt: at}
		require.NoError(t, r.Sales.Create(ctx, first))

		assert.ErrorIs(t, r.Sales.Create(ctx, &models.Sale{GymID: 1, SaleNumber: "202405010001", CreatedAt: at}), ErrDuplicateKey)
		assert.NoError(t, r.Sales.Create(ctx, &models.Sale{GymID: 2, SaleNumber: "202405010001", CreatedAt: at}))

		require.NoError(t, r.Sales.MarkDeleted(ctx, 1, first.ID, at, 9))
		assert.ErrorIs(t, r.Sales.MarkDeleted(ctx, 1, first.ID, at, 9), ErrNotFound)
		assert.NoError(t, r.Sales.Create(ctx, &models.Sale{GymID: 1, SaleNumber: "202405010001", CreatedAt: at}))
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStoreFindByIDsIncludesCategory(t *testing.T) {
	store := NewMemoryStore()
	cat := store.SeedCategory(models.ProductCategory{GymID: 1, Name: "Drinks"})
	p := store.SeedProduct(models.Product{
		GymID: 1, CategoryID: &cat.ID, Name: "Water", Price: decimal.RequireFromString("1.00"),
		Status: models.ProductActive, TrackingMode: models.TrackingNone,
	})

	err := store.ReadOnly(context.Background(), func(ctx context.Context, r Repos) error {
		found, err := r.Products.FindByIDs(ctx, 1, []int64{p.ID, 12345})
		require.NoError(t, err)
		require.Len(t, found, 1)
		require.NotNil(t, found[p.ID].Category)
		assert.Equal(t, "Drinks", found[p.ID].Category.Name)
		return nil
	})
	require.NoError(t, err)
}

func TestPaginate(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, paginate(all, 2, 2))
	assert.Equal(t, []int{5}, paginate(all, 4, 2))
	assert.Equal(t, []int{}, paginate(all, 10, 2))
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gym_sales_backend/internal/models"

	"github.com/lib/pq"
)

// ProductRepository is the catalog lookup and stock writer used by the sale engine.
type ProductRepository interface {
	// LockForSale loads the gym's live (not soft-deleted) products among ids and
	// holds their row locks until the transaction ends.
	LockForSale(ctx context.Context, gymID int64, ids []int64) (map[int64]*models.Product, error)
	// LockForRestore is LockForSale that also returns soft-deleted products.
	LockForRestore(ctx context.Context, gymID int64, ids []int64) (map[int64]*models.Product, error)
	// FindByIDs loads products with their category for display. No locks are taken.
	FindByIDs(ctx context.Context, gymID int64, ids []int64) (map[int64]*models.Product, error)
	// AdjustStock adds delta to a tracked product's stock and returns the new level.
	AdjustStock(ctx context.Context, gymID, productID int64, delta int) (int, error)
}

type productRepository struct {
	exec SQLExecutor
}

const productColumns = `p.id, p.gym_id, p.category_id, p.name, p.price, p.status, p.tracking_mode,
	p.stock, p.created_at, p.updated_at, p.deleted_at`

func (r *productRepository) LockForSale(ctx context.Context, gymID int64, ids []int64) (map[int64]*models.Product, error) {
	query := `SELECT ` + productColumns + `
	          FROM products p
	          WHERE p.gym_id = $1 AND p.id = ANY($2) AND p.deleted_at IS NULL
	          ORDER BY p.id
	          FOR UPDATE`
	return r.queryProducts(ctx, "locking products for sale", query, false, gymID, pq.Array(ids))
}

func (r *productRepository) LockForRestore(ctx context.Context, gymID int64, ids []int64) (map[int64]*models.Product, error) {
	query := `SELECT ` + productColumns + `
	          FROM products p
	          WHERE p.gym_id = $1 AND p.id = ANY($2)
	          ORDER BY p.id
	          FOR UPDATE`
	return r.queryProducts(ctx, "locking products for restore", query, false, gymID, pq.Array(ids))
}

func (r *productRepository) FindByIDs(ctx context.Context, gymID int64, ids []int64) (map[int64]*models.Product, error) {
	query := `SELECT ` + productColumns + `,
	            pc.id, pc.name
	          FROM products p
	          LEFT JOIN product_categories pc ON p.category_id = pc.id
	          WHERE p.gym_id = $1 AND p.id = ANY($2)`
	return r.queryProducts(ctx, "getting products", query, true, gymID, pq.Array(ids))
}

func (r *productRepository) queryProducts(ctx context.Context, op, query string, withCategory bool, args ...interface{}) (map[int64]*models.Product, error) {
	products := make(map[int64]*models.Product)
	rows, err := r.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyError(err, op)
	}
	defer rows.Close()

	for rows.Next() {
		var p *models.Product
		if withCategory {
			p, err = scanProductWithCategory(rows)
		} else {
			p, err = scanProduct(rows)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products[p.ID] = p
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating products: %v", ErrDatabaseError, err)
	}
	return products, nil
}

func (r *productRepository) AdjustStock(ctx context.Context, gymID, productID int64, delta int) (int, error) {
	query := `UPDATE products
	          SET stock = stock + $1, updated_at = $2
	          WHERE id = $3 AND gym_id = $4
	            AND tracking_mode <> 'none' AND stock IS NOT NULL
	            AND stock + $1 >= 0
	          RETURNING stock`
	var newStock int
	err := r.exec.QueryRowContext(ctx, query, delta, time.Now(), productID, gymID).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The row is locked by the caller, so the only way to miss it is the non-negative guard.
			return 0, fmt.Errorf("%w: product %d, change %d", ErrStockUnderflow, productID, delta)
		}
		return 0, classifyError(err, fmt.Sprintf("updating stock for product %d", productID))
	}
	return newStock, nil
}

func productFields(p *models.Product, categoryID, stock *sql.NullInt64, deletedAt *sql.NullTime) []interface{} {
	return []interface{}{
		&p.ID, &p.GymID, categoryID, &p.Name, &p.Price, &p.Status, &p.TrackingMode,
		stock, &p.CreatedAt, &p.UpdatedAt, deletedAt,
	}
}

func fillProductNullables(p *models.Product, categoryID, stock sql.NullInt64, deletedAt sql.NullTime) {
	if categoryID.Valid {
		id := categoryID.Int64
		p.CategoryID = &id
	}
	if stock.Valid {
		val := int(stock.Int64)
		p.Stock = &val
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		p.DeletedAt = &t
	}
}

func scanProduct(s scanner) (*models.Product, error) {
	p := &models.Product{}
	var categoryID, stock sql.NullInt64
	var deletedAt sql.NullTime
	if err := s.Scan(productFields(p, &categoryID, &stock, &deletedAt)...); err != nil {
		return nil, err
	}
	fillProductNullables(p, categoryID, stock, deletedAt)
	return p, nil
}

func scanProductWithCategory(s scanner) (*models.Product, error) {
	p := &models.Product{}
	var categoryID, stock, catID sql.NullInt64
	var deletedAt sql.NullTime
	var catName sql.NullString
	dest := append(productFields(p, &categoryID, &stock, &deletedAt), &catID, &catName)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	fillProductNullables(p, categoryID, stock, deletedAt)
	if catID.Valid {
		p.Category = &models.ProductCategory{ID: catID.Int64, GymID: p.GymID, Name: catName.String}
	}
	return p, nil
}

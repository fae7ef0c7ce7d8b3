package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gym_sales_backend/internal/models"
)

// InventoryMovementRepository defines the interface for inventory movement-related database operations.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *models.InventoryMovement) error
	List(ctx context.Context, gymID int64, filters models.MovementFilters) ([]models.InventoryMovement, int, error)
}

type inventoryMovementRepository struct {
	exec SQLExecutor
}

func (r *inventoryMovementRepository) Create(ctx context.Context, movement *models.InventoryMovement) error {
	query := `INSERT INTO inventory_movements
	          (gym_id, product_id, sale_id, movement_type, quantity_changed, stock_before, stock_after, actor_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	err := r.exec.QueryRowContext(ctx, query,
		movement.GymID, movement.ProductID, movement.SaleID, movement.MovementType, movement.QuantityChanged,
		movement.StockBefore, movement.StockAfter, movement.ActorID, movement.CreatedAt,
	).Scan(&movement.ID)
	if err != nil {
		return classifyError(err, "creating inventory movement")
	}
	return nil
}

func (r *inventoryMovementRepository) List(ctx context.Context, gymID int64, filters models.MovementFilters) ([]models.InventoryMovement, int, error) {
	movements := []models.InventoryMovement{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    im.id, im.gym_id, im.product_id, im.sale_id, im.movement_type, im.quantity_changed,
	    im.stock_before, im.stock_after, im.actor_id, im.created_at,
	    COUNT(*) OVER() AS total_count
	  FROM inventory_movements im
	  WHERE im.gym_id = $1`)

	args := []interface{}{gymID}
	argCount := 2

	if filters.ProductID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND im.product_id = $%d", argCount))
		args = append(args, *filters.ProductID)
		argCount++
	}
	if filters.SaleID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND im.sale_id = $%d", argCount))
		args = append(args, *filters.SaleID)
		argCount++
	}

	queryBuilder.WriteString(" ORDER BY im.created_at DESC, im.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.exec.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, classifyError(err, "getting inventory movements")
	}
	defer rows.Close()

	for rows.Next() {
		var m models.InventoryMovement
		var saleID, actorID sql.NullInt64
		if err := rows.Scan(
			&m.ID, &m.GymID, &m.ProductID, &saleID, &m.MovementType, &m.QuantityChanged,
			&m.StockBefore, &m.StockAfter, &actorID, &m.CreatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning inventory movement: %v", ErrDatabaseError, err)
		}
		if saleID.Valid {
			id := saleID.Int64
			m.SaleID = &id
		}
		if actorID.Valid {
			id := actorID.Int64
			m.ActorID = &id
		}
		movements = append(movements, m)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating inventory movements: %v", ErrDatabaseError, err)
	}
	return movements, totalCount, nil
}

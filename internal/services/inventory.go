package services

import (
	"context"
	"time"

	"gym_sales_backend/internal/models"
	"gym_sales_backend/internal/repositories"
	"gym_sales_backend/pkg/utils"
)

// stockChange is one signed stock delta applied by a sale or its deletion.
type stockChange struct {
	product      *models.Product
	delta        int
	saleID       int64
	movementType string
	actorID      int64
	at           time.Time
}

// applyStockDelta moves a tracked product's stock and records the movement.
// Untracked products are left untouched. It reports whether anything changed.
// The product row must already be locked by the surrounding transaction; its
// Stock is updated in place to the new level.
func applyStockDelta(ctx context.Context, r repositories.Repos, c stockChange) (bool, error) {
	if !c.product.TracksInventory() || c.delta == 0 {
		return false, nil
	}

	before := *c.product.Stock
	after, err := r.Products.AdjustStock(ctx, c.product.GymID, c.product.ID, c.delta)
	if err != nil {
		return false, err
	}
	*c.product.Stock = after

	saleID := c.saleID
	actorID := c.actorID
	movement := &models.InventoryMovement{
		GymID:           c.product.GymID,
		ProductID:       c.product.ID,
		SaleID:          &saleID,
		MovementType:    c.movementType,
		QuantityChanged: c.delta,
		StockBefore:     before,
		StockAfter:      after,
		ActorID:         &actorID,
		CreatedAt:       c.at,
	}
	if err := r.Movements.Create(ctx, movement); err != nil {
		return false, err
	}
	utils.LogDebug("Stock adjusted", map[string]interface{}{
		"product_id": c.product.ID, "sale_id": c.saleID, "type": c.movementType,
		"before": before, "after": after,
	})
	return true, nil
}

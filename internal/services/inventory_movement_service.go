package services

import (
	"context"

	"gym_sales_backend/internal/models"
	"gym_sales_backend/internal/repositories"
)

// InventoryMovementService reads the stock audit ledger written by the sale engine.
type InventoryMovementService interface {
	ListMovements(ctx context.Context, gymID int64, filters models.MovementFilters) ([]models.InventoryMovement, int, error)
}

type inventoryMovementService struct {
	store repositories.TxRunner
}

// NewInventoryMovementService creates a new instance of InventoryMovementService.
func NewInventoryMovementService(store repositories.TxRunner) InventoryMovementService {
	return &inventoryMovementService{store: store}
}

func (s *inventoryMovementService) ListMovements(ctx context.Context, gymID int64, filters models.MovementFilters) ([]models.InventoryMovement, int, error) {
	filters.Page, filters.PageSize = normalizePage(filters.Page, filters.PageSize)

	var movements []models.InventoryMovement
	var total int
	err := s.store.ReadOnly(ctx, func(ctx context.Context, r repositories.Repos) error {
		var err error
		movements, total, err = r.Movements.List(ctx, gymID, filters)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

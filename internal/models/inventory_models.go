package models

import "time"

// Movement types written by the sale engine.
const (
	MovementTypeSale         = "sale"
	MovementTypeSaleDeletion = "sale_deletion"
)

// InventoryMovement records one change of a tracked product's stock.
type InventoryMovement struct {
	ID              int64     `json:"id"`
	GymID           int64     `json:"gym_id"`
	ProductID       int64     `json:"product_id"`
	SaleID          *int64    `json:"sale_id,omitempty"`
	MovementType    string    `json:"movement_type"`
	QuantityChanged int       `json:"quantity_changed"` // negative when stock leaves
	StockBefore     int       `json:"stock_before"`
	StockAfter      int       `json:"stock_after"`
	ActorID         *int64    `json:"actor_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// MovementFilters narrows the inventory movement listing.
type MovementFilters struct {
	ProductID *int64 `form:"product_id"`
	SaleID    *int64 `form:"sale_id"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrackingMode says whether a product's stock column is authoritative.
type TrackingMode string

const (
	TrackingNone    TrackingMode = "none" // services, memberships and other untracked items
	TrackingTracked TrackingMode = "tracked"
)

// ProductStatus is the catalog availability of a product.
type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
)

// ProductCategory groups products in a gym's catalog.
type ProductCategory struct {
	ID    int64  `json:"id"`
	GymID int64  `json:"gym_id"`
	Name  string `json:"name"`
}

// Product is a catalog entry owned by a gym. The sale engine references it but never owns it.
type Product struct {
	ID           int64            `json:"id"`
	GymID        int64            `json:"gym_id"`
	CategoryID   *int64           `json:"category_id,omitempty"`
	Name         string           `json:"name"`
	Price        decimal.Decimal  `json:"price"`
	Status       ProductStatus    `json:"status"`
	TrackingMode TrackingMode     `json:"tracking_mode"`
	Stock        *int             `json:"stock,omitempty"` // Nullable: stock may be unknown even when tracked
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	DeletedAt    *time.Time       `json:"-"`
	Category     *ProductCategory `json:"category,omitempty"`
}

// IsActive reports whether the product can be sold.
func (p *Product) IsActive() bool {
	return p.Status == ProductActive
}

// TracksInventory reports whether sales must move this product's stock.
func (p *Product) TracksInventory() bool {
	return p.TrackingMode != TrackingNone && p.Stock != nil
}

// PaymentMethod is a gym-scoped payment option (cash, card, transfer...).
type PaymentMethod struct {
	ID      int64  `json:"id"`
	GymID   int64  `json:"gym_id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

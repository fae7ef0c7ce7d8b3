package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus of a sale.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	return s == PaymentUnpaid || s == PaymentPaid
}

// SaleState is the lifecycle of a sale: Active or Deleted.
// Queries that must skip deleted sales ask for Active explicitly.
type SaleState interface {
	IsDeleted() bool
	isSaleState()
}

// Active is the state of a sale that has not been deleted.
type Active struct{}

func (Active) IsDeleted() bool { return false }
func (Active) isSaleState()    {}

func (Active) MarshalJSON() ([]byte, error) {
	return []byte(`{"status":"active"}`), nil
}

// Deleted records when and by whom a sale was soft-deleted.
type Deleted struct {
	At time.Time
	By int64
}

func (Deleted) IsDeleted() bool { return true }
func (Deleted) isSaleState()    {}

func (d Deleted) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status    string    `json:"status"`
		DeletedAt time.Time `json:"deleted_at"`
		DeletedBy int64     `json:"deleted_by"`
	}{"deleted", d.At, d.By})
}

// Sale is the header record of a sale. Total always equals the sum of its item totals.
type Sale struct {
	ID              int64           `json:"id"`
	GymID           int64           `json:"gym_id"`
	SaleNumber      string          `json:"sale_number"`
	Total           decimal.Decimal `json:"total"`
	ClientID        *int64          `json:"client_id,omitempty"`
	CustomerName    *string         `json:"customer_name,omitempty"`
	PaymentMethodID *int64          `json:"payment_method_id,omitempty"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	Notes           *string         `json:"notes,omitempty"`
	AttachmentIDs   []uuid.UUID     `json:"attachment_ids"`
	CreatedBy       int64           `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	State           SaleState       `json:"state"`

	Items         []SaleItem     `json:"items,omitempty"`
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty"`
	Client        *Client        `json:"client,omitempty"`
}

// SaleItem is one product line of a sale. Items are written with their sale and never edited.
type SaleItem struct {
	ID        int64           `json:"id"`
	SaleID    int64           `json:"sale_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
	Product   *Product        `json:"product,omitempty"`
}

// SaleFilters defines the available filters for listing active sales.
type SaleFilters struct {
	Date          *string        `form:"date"` // YYYY-MM-DD in the business timezone
	ClientID      *int64         `form:"client_id"`
	PaymentStatus *PaymentStatus `form:"payment_status"`
	Page          int            `form:"page"`
	PageSize      int            `form:"page_size"`
}

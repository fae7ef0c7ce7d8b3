package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gym_sales_backend/internal/models"
	"gym_sales_backend/internal/repositories"
	"gym_sales_backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrSaleNotFound          = errors.New("sale not found")
	ErrPaymentMethodNotFound = errors.New("payment method not found or disabled")
	ErrClientNotFound        = errors.New("client not found")
	ErrInvalidPaymentStatus  = errors.New("invalid payment status")
	ErrInvalidSaleFilter     = errors.New("invalid sale filter")
	// ErrSaleNumberConflict is returned when every attempt to reserve a sale number collided.
	ErrSaleNumberConflict = errors.New("could not reserve a unique sale number")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// --- DTOs ---

// SaleItemRequest is one line of a new sale.
type SaleItemRequest struct {
	ProductID int64           `json:"product_id" binding:"required,gt=0"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateSaleRequest is used for creating a new sale.
type CreateSaleRequest struct {
	Items           []SaleItemRequest     `json:"items" binding:"required,min=1,dive"`
	ClientID        *int64                `json:"client_id"`
	CustomerName    *string               `json:"customer_name"`
	PaymentMethodID *int64                `json:"payment_method_id"`
	Notes           *string               `json:"notes"`
	AttachmentIDs   []uuid.UUID           `json:"attachment_ids"`
	PaymentStatus   *models.PaymentStatus `json:"payment_status"`
}

// UpdateSaleRequest changes the descriptive fields of a sale. Nil fields are left as they are.
type UpdateSaleRequest struct {
	ClientID      *int64                `json:"client_id"`
	CustomerName  *string               `json:"customer_name"`
	PaymentStatus *models.PaymentStatus `json:"payment_status"`
	Notes         *string               `json:"notes"`
}

// --- SaleService Interface ---
type SaleService interface {
	CreateSale(ctx context.Context, gymID, actorID int64, req CreateSaleRequest) (*models.Sale, error)
	DeleteSale(ctx context.Context, gymID, actorID, saleID int64) (*models.Sale, error)
	GetSale(ctx context.Context, gymID, saleID int64) (*models.Sale, error)
	ListSales(ctx context.Context, gymID int64, filters models.SaleFilters) ([]models.Sale, int, error)
	UpdateSale(ctx context.Context, gymID, saleID int64, req UpdateSaleRequest) (*models.Sale, error)
}

type saleService struct {
	store       repositories.TxRunner
	loc         *time.Location
	maxAttempts int
	now         func() time.Time
}

// NewSaleService creates the sale coordinator. Sale numbers follow the calendar
// day in loc; maxAttempts bounds how often a create is rerun after a number collision.
func NewSaleService(store repositories.TxRunner, loc *time.Location, maxAttempts int) SaleService {
	return newSaleService(store, loc, maxAttempts)
}

func newSaleService(store repositories.TxRunner, loc *time.Location, maxAttempts int) *saleService {
	if loc == nil {
		loc = time.UTC
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &saleService{store: store, loc: loc, maxAttempts: maxAttempts, now: time.Now}
}

// --- Method Implementations ---

func (s *saleService) CreateSale(ctx context.Context, gymID, actorID int64, req CreateSaleRequest) (*models.Sale, error) {
	if req.PaymentStatus != nil && !req.PaymentStatus.Valid() {
		return nil, ErrInvalidPaymentStatus
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		sale, err := s.createOnce(ctx, gymID, actorID, req)
		if err == nil {
			utils.LogInfo("Sale created", map[string]interface{}{
				"gym_id": gymID, "sale_id": sale.ID, "sale_number": sale.SaleNumber,
				"total": sale.Total.StringFixed(2), "items": len(sale.Items), "attempt": attempt,
			})
			return sale, nil
		}
		if !repositories.IsRetryable(err) {
			return nil, err
		}
		lastErr = err
		utils.LogWarn("Sale number conflict, retrying", map[string]interface{}{
			"gym_id": gymID, "attempt": attempt, "error": err.Error(),
		})
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrSaleNumberConflict, s.maxAttempts, lastErr)
}

func (s *saleService) createOnce(ctx context.Context, gymID, actorID int64, req CreateSaleRequest) (*models.Sale, error) {
	now := s.now()
	var created *models.Sale

	err := s.store.RunInTx(ctx, func(ctx context.Context, r repositories.Repos) error {
		if req.PaymentMethodID != nil {
			if _, err := r.PaymentMethods.FindEnabled(ctx, gymID, *req.PaymentMethodID); err != nil {
				return notFoundAs(err, ErrPaymentMethodNotFound)
			}
		}

		customerName := utils.TrimmedPtr(req.CustomerName)
		if req.ClientID != nil {
			client, err := r.Clients.FindByID(ctx, gymID, *req.ClientID)
			if err != nil {
				return notFoundAs(err, ErrClientNotFound)
			}
			if customerName == nil {
				name := client.FullName
				customerName = &name
			}
		}

		products, err := r.Products.LockForSale(ctx, gymID, requestedProductIDs(req.Items))
		if err != nil {
			return err
		}
		items, err := ValidateSaleItems(req.Items, products)
		if err != nil {
			return err
		}

		number, err := generateSaleNumber(ctx, r.Sales, gymID, SaleNumberPrefix(now, s.loc))
		if err != nil {
			return err
		}

		paymentStatus := models.PaymentUnpaid
		if req.PaymentStatus != nil {
			paymentStatus = *req.PaymentStatus
		}
		attachments := req.AttachmentIDs
		if attachments == nil {
			attachments = []uuid.UUID{}
		}

		header := &models.Sale{
			GymID:           gymID,
			SaleNumber:      number,
			Total:           saleTotal(items),
			ClientID:        req.ClientID,
			CustomerName:    customerName,
			PaymentMethodID: req.PaymentMethodID,
			PaymentStatus:   paymentStatus,
			Notes:           utils.TrimmedPtr(req.Notes),
			AttachmentIDs:   attachments,
			CreatedBy:       actorID,
			CreatedAt:       now,
		}
		if err := r.Sales.Create(ctx, header); err != nil {
			return err
		}

		for _, item := range items {
			line := &models.SaleItem{
				SaleID:    header.ID,
				ProductID: item.Product.ID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Total:     item.Total,
			}
			if err := r.Sales.CreateItem(ctx, line); err != nil {
				return err
			}
			if _, err := applyStockDelta(ctx, r, stockChange{
				product: item.Product, delta: -item.Quantity, saleID: header.ID,
				movementType: models.MovementTypeSale, actorID: actorID, at: now,
			}); err != nil {
				return err
			}
		}

		created, err = loadSale(ctx, r, gymID, header.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *saleService) DeleteSale(ctx context.Context, gymID, actorID, saleID int64) (*models.Sale, error) {
	now := s.now()
	var deleted *models.Sale
	restored := 0

	err := s.store.RunInTx(ctx, func(ctx context.Context, r repositories.Repos) error {
		sale, err := r.Sales.LockActive(ctx, gymID, saleID)
		if err != nil {
			return notFoundAs(err, ErrSaleNotFound)
		}
		items, err := r.Sales.ListItems(ctx, sale.ID)
		if err != nil {
			return err
		}

		productIDs := make([]int64, 0, len(items))
		for _, item := range items {
			productIDs = append(productIDs, item.ProductID)
		}
		products, err := r.Products.LockForRestore(ctx, gymID, uniqueSorted(productIDs))
		if err != nil {
			return err
		}

		for i := range items {
			product, ok := products[items[i].ProductID]
			if !ok {
				continue
			}
			changed, err := applyStockDelta(ctx, r, stockChange{
				product: product, delta: items[i].Quantity, saleID: sale.ID,
				movementType: models.MovementTypeSaleDeletion, actorID: actorID, at: now,
			})
			if err != nil {
				return err
			}
			if changed {
				restored++
			}
			items[i].Product = product
		}

		if err := r.Sales.MarkDeleted(ctx, gymID, sale.ID, now, actorID); err != nil {
			return notFoundAs(err, ErrSaleNotFound)
		}
		sale.State = models.Deleted{At: now, By: actorID}
		sale.UpdatedAt = now
		sale.Items = items
		if err := resolveAssociations(ctx, r, gymID, sale); err != nil {
			return err
		}
		deleted = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Sale deleted", map[string]interface{}{
		"gym_id": gymID, "sale_id": saleID, "sale_number": deleted.SaleNumber, "restored_items": restored,
	})
	return deleted, nil
}

func (s *saleService) GetSale(ctx context.Context, gymID, saleID int64) (*models.Sale, error) {
	var sale *models.Sale
	err := s.store.ReadOnly(ctx, func(ctx context.Context, r repositories.Repos) error {
		var err error
		sale, err = loadSale(ctx, r, gymID, saleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *saleService) ListSales(ctx context.Context, gymID int64, filters models.SaleFilters) ([]models.Sale, int, error) {
	page, pageSize := normalizePage(filters.Page, filters.PageSize)
	q := repositories.SaleQuery{
		ClientID: filters.ClientID,
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	}
	if filters.Date != nil && *filters.Date != "" {
		day, err := time.ParseInLocation("2006-01-02", *filters.Date, s.loc)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidSaleFilter)
		}
		q.NumberPrefix = SaleNumberPrefix(day, s.loc)
	}
	if filters.PaymentStatus != nil {
		if !filters.PaymentStatus.Valid() {
			return nil, 0, ErrInvalidPaymentStatus
		}
		q.PaymentStatus = filters.PaymentStatus
	}

	var sales []models.Sale
	var total int
	err := s.store.ReadOnly(ctx, func(ctx context.Context, r repositories.Repos) error {
		var err error
		sales, total, err = r.Sales.ListActive(ctx, gymID, q)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

func (s *saleService) UpdateSale(ctx context.Context, gymID, saleID int64, req UpdateSaleRequest) (*models.Sale, error) {
	if req.PaymentStatus != nil && !req.PaymentStatus.Valid() {
		return nil, ErrInvalidPaymentStatus
	}

	var updated *models.Sale
	err := s.store.RunInTx(ctx, func(ctx context.Context, r repositories.Repos) error {
		sale, err := r.Sales.FindActive(ctx, gymID, saleID)
		if err != nil {
			return notFoundAs(err, ErrSaleNotFound)
		}

		if req.ClientID != nil {
			client, err := r.Clients.FindByID(ctx, gymID, *req.ClientID)
			if err != nil {
				return notFoundAs(err, ErrClientNotFound)
			}
			sale.ClientID = &client.ID
			if req.CustomerName == nil {
				name := client.FullName
				sale.CustomerName = &name
			}
		}
		if req.CustomerName != nil {
			sale.CustomerName = utils.TrimmedPtr(req.CustomerName)
		}
		if req.PaymentStatus != nil {
			sale.PaymentStatus = *req.PaymentStatus
		}
		if req.Notes != nil {
			sale.Notes = utils.TrimmedPtr(req.Notes)
		}
		sale.UpdatedAt = s.now()

		if err := r.Sales.UpdateDetails(ctx, sale); err != nil {
			return notFoundAs(err, ErrSaleNotFound)
		}
		updated, err = loadSale(ctx, r, gymID, sale.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// loadSale reads an active sale with its items and display associations.
func loadSale(ctx context.Context, r repositories.Repos, gymID, saleID int64) (*models.Sale, error) {
	sale, err := r.Sales.FindActive(ctx, gymID, saleID)
	if err != nil {
		return nil, notFoundAs(err, ErrSaleNotFound)
	}
	items, err := r.Sales.ListItems(ctx, sale.ID)
	if err != nil {
		return nil, err
	}

	productIDs := make([]int64, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := r.Products.FindByIDs(ctx, gymID, uniqueSorted(productIDs))
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Product = products[items[i].ProductID]
	}
	sale.Items = items

	if err := resolveAssociations(ctx, r, gymID, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

// resolveAssociations attaches the sale's payment method and client. A
// reference that no longer resolves is left nil.
func resolveAssociations(ctx context.Context, r repositories.Repos, gymID int64, sale *models.Sale) error {
	if sale.PaymentMethodID != nil {
		pm, err := r.PaymentMethods.FindByID(ctx, gymID, *sale.PaymentMethodID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		sale.PaymentMethod = pm
	}
	if sale.ClientID != nil {
		client, err := r.Clients.FindByID(ctx, gymID, *sale.ClientID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		sale.Client = client
	}
	return nil
}

// notFoundAs replaces a repository ErrNotFound with the service error target.
func notFoundAs(err, target error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return target
	}
	return err
}

func requestedProductIDs(items []SaleItemRequest) []int64 {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return uniqueSorted(ids)
}

// uniqueSorted returns ids ascending without repeats. Locks are taken in this order.
func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

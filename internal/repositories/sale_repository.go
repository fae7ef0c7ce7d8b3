package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gym_sales_backend/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SaleQuery narrows ListActive. NumberPrefix matches the leading digits of the
// sale number, which encode the business day the sale was made on.
type SaleQuery struct {
	NumberPrefix  string
	ClientID      *int64
	PaymentStatus *models.PaymentStatus
	Limit         int
	Offset        int
}

// SaleRepository persists sale headers and their items.
type SaleRepository interface {
	// LockSaleNumbers serializes sale number generation for one gym and day
	// until the transaction ends.
	LockSaleNumbers(ctx context.Context, gymID int64, prefix string) error
	// LatestSaleNumber returns the greatest active sale number starting with
	// prefix, or "" when there is none.
	LatestSaleNumber(ctx context.Context, gymID int64, prefix string) (string, error)
	Create(ctx context.Context, sale *models.Sale) error
	CreateItem(ctx context.Context, item *models.SaleItem) error
	FindActive(ctx context.Context, gymID, saleID int64) (*models.Sale, error)
	// LockActive is FindActive holding the sale row lock until the transaction ends.
	LockActive(ctx context.Context, gymID, saleID int64) (*models.Sale, error)
	ListItems(ctx context.Context, saleID int64) ([]models.SaleItem, error)
	ListActive(ctx context.Context, gymID int64, q SaleQuery) ([]models.Sale, int, error)
	UpdateDetails(ctx context.Context, sale *models.Sale) error
	MarkDeleted(ctx context.Context, gymID, saleID int64, at time.Time, by int64) error
}

type saleRepository struct {
	exec SQLExecutor
}

const saleColumns = `s.id, s.gym_id, s.sale_number, s.total, s.client_id, s.customer_name,
	s.payment_method_id, s.payment_status, s.notes, s.attachment_ids, s.created_by,
	s.created_at, s.updated_at, s.deleted_at, s.deleted_by`

func (r *saleRepository) LockSaleNumbers(ctx context.Context, gymID int64, prefix string) error {
	query := `SELECT pg_advisory_xact_lock(hashtext('sale_number'), hashtext($1::text || ':' || $2::text))`
	if _, err := r.exec.ExecContext(ctx, query, gymID, prefix); err != nil {
		return classifyError(err, "locking sale numbers")
	}
	return nil
}

func (r *saleRepository) LatestSaleNumber(ctx context.Context, gymID int64, prefix string) (string, error) {
	query := `SELECT sale_number FROM sales
	          WHERE gym_id = $1 AND deleted_at IS NULL AND sale_number LIKE $2 || '%'
	          ORDER BY sale_number DESC
	          LIMIT 1`
	var number string
	err := r.exec.QueryRowContext(ctx, query, gymID, prefix).Scan(&number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", classifyError(err, "getting latest sale number")
	}
	return number, nil
}

func (r *saleRepository) Create(ctx context.Context, sale *models.Sale) error {
	query := `INSERT INTO sales
	          (gym_id, sale_number, total, client_id, customer_name, payment_method_id, payment_status,
	           notes, attachment_ids, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	          RETURNING id`
	err := r.exec.QueryRowContext(ctx, query,
		sale.GymID, sale.SaleNumber, sale.Total, sale.ClientID, sale.CustomerName, sale.PaymentMethodID,
		sale.PaymentStatus, sale.Notes, pq.Array(uuidStrings(sale.AttachmentIDs)), sale.CreatedBy, sale.CreatedAt,
	).Scan(&sale.ID)
	if err != nil {
		return classifyError(err, fmt.Sprintf("creating sale %s", sale.SaleNumber))
	}
	sale.UpdatedAt = sale.CreatedAt
	return nil
}

func (r *saleRepository) CreateItem(ctx context.Context, item *models.SaleItem) error {
	query := `INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, total)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	err := r.exec.QueryRowContext(ctx, query,
		item.SaleID, item.ProductID, item.Quantity, item.UnitPrice, item.Total,
	).Scan(&item.ID)
	if err != nil {
		return classifyError(err, "creating sale item")
	}
	return nil
}

func (r *saleRepository) FindActive(ctx context.Context, gymID, saleID int64) (*models.Sale, error) {
	return r.findActive(ctx, gymID, saleID, "")
}

func (r *saleRepository) LockActive(ctx context.Context, gymID, saleID int64) (*models.Sale, error) {
	return r.findActive(ctx, gymID, saleID, " FOR UPDATE")
}

func (r *saleRepository) findActive(ctx context.Context, gymID, saleID int64, suffix string) (*models.Sale, error) {
	query := `SELECT ` + saleColumns + `
	          FROM sales s
	          WHERE s.id = $1 AND s.gym_id = $2 AND s.deleted_at IS NULL` + suffix
	sale, err := scanSale(r.exec.QueryRowContext(ctx, query, saleID, gymID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting sale by ID %d: %v", ErrDatabaseError, saleID, err)
	}
	return sale, nil
}

func (r *saleRepository) ListItems(ctx context.Context, saleID int64) ([]models.SaleItem, error) {
	items := []models.SaleItem{}
	query := `SELECT id, sale_id, product_id, quantity, unit_price, total
	          FROM sale_items WHERE sale_id = $1 ORDER BY id`
	rows, err := r.exec.QueryContext(ctx, query, saleID)
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting items for sale %d", saleID))
	}
	defer rows.Close()

	for rows.Next() {
		var item models.SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.Total); err != nil {
			return nil, fmt.Errorf("%w: scanning sale item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sale items: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *saleRepository) ListActive(ctx context.Context, gymID int64, q SaleQuery) ([]models.Sale, int, error) {
	sales := []models.Sale{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + saleColumns + `, COUNT(*) OVER() AS total_count
	  FROM sales s
	  WHERE s.gym_id = $1 AND s.deleted_at IS NULL`)

	args := []interface{}{gymID}
	argCount := 2

	if q.NumberPrefix != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND s.sale_number LIKE $%d || '%%'", argCount))
		args = append(args, q.NumberPrefix)
		argCount++
	}
	if q.ClientID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND s.client_id = $%d", argCount))
		args = append(args, *q.ClientID)
		argCount++
	}
	if q.PaymentStatus != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND s.payment_status = $%d", argCount))
		args = append(args, *q.PaymentStatus)
		argCount++
	}

	queryBuilder.WriteString(" ORDER BY s.created_at DESC, s.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, q.Limit, q.Offset)

	rows, err := r.exec.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, classifyError(err, "getting sales")
	}
	defer rows.Close()

	for rows.Next() {
		sale, err := scanSale(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning sale: %v", ErrDatabaseError, err)
		}
		sales = append(sales, *sale)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating sales: %v", ErrDatabaseError, err)
	}
	return sales, totalCount, nil
}

func (r *saleRepository) UpdateDetails(ctx context.Context, sale *models.Sale) error {
	query := `UPDATE sales
	          SET client_id = $1, customer_name = $2, payment_status = $3, notes = $4, updated_at = $5
	          WHERE id = $6 AND gym_id = $7 AND deleted_at IS NULL`
	result, err := r.exec.ExecContext(ctx, query,
		sale.ClientID, sale.CustomerName, sale.PaymentStatus, sale.Notes, sale.UpdatedAt, sale.ID, sale.GymID)
	if err != nil {
		return classifyError(err, fmt.Sprintf("updating sale %d", sale.ID))
	}
	return expectOneRow(result, sale.ID)
}

func (r *saleRepository) MarkDeleted(ctx context.Context, gymID, saleID int64, at time.Time, by int64) error {
	query := `UPDATE sales
	          SET deleted_at = $1, deleted_by = $2, updated_at = $1
	          WHERE id = $3 AND gym_id = $4 AND deleted_at IS NULL`
	result, err := r.exec.ExecContext(ctx, query, at, by, saleID, gymID)
	if err != nil {
		return classifyError(err, fmt.Sprintf("deleting sale %d", saleID))
	}
	return expectOneRow(result, saleID)
}

func expectOneRow(result sql.Result, saleID int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking affected rows for sale %d: %v", ErrDatabaseError, saleID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// scanSale reads saleColumns followed by any extra destinations.
func scanSale(s scanner, extra ...interface{}) (*models.Sale, error) {
	sale := &models.Sale{}
	var clientID, paymentMethodID, deletedBy sql.NullInt64
	var customerName, notes sql.NullString
	var deletedAt sql.NullTime
	var attachments []string

	dest := []interface{}{
		&sale.ID, &sale.GymID, &sale.SaleNumber, &sale.Total, &clientID, &customerName,
		&paymentMethodID, &sale.PaymentStatus, &notes, pq.Array(&attachments), &sale.CreatedBy,
		&sale.CreatedAt, &sale.UpdatedAt, &deletedAt, &deletedBy,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	if clientID.Valid {
		id := clientID.Int64
		sale.ClientID = &id
	}
	if paymentMethodID.Valid {
		id := paymentMethodID.Int64
		sale.PaymentMethodID = &id
	}
	if customerName.Valid {
		sale.CustomerName = &customerName.String
	}
	if notes.Valid {
		sale.Notes = &notes.String
	}
	sale.AttachmentIDs = make([]uuid.UUID, 0, len(attachments))
	for _, raw := range attachments {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing attachment id %q: %w", raw, err)
		}
		sale.AttachmentIDs = append(sale.AttachmentIDs, id)
	}
	if deletedAt.Valid {
		sale.State = models.Deleted{At: deletedAt.Time, By: deletedBy.Int64}
	} else {
		sale.State = models.Active{}
	}
	return sale, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

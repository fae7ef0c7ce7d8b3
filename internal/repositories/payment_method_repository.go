package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gym_sales_backend/internal/models"
)

// PaymentMethodRepository resolves gym-scoped payment methods.
type PaymentMethodRepository interface {
	FindEnabled(ctx context.Context, gymID, id int64) (*models.PaymentMethod, error)
	FindByID(ctx context.Context, gymID, id int64) (*models.PaymentMethod, error)
}

type paymentMethodRepository struct {
	exec SQLExecutor
}

func (r *paymentMethodRepository) FindEnabled(ctx context.Context, gymID, id int64) (*models.PaymentMethod, error) {
	return r.find(ctx, `SELECT id, gym_id, name, enabled FROM payment_methods
	                    WHERE id = $1 AND gym_id = $2 AND enabled = TRUE`, gymID, id)
}

func (r *paymentMethodRepository) FindByID(ctx context.Context, gymID, id int64) (*models.PaymentMethod, error) {
	return r.find(ctx, `SELECT id, gym_id, name, enabled FROM payment_methods
	                    WHERE id = $1 AND gym_id = $2`, gymID, id)
}

func (r *paymentMethodRepository) find(ctx context.Context, query string, gymID, id int64) (*models.PaymentMethod, error) {
	pm := &models.PaymentMethod{}
	err := r.exec.QueryRowContext(ctx, query, id, gymID).Scan(&pm.ID, &pm.GymID, &pm.Name, &pm.Enabled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting payment method by ID %d: %v", ErrDatabaseError, id, err)
	}
	return pm, nil
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gym_sales_backend/internal/models"
)

// ClientRepository looks up registered clients of a gym.
type ClientRepository interface {
	// FindByID returns the gym's client unless it was soft-deleted.
	FindByID(ctx context.Context, gymID, clientID int64) (*models.Client, error)
}

type clientRepository struct {
	exec SQLExecutor
}

func (r *clientRepository) FindByID(ctx context.Context, gymID, clientID int64) (*models.Client, error) {
	client := &models.Client{}
	query := `SELECT id, gym_id, full_name, phone, created_at
	          FROM clients
	          WHERE id = $1 AND gym_id = $2 AND deleted_at IS NULL`
	err := r.exec.QueryRowContext(ctx, query, clientID, gymID).Scan(
		&client.ID, &client.GymID, &client.FullName, &client.Phone, &client.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting client by ID %d: %v", ErrDatabaseError, clientID, err)
	}
	return client, nil
}

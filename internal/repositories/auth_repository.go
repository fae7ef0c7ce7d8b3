package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gym_sales_backend/internal/models"
)

// UserRepository defines the read operations needed to authenticate staff.
type UserRepository interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, userID int64) (*models.User, error)
}

type userRepository struct {
	exec SQLExecutor
}

const userColumns = `id, gym_id, username, password_hash, full_name, role, is_active, created_at, updated_at`

// FindUserByUsername retrieves a user, including the password hash, by username.
func (r *userRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.exec.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by username: %v", ErrDatabaseError, err)
	}
	return user, nil
}

// FindUserByID retrieves a user by ID.
func (r *userRepository) FindUserByID(ctx context.Context, userID int64) (*models.User, error) {
	row := r.exec.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by ID %d: %v", ErrDatabaseError, userID, err)
	}
	return user, nil
}

func scanUser(s scanner) (*models.User, error) {
	user := &models.User{}
	err := s.Scan(&user.ID, &user.GymID, &user.Username, &user.PasswordHash, &user.FullName,
		&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

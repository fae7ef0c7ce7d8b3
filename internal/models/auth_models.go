package models

import "time"

// User is a staff account that operates within one gym.
type User struct {
	ID           int64     `json:"id"`
	GymID        int64     `json:"gym_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     *string   `json:"full_name,omitempty"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

package models

import "time"

// Client represents a registered gym client.
type Client struct {
	ID        int64      `json:"id"`
	GymID     int64      `json:"gym_id"`
	FullName  string     `json:"full_name"`
	Phone     *string    `json:"phone,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"-"`
}

package models

import "time"

// User is an authenticated principal. PasswordHash never leaves the service.
type User struct {
	ID           int64     `json:"id" example:"1"`
	Username     string    `json:"username" example:"alice"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

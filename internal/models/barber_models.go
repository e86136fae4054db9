package models

import "time"

// Barber is a staff member who renders services and may record redemptions.
type Barber struct {
	ID          int64     `json:"id" db:"id"`
	UserID      *int64    `json:"user_id,omitempty" db:"user_id"` // Link to users table for login
	FullName    string    `json:"full_name" db:"full_name"`
	PhoneNumber *string   `json:"phone_number,omitempty" db:"phone_number"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	HireDate    *string   `json:"hire_date,omitempty" db:"hire_date"` // YYYY-MM-DD
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Service is an entry of the barbershop's service menu (haircut, beard trim, ...).
type Service struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description *string         `json:"description,omitempty" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	DurationMin *int            `json:"duration_minutes,omitempty" db:"duration_minutes"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

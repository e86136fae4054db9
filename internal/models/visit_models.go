package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Visit is an immutable record of one service transaction.
type Visit struct {
	ID                  int64           `json:"id" db:"id"`
	ClientID            int64           `json:"client_id" db:"client_id"`
	BarberID            int64           `json:"barber_id" db:"barber_id"`
	Services            []VisitService  `json:"services"`
	TotalPrice          decimal.Decimal `json:"total_price" db:"total_price"`
	LoyaltyPointsEarned int             `json:"loyalty_points_earned" db:"loyalty_points_earned"`
	// ProgressAfter is the client's progress after this visit accrued, before any redemption reset.
	ProgressAfter  int               `json:"progress_after" db:"progress_after"`
	Date           time.Time         `json:"date" db:"visit_date"`
	RewardRedeemed *RedemptionRecord `json:"reward_redeemed,omitempty"`
	Notes          *string           `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
}

// VisitService is one (service, quantity) line of a visit.
type VisitService struct {
	ServiceID   int64           `json:"service_id" db:"service_id"`
	ServiceName string          `json:"service_name,omitempty" db:"service_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
}

// RedemptionRecord is the single reward consumed by a visit.
type RedemptionRecord struct {
	RewardID           int64      `json:"reward_id" db:"redeemed_reward_id"`
	RewardName         string     `json:"reward_name" db:"redeemed_reward_name"`
	RewardType         RewardType `json:"reward_type" db:"redeemed_reward_type"`
	DiscountPercentage *int       `json:"discount_percentage,omitempty" db:"redeemed_discount_percentage"`
	RedeemedAt         time.Time  `json:"redeemed_at" db:"redeemed_at"`
	RedeemedBy         int64      `json:"redeemed_by" db:"redeemed_by"`
}

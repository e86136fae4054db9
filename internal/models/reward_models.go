package models

import "time"

// RewardType distinguishes free services from percentage discounts.
type RewardType string

const (
	RewardTypeFree     RewardType = "free"
	RewardTypeDiscount RewardType = "discount"
)

// Reward is an admin-authored redeemable offer.
type Reward struct {
	ID                 int64      `json:"id" db:"id"`
	Name               string     `json:"name" db:"name"`
	Description        *string    `json:"description,omitempty" db:"description"`
	VisitsRequired     int        `json:"visits_required" db:"visits_required"`
	RewardType         RewardType `json:"reward_type" db:"reward_type"`
	DiscountPercentage *int       `json:"discount_percentage,omitempty" db:"discount_percentage"`
	ApplicableServices []int64    `json:"applicable_services" db:"applicable_services"`
	MaxRedemptions     *int       `json:"max_redemptions,omitempty" db:"max_redemptions"`
	ValidForDays       *int       `json:"valid_for_days,omitempty" db:"valid_for_days"`
	IsActive           bool       `json:"is_active" db:"is_active"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// AppliesTo reports whether the reward may be applied to the given service.
func (r *Reward) AppliesTo(serviceID int64) bool {
	for _, id := range r.ApplicableServices {
		if id == serviceID {
			return true
		}
	}
	return false
}

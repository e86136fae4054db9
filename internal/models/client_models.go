package models

import "time"

// LoyaltyStatus is the coarse engagement label shown on client badges.
type LoyaltyStatus string

const (
	LoyaltyStatusNew              LoyaltyStatus = "new"
	LoyaltyStatusActive           LoyaltyStatus = "active"
	LoyaltyStatusMilestoneReached LoyaltyStatus = "milestone_reached"
	LoyaltyStatusInactive         LoyaltyStatus = "inactive"
)

// Client represents a customer of the barbershop together with the loyalty aggregate.
// The counter fields are only mutated by visit recording and redemption.
type Client struct {
	ID            int64   `json:"id" db:"id"`
	FullName      string  `json:"full_name" db:"full_name" binding:"required"`
	PhoneNumber   *string `json:"phone_number,omitempty" db:"phone_number"`
	AccountActive bool    `json:"account_active" db:"account_active"`

	TotalLifetimeVisits   int    `json:"total_lifetime_visits" db:"total_lifetime_visits"`
	CurrentProgressVisits int    `json:"current_progress_visits" db:"current_progress_visits"`
	RewardsEarned         int    `json:"rewards_earned" db:"rewards_earned"`
	RewardsRedeemed       int    `json:"rewards_redeemed" db:"rewards_redeemed"`
	SelectedRewardID      *int64 `json:"selected_reward_id,omitempty" db:"selected_reward_id"`
	KeepGoalAfterRedeem   bool   `json:"keep_goal_after_redemption" db:"keep_goal_after_redemption"`

	// Milestone tracking for the selected goal. Cleared on redemption and on goal change.
	MilestoneRewardID  *int64     `json:"milestone_reward_id,omitempty" db:"milestone_reward_id"`
	MilestoneReachedAt *time.Time `json:"milestone_reached_at,omitempty" db:"milestone_reached_at"`
	CycleRewardEarned  bool       `json:"-" db:"cycle_reward_earned"`

	LastVisitAt   *time.Time    `json:"last_visit_at,omitempty" db:"last_visit_at"`
	LoyaltyStatus LoyaltyStatus `json:"loyalty_status" db:"loyalty_status"`
	Version       int64         `json:"-" db:"version"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// ClientFilters narrows client listings.
type ClientFilters struct {
	Page       int
	PageSize   int
	SearchTerm *string
	Status     *LoyaltyStatus
	ActiveOnly bool
}

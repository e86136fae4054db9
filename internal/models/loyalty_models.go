package models

// LoyaltyProgressView is derived on demand from Client + active rewards and is never persisted.
type LoyaltyProgressView struct {
	SelectedReward        *Reward       `json:"selected_reward"`
	EligibleRewards       []Reward      `json:"eligible_rewards"`
	VisitsToNextReward    int           `json:"visits_to_next_reward"`
	ProgressPercentage    int           `json:"progress_percentage"`
	CanRedeem             bool          `json:"can_redeem"`
	TotalVisits           int           `json:"total_visits"`
	CurrentProgressVisits int           `json:"current_progress_visits"`
	RewardsRedeemed       int           `json:"rewards_redeemed"`
	MilestoneReached      bool          `json:"milestone_reached"`
	LoyaltyStatus         LoyaltyStatus `json:"loyalty_status"`
}

package models

// LoyaltySummary aggregates committed client counters for the admin dashboard.
type LoyaltySummary struct {
	TotalClients         int                   `json:"total_clients"`
	ActiveAccounts       int                   `json:"active_accounts"`
	ClientsByStatus      map[LoyaltyStatus]int `json:"clients_by_status"`
	TotalLifetimeVisits  int64                 `json:"total_lifetime_visits"`
	TotalRewardsEarned   int64                 `json:"total_rewards_earned"`
	TotalRewardsRedeemed int64                 `json:"total_rewards_redeemed"`
}

// RewardPopularityItem is the number of committed redemptions of one reward.
type RewardPopularityItem struct {
	RewardID        int64  `json:"reward_id"`
	RewardName      string `json:"reward_name"`
	RedemptionCount int    `json:"redemption_count"`
	UniqueClients   int    `json:"unique_clients"`
}

// ReportRequestParams holds common parameters for requesting reports.
type ReportRequestParams struct {
	StartDate string `form:"start_date"` // YYYY-MM-DD
	EndDate   string `form:"end_date"`   // YYYY-MM-DD
	BarberID  *int64 `form:"barber_id"`
}

package loyalty

import (
	"math"

	"barbershop_backend/internal/models"
)

// RedemptionCounts maps a reward ID to the number of committed redemptions by one client.
type RedemptionCounts map[int64]int

// ComputeProgress derives the client's progress view. It has no side effects:
// calling it twice with the same inputs returns identical results.
//
// activeRewards is the catalog's full active set; inactive entries are ignored.
// LoyaltyStatus on the returned view is left for the caller to fill via DeriveStatus.
func ComputeProgress(client *models.Client, activeRewards []models.Reward, redeemed RedemptionCounts) models.LoyaltyProgressView {
	view := models.LoyaltyProgressView{
		EligibleRewards:       []models.Reward{},
		TotalVisits:           client.TotalLifetimeVisits,
		CurrentProgressVisits: client.CurrentProgressVisits,
		RewardsRedeemed:       client.RewardsRedeemed,
	}

	for _, reward := range activeRewards {
		if IsEligible(client, &reward, redeemed[reward.ID]) {
			view.EligibleRewards = append(view.EligibleRewards, reward)
		}
	}

	selected := findSelected(client, activeRewards)
	if selected == nil {
		return view
	}

	view.SelectedReward = selected
	view.VisitsToNextReward = VisitsToReward(client.CurrentProgressVisits, selected.VisitsRequired)
	view.ProgressPercentage = ProgressPercentage(client.CurrentProgressVisits, selected.VisitsRequired)
	view.CanRedeem = view.VisitsToNextReward == 0
	view.MilestoneReached = view.CanRedeem
	return view
}

// IsEligible reports whether the client may redeem reward given its prior redemptions of it.
func IsEligible(client *models.Client, reward *models.Reward, priorRedemptions int) bool {
	if !reward.IsActive {
		return false
	}
	if client.CurrentProgressVisits < reward.VisitsRequired {
		return false
	}
	if reward.MaxRedemptions != nil && priorRedemptions >= *reward.MaxRedemptions {
		return false
	}
	return true
}

// VisitsToReward is never negative.
func VisitsToReward(progress, required int) int {
	if remaining := required - progress; remaining > 0 {
		return remaining
	}
	return 0
}

// ProgressPercentage is clamped to [0, 100] regardless of overshoot.
func ProgressPercentage(progress, required int) int {
	if required <= 0 || progress <= 0 {
		return 0
	}
	pct := int(math.Round(float64(progress) / float64(required) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}

// CanRedeemSelected reports whether the client's selected goal is active and met.
func CanRedeemSelected(client *models.Client, selected *models.Reward) bool {
	if selected == nil || !selected.IsActive {
		return false
	}
	if client.SelectedRewardID == nil || *client.SelectedRewardID != selected.ID {
		return false
	}
	return client.CurrentProgressVisits >= selected.VisitsRequired
}

// findSelected never substitutes another reward when the selected one is gone.
func findSelected(client *models.Client, activeRewards []models.Reward) *models.Reward {
	if client.SelectedRewardID == nil {
		return nil
	}
	for i := range activeRewards {
		if activeRewards[i].ID == *client.SelectedRewardID && activeRewards[i].IsActive {
			r := activeRewards[i]
			return &r
		}
	}
	return nil
}

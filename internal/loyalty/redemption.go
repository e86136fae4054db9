package loyalty

import (
	"time"

	"barbershop_backend/internal/models"
)

// Accrue applies one visit to the client aggregate. Lifetime visits grow by one; progress grows
// by points and, while an active goal is selected, is capped at the goal's requirement (an
// existing overshoot from a lowered requirement is kept, never reduced).
//
// It stamps the milestone the first time progress meets the selected goal.
func Accrue(client *models.Client, points int, selected *models.Reward, now time.Time) {
	if points < 0 {
		points = 0
	}
	client.TotalLifetimeVisits++
	next := client.CurrentProgressVisits + points
	if selected != nil && selected.IsActive && next > selected.VisitsRequired {
		next = max(client.CurrentProgressVisits, selected.VisitsRequired)
	}
	client.CurrentProgressVisits = next
	visitAt := now
	client.LastVisitAt = &visitAt

	if selected != nil && selected.IsActive {
		markMilestone(client, selected, now)
	}
}

// SelectGoal points the client at a new reward. Progress is kept as is. Reselecting the current
// goal keeps its milestone stamp, so the validity window cannot be restarted.
func SelectGoal(client *models.Client, reward *models.Reward, now time.Time) {
	if client.SelectedRewardID != nil && *client.SelectedRewardID == reward.ID {
		markMilestone(client, reward, now)
		return
	}
	id := reward.ID
	client.SelectedRewardID = &id
	client.MilestoneRewardID = nil
	client.MilestoneReachedAt = nil
	markMilestone(client, reward, now)
}

// ClearGoal removes the selected reward and its milestone stamp.
func ClearGoal(client *models.Client) {
	client.SelectedRewardID = nil
	client.MilestoneRewardID = nil
	client.MilestoneReachedAt = nil
}

// markMilestone counts at most one earned reward per cycle.
func markMilestone(client *models.Client, reward *models.Reward, now time.Time) {
	if client.CurrentProgressVisits < reward.VisitsRequired {
		return
	}
	if client.MilestoneRewardID != nil && *client.MilestoneRewardID == reward.ID && client.MilestoneReachedAt != nil {
		return
	}
	id := reward.ID
	reachedAt := now
	client.MilestoneRewardID = &id
	client.MilestoneReachedAt = &reachedAt
	if !client.CycleRewardEarned {
		client.RewardsEarned++
		client.CycleRewardEarned = true
	}
}

// RedemptionHistory is what the ledger knows about a client's past use of one reward.
type RedemptionHistory struct {
	// PriorRedemptions is the number of committed visits that consumed this reward.
	PriorRedemptions int
	// MilestoneReachedAt is when the current cycle first met the requirement.
	// Nil means the milestone is being reached by the visit in flight.
	MilestoneReachedAt *time.Time
}

// ValidateRedemption enforces eligibility, the lifetime cap and the expiry window, in that order.
func ValidateRedemption(client *models.Client, reward *models.Reward, history RedemptionHistory, now time.Time) error {
	if !reward.IsActive {
		return IneligibleError(0, "reward %d is no longer active", reward.ID)
	}
	if client.CurrentProgressVisits < reward.VisitsRequired {
		remaining := reward.VisitsRequired - client.CurrentProgressVisits
		return IneligibleError(remaining, "client %d needs %d more visit(s) for %q", client.ID, remaining, reward.Name)
	}
	if reward.MaxRedemptions != nil && history.PriorRedemptions >= *reward.MaxRedemptions {
		return newError(ErrRedemptionLimitExceeded, "client %d already redeemed %q %d time(s), limit %d",
			client.ID, reward.Name, history.PriorRedemptions, *reward.MaxRedemptions)
	}
	if reward.ValidForDays != nil && history.MilestoneReachedAt != nil {
		deadline := history.MilestoneReachedAt.Add(time.Duration(*reward.ValidForDays) * 24 * time.Hour)
		if now.After(deadline) {
			return newError(ErrExpired, "milestone for %q reached on %s, window of %d day(s) has lapsed",
				reward.Name, history.MilestoneReachedAt.Format("2006-01-02"), *reward.ValidForDays)
		}
	}
	return nil
}

// Redeem validates and applies a redemption to the in-memory client aggregate and visit draft.
// Nothing is persisted here; the caller commits client and visit in one transaction.
func Redeem(client *models.Client, reward *models.Reward, visitDraft *models.Visit, redeemedBy int64, history RedemptionHistory, now time.Time) (*models.RedemptionRecord, error) {
	if visitDraft.RewardRedeemed != nil {
		return nil, ValidationError("visit already carries a redemption")
	}
	if !visitHasApplicableService(visitDraft, reward) {
		return nil, ValidationError("none of the visit's services is covered by %q", reward.Name)
	}
	if err := ValidateRedemption(client, reward, history, now); err != nil {
		return nil, err
	}

	record := &models.RedemptionRecord{
		RewardID:   reward.ID,
		RewardName: reward.Name,
		RewardType: reward.RewardType,
		RedeemedAt: now,
		RedeemedBy: redeemedBy,
	}
	if reward.RewardType == models.RewardTypeDiscount && reward.DiscountPercentage != nil {
		pct := *reward.DiscountPercentage
		record.DiscountPercentage = &pct
	}
	visitDraft.RewardRedeemed = record

	if !client.CycleRewardEarned {
		client.RewardsEarned++
	}
	client.RewardsRedeemed++
	// Redemption consumes the whole balance; excess visits are not carried over.
	client.CurrentProgressVisits = 0
	client.CycleRewardEarned = false
	client.MilestoneRewardID = nil
	client.MilestoneReachedAt = nil
	if !client.KeepGoalAfterRedeem {
		client.SelectedRewardID = nil
	}
	return record, nil
}

func visitHasApplicableService(visit *models.Visit, reward *models.Reward) bool {
	if len(reward.ApplicableServices) == 0 {
		return true
	}
	for _, line := range visit.Services {
		if reward.AppliesTo(line.ServiceID) {
			return true
		}
	}
	return false
}

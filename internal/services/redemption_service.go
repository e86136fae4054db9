package services

import (
	"context"
	"errors"
	"time"

	"barbershop_backend/internal/loyalty"
	"barbershop_backend/internal/metrics"
	"barbershop_backend/internal/models"
	"barbershop_backend/internal/repositories"
	"barbershop_backend/pkg/utils"
)

// RedemptionProcessor applies a reward to a visit draft inside the caller's visit transaction.
// It loads the reward and the ledger history, then delegates the rules to the loyalty engine.
type RedemptionProcessor interface {
	Redeem(ctx context.Context, exec repositories.SQLExecutor, client *models.Client, rewardID int64,
		visitDraft *models.Visit, redeemedByStaffID int64, now time.Time) (*models.RedemptionRecord, error)
}

type redemptionProcessor struct {
	rewardRepo repositories.RewardRepository
	visitRepo  repositories.VisitRepository
	barberRepo repositories.BarberRepository
}

// NewRedemptionProcessor creates a new instance of RedemptionProcessor.
func NewRedemptionProcessor(rewardRepo repositories.RewardRepository, visitRepo repositories.VisitRepository,
	barberRepo repositories.BarberRepository) RedemptionProcessor {
	return &redemptionProcessor{rewardRepo: rewardRepo, visitRepo: visitRepo, barberRepo: barberRepo}
}

func (p *redemptionProcessor) Redeem(ctx context.Context, exec repositories.SQLExecutor, client *models.Client, rewardID int64,
	visitDraft *models.Visit, redeemedByStaffID int64, now time.Time) (*models.RedemptionRecord, error) {
	reward, err := p.rewardRepo.GetRewardByID(ctx, exec, rewardID)
	if err != nil {
		return nil, notFoundOr(err, "reward %d not found", rewardID)
	}

	if redeemedByStaffID != visitDraft.BarberID {
		staff, err := p.barberRepo.GetBarberByID(ctx, exec, redeemedByStaffID)
		if err != nil {
			return nil, notFoundOr(err, "staff member %d not found", redeemedByStaffID)
		}
		if !staff.IsActive {
			return nil, loyalty.NotFoundError("staff member %d is not active", redeemedByStaffID)
		}
	}

	prior, err := p.visitRepo.CountRedemptions(ctx, exec, client.ID, reward.ID)
	if err != nil {
		return nil, err
	}
	history := loyalty.RedemptionHistory{PriorRedemptions: prior}
	if reward.ValidForDays != nil {
		history.MilestoneReachedAt, err = p.milestoneReachedAt(ctx, exec, client, reward)
		if err != nil {
			return nil, err
		}
	}

	record, err := loyalty.Redeem(client, reward, visitDraft, redeemedByStaffID, history, now)
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Reward redeemed", map[string]interface{}{
		"client_id": client.ID, "reward_id": reward.ID, "redeemed_by": redeemedByStaffID, "prior_redemptions": prior,
	})
	return record, nil
}

// milestoneReachedAt resolves when the current cycle first met the reward's requirement: the
// earlier of the client's own stamp for this reward and the first visit since the last redemption
// whose progress met it. Goal switches reset the stamp, the ledger does not. Nil means the visit
// being recorded is the one reaching it.
func (p *redemptionProcessor) milestoneReachedAt(ctx context.Context, exec repositories.SQLExecutor,
	client *models.Client, reward *models.Reward) (*time.Time, error) {
	var reached *time.Time
	if client.MilestoneRewardID != nil && *client.MilestoneRewardID == reward.ID && client.MilestoneReachedAt != nil {
		at := *client.MilestoneReachedAt
		reached = &at
	}

	var cycleStart time.Time
	last, err := p.visitRepo.LastRedemptionAt(ctx, exec, client.ID)
	if err != nil {
		return nil, err
	}
	if last != nil {
		cycleStart = *last
	}

	for visit, err := range p.visitRepo.VisitsSince(ctx, exec, client.ID, cycleStart) {
		if err != nil {
			return nil, err
		}
		if visit.ProgressAfter < reward.VisitsRequired {
			continue
		}
		if reached == nil || visit.Date.Before(*reached) {
			at := visit.Date
			reached = &at
		}
		break
	}
	return reached, nil
}

// redemptionOutcome labels a redemption result for metrics.
func redemptionOutcome(err error) string {
	switch {
	case err == nil:
		return "redeemed"
	case errors.Is(err, loyalty.ErrIneligible):
		return "ineligible"
	case errors.Is(err, loyalty.ErrRedemptionLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, loyalty.ErrExpired):
		return "expired"
	case errors.Is(err, loyalty.ErrConflict):
		return "conflict"
	case errors.Is(err, loyalty.ErrValidation), errors.Is(err, loyalty.ErrNotFound):
		return "invalid"
	default:
		return "error"
	}
}

func recordRedemptionOutcome(err error) {
	metrics.Redemptions.WithLabelValues(redemptionOutcome(err)).Inc()
}

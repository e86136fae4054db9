package services

import (
	"context"

	"barbershop_backend/internal/loyalty"
	"barbershop_backend/internal/models"
	"barbershop_backend/internal/repositories"
	"barbershop_backend/pkg/utils"
)

// LoyaltyService serves the client-facing progress view and goal selection.
type LoyaltyService interface {
	// GetProgress computes the progress view and the status from committed state. It writes nothing.
	GetProgress(ctx context.Context, clientID int64) (*models.LoyaltyProgressView, error)
	// SelectReward points the client at an active reward, keeping accumulated progress.
	SelectReward(ctx context.Context, clientID, rewardID int64) (*models.LoyaltyProgressView, error)
	ClearReward(ctx context.Context, clientID int64) (*models.LoyaltyProgressView, error)
}

type loyaltyService struct {
	clientRepo repositories.ClientRepository
	rewardRepo repositories.RewardRepository
	visitRepo  repositories.VisitRepository
	catalog    RewardService
	transactor Transactor
	policy     loyalty.StatusPolicy
	now        Clock
}

// NewLoyaltyService creates a new instance of LoyaltyService. now may be nil.
func NewLoyaltyService(clientRepo repositories.ClientRepository, rewardRepo repositories.RewardRepository,
	visitRepo repositories.VisitRepository, catalog RewardService, transactor Transactor,
	policy loyalty.StatusPolicy, now Clock) LoyaltyService {
	if now == nil {
		now = systemClock
	}
	return &loyaltyService{
		clientRepo: clientRepo,
		rewardRepo: rewardRepo,
		visitRepo:  visitRepo,
		catalog:    catalog,
		transactor: transactor,
		policy:     policy,
		now:        now,
	}
}

func (s *loyaltyService) GetProgress(ctx context.Context, clientID int64) (*models.LoyaltyProgressView, error) {
	client, err := s.clientRepo.GetClientByID(ctx, clientID)
	if err != nil {
		return nil, notFoundOr(err, "client %d not found", clientID)
	}
	rewards, err := s.catalog.ActiveRewardsApplicableTo(ctx, client.CurrentProgressVisits)
	if err != nil {
		return nil, err
	}
	counts, err := s.visitRepo.RedemptionCounts(ctx, nil, clientID)
	if err != nil {
		return nil, err
	}

	view := loyalty.ComputeProgress(client, rewards, counts)
	view.LoyaltyStatus = s.policy.Derive(client, view.CanRedeem, s.now())
	return &view, nil
}

func (s *loyaltyService) SelectReward(ctx context.Context, clientID, rewardID int64) (*models.LoyaltyProgressView, error) {
	err := s.updateGoal(ctx, clientID, func(exec repositories.SQLExecutor, client *models.Client) (*models.Reward, error) {
		reward, err := s.rewardRepo.GetRewardByID(ctx, exec, rewardID)
		if err != nil {
			return nil, notFoundOr(err, "reward %d not found", rewardID)
		}
		if !reward.IsActive {
			return nil, loyalty.ValidationError("reward %d is not active and cannot be selected", rewardID)
		}
		loyalty.SelectGoal(client, reward, s.now())
		return reward, nil
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Loyalty goal selected", map[string]interface{}{"client_id": clientID, "reward_id": rewardID})
	return s.GetProgress(ctx, clientID)
}

func (s *loyaltyService) ClearReward(ctx context.Context, clientID int64) (*models.LoyaltyProgressView, error) {
	err := s.updateGoal(ctx, clientID, func(exec repositories.SQLExecutor, client *models.Client) (*models.Reward, error) {
		loyalty.ClearGoal(client)
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProgress(ctx, clientID)
}

// updateGoal locks the client, applies change and writes the aggregate back with a refreshed status.
func (s *loyaltyService) updateGoal(ctx context.Context, clientID int64,
	change func(exec repositories.SQLExecutor, client *models.Client) (*models.Reward, error)) error {
	return s.transactor.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		client, err := s.clientRepo.GetClientForUpdate(ctx, exec, clientID)
		if err != nil {
			return notFoundOr(err, "client %d not found", clientID)
		}
		selected, err := change(exec, client)
		if err != nil {
			return err
		}
		canRedeem := selected != nil && loyalty.CanRedeemSelected(client, selected)
		client.LoyaltyStatus = s.policy.Derive(client, canRedeem, s.now())
		if err := s.clientRepo.UpdateLoyaltyState(ctx, exec, client); err != nil {
			return conflictOr(err, clientID)
		}
		return nil
	})
}

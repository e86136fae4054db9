package services

import (
	"context"
	"errors"
	"fmt"

	"barbershop_backend/internal/cache"
	"barbershop_backend/internal/loyalty"
	"barbershop_backend/internal/metrics"
	"barbershop_backend/internal/models"
	"barbershop_backend/internal/repositories"
	"barbershop_backend/pkg/utils"
)

// --- Reward DTOs ---
type RewardRequest struct {
	Name               string            `json:"name" binding:"required"`
	Description        *string           `json:"description"`
	VisitsRequired     int               `json:"visits_required" binding:"required"`
	RewardType         models.RewardType `json:"reward_type" binding:"required"`
	DiscountPercentage *int              `json:"discount_percentage"`
	ApplicableServices []int64           `json:"applicable_services" binding:"required"`
	MaxRedemptions     *int              `json:"max_redemptions"`
	ValidForDays       *int              `json:"valid_for_days"`
	IsActive           *bool             `json:"is_active"`
}

// RewardService is the reward catalog: read-only lookups for the engine and admin CRUD.
type RewardService interface {
	// ActiveRewardsApplicableTo returns every active reward. Eligibility filtering by visit count
	// belongs to the progress calculation, so clientVisitCount does not narrow the result.
	ActiveRewardsApplicableTo(ctx context.Context, clientVisitCount int) ([]models.Reward, error)
	GetRewardByID(ctx context.Context, id int64) (*models.Reward, error)
	ListRewards(ctx context.Context, includeInactive bool) ([]models.Reward, error)
	CreateReward(ctx context.Context, req RewardRequest) (*models.Reward, error)
	UpdateReward(ctx context.Context, id int64, req RewardRequest) (*models.Reward, error)
	DeactivateReward(ctx context.Context, id int64) error
	// DeleteReward removes an unused reward. A reward any visit references is deactivated instead;
	// deleted reports which happened.
	DeleteReward(ctx context.Context, id int64) (deleted bool, err error)
}

// RewardCatalogCache caches the active catalog. *cache.RewardCache implements it over Redis.
type RewardCatalogCache interface {
	GetActiveRewards(ctx context.Context) ([]models.Reward, bool)
	ActiveRewardsGeneration(ctx context.Context) int64
	SetActiveRewards(ctx context.Context, rewards []models.Reward, generation int64)
	InvalidateActiveRewards(ctx context.Context)
}

type rewardService struct {
	rewardRepo  repositories.RewardRepository
	menuRepo    repositories.ServiceMenuRepository
	visitRepo   repositories.VisitRepository
	transactor  Transactor
	rewardCache RewardCatalogCache
}

// NewRewardService creates a new instance of RewardService. rewardCache may be nil.
func NewRewardService(rewardRepo repositories.RewardRepository, menuRepo repositories.ServiceMenuRepository,
	visitRepo repositories.VisitRepository, transactor Transactor, rewardCache RewardCatalogCache) RewardService {
	if rewardCache == nil {
		rewardCache = cache.NewRewardCache(nil, 0)
	}
	return &rewardService{
		rewardRepo:  rewardRepo,
		menuRepo:    menuRepo,
		visitRepo:   visitRepo,
		transactor:  transactor,
		rewardCache: rewardCache,
	}
}

func (s *rewardService) ActiveRewardsApplicableTo(ctx context.Context, clientVisitCount int) ([]models.Reward, error) {
	if rewards, ok := s.rewardCache.GetActiveRewards(ctx); ok {
		metrics.RewardCacheLookups.WithLabelValues("hit").Inc()
		return rewards, nil
	}
	metrics.RewardCacheLookups.WithLabelValues("miss").Inc()

	generation := s.rewardCache.ActiveRewardsGeneration(ctx)
	rewards, err := s.rewardRepo.GetRewards(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("loading active rewards: %w", err)
	}
	s.rewardCache.SetActiveRewards(ctx, rewards, generation)
	utils.LogDebug("Active rewards loaded", map[string]interface{}{"count": len(rewards), "client_visits": clientVisitCount})
	return rewards, nil
}

func (s *rewardService) GetRewardByID(ctx context.Context, id int64) (*models.Reward, error) {
	reward, err := s.rewardRepo.GetRewardByID(ctx, nil, id)
	if err != nil {
		return nil, notFoundOr(err, "reward %d not found", id)
	}
	return reward, nil
}

func (s *rewardService) ListRewards(ctx context.Context, includeInactive bool) ([]models.Reward, error) {
	return s.rewardRepo.GetRewards(ctx, !includeInactive)
}

func (s *rewardService) buildReward(ctx context.Context, req RewardRequest) (*models.Reward, error) {
	reward := &models.Reward{
		Name:               req.Name,
		Description:        req.Description,
		VisitsRequired:     req.VisitsRequired,
		RewardType:         req.RewardType,
		DiscountPercentage: req.DiscountPercentage,
		ApplicableServices: req.ApplicableServices,
		MaxRedemptions:     req.MaxRedemptions,
		ValidForDays:       req.ValidForDays,
		IsActive:           true,
	}
	if req.IsActive != nil {
		reward.IsActive = *req.IsActive
	}
	if err := loyalty.ValidateRewardDefinition(reward); err != nil {
		return nil, err
	}

	found, err := s.menuRepo.GetServicesByIDs(ctx, nil, reward.ApplicableServices)
	if err != nil {
		return nil, fmt.Errorf("checking applicable services: %w", err)
	}
	for _, id := range reward.ApplicableServices {
		if _, ok := found[id]; !ok {
			return nil, loyalty.ValidationError("applicable service %d does not exist", id)
		}
	}
	return reward, nil
}

func (s *rewardService) CreateReward(ctx context.Context, req RewardRequest) (*models.Reward, error) {
	reward, err := s.buildReward(ctx, req)
	if err != nil {
		return nil, err
	}
	err = s.transactor.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		_, err := s.rewardRepo.CreateReward(ctx, exec, reward)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating reward: %w", err)
	}
	s.rewardCache.InvalidateActiveRewards(ctx)
	utils.LogInfo("Reward created", map[string]interface{}{"reward_id": reward.ID, "visits_required": reward.VisitsRequired})
	return reward, nil
}

func (s *rewardService) UpdateReward(ctx context.Context, id int64, req RewardRequest) (*models.Reward, error) {
	existing, err := s.rewardRepo.GetRewardByID(ctx, nil, id)
	if err != nil {
		return nil, notFoundOr(err, "reward %d not found", id)
	}
	reward, err := s.buildReward(ctx, req)
	if err != nil {
		return nil, err
	}
	reward.ID = existing.ID
	reward.CreatedAt = existing.CreatedAt
	if req.IsActive == nil {
		reward.IsActive = existing.IsActive
	}

	err = s.transactor.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		return s.rewardRepo.UpdateReward(ctx, exec, reward)
	})
	if err != nil {
		return nil, notFoundOr(err, "reward %d not found", id)
	}
	s.rewardCache.InvalidateActiveRewards(ctx)
	return reward, nil
}

func (s *rewardService) DeactivateReward(ctx context.Context, id int64) error {
	err := s.transactor.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		return s.rewardRepo.SetRewardActive(ctx, exec, id, false)
	})
	if err != nil {
		return notFoundOr(err, "reward %d not found", id)
	}
	s.rewardCache.InvalidateActiveRewards(ctx)
	utils.LogInfo("Reward deactivated", map[string]interface{}{"reward_id": id})
	return nil
}

func (s *rewardService) DeleteReward(ctx context.Context, id int64) (bool, error) {
	deleted := false
	err := s.transactor.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		referenced, err := s.visitRepo.RewardReferenced(ctx, exec, id)
		if err != nil {
			return err
		}
		if referenced {
			return s.rewardRepo.SetRewardActive(ctx, exec, id, false)
		}
		if err := s.rewardRepo.DeleteReward(ctx, exec, id); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	// Still selected as some client's goal; the aborted transaction is gone, deactivate in a fresh one.
	if errors.Is(err, repositories.ErrForeignKey) {
		return false, s.DeactivateReward(ctx, id)
	}
	if err != nil {
		return false, notFoundOr(err, "reward %d not found", id)
	}
	s.rewardCache.InvalidateActiveRewards(ctx)
	utils.LogInfo("Reward removed", map[string]interface{}{"reward_id": id, "deleted": deleted})
	return deleted, nil
}

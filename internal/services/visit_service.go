package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"barbershop_backend/internal/loyalty"
	"barbershop_backend/internal/metrics"
	"barbershop_backend/internal/models"
	"barbershop_backend/internal/repositories"
	"barbershop_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// --- Visit DTOs ---
type VisitServiceLine struct {
	ServiceID int64 `json:"service_id" binding:"required"`
	Quantity  int   `json:"quantity"` // Defaults to 1
}

type RedemptionRequest struct {
	RewardID int64 `json:"reward_id" binding:"required"`
	// RedeemedBy defaults to the visit's barber.
	RedeemedBy *int64 `json:"redeemed_by"`
}

type RecordVisitRequest struct {
	ClientID   int64              `json:"client_id" binding:"required"`
	BarberID   int64              `json:"barber_id" binding:"required"`
	Services   []VisitServiceLine `json:"services" binding:"required"`
	TotalPrice *decimal.Decimal   `json:"total_price"` // Computed from the menu when omitted
	Notes      *string            `json:"notes"`
	Redemption *RedemptionRequest `json:"redemption"`
}

// VisitLedgerConfig carries the accrual settings.
type VisitLedgerConfig struct {
	PointsPerVisit int
	StatusPolicy   loyalty.StatusPolicy
}

// VisitService is the visit ledger. RecordVisit is the only way progress grows.
type VisitService interface {
	// RecordVisit commits the visit, the client's accrual and the optional redemption atomically.
	// A lost concurrency race is retried once with fresh state before ConflictError surfaces.
	RecordVisit(ctx context.Context, req RecordVisitRequest) (*models.Visit, error)
	GetVisitByID(ctx context.Context, id int64) (*models.Visit, error)
	// VisitsSince streams the client's visits strictly after since, oldest first.
	VisitsSince(ctx context.Context, clientID int64, since time.Time) (iter.Seq2[models.Visit, error], error)
}

type visitService struct {
	clientRepo  repositories.ClientRepository
	barberRepo  repositories.BarberRepository
	menuRepo    repositories.ServiceMenuRepository
	rewardRepo  repositories.RewardRepository
	visitRepo   repositories.VisitRepository
	redemptions RedemptionProcessor
	transactor  Transactor
	cfg         VisitLedgerConfig
	now         Clock
}

// NewVisitService creates a new instance of VisitService. now may be nil.
func NewVisitService(clientRepo repositories.ClientRepository, barberRepo repositories.BarberRepository,
	menuRepo repositories.ServiceMenuRepository, rewardRepo repositories.RewardRepository,
	visitRepo repositories.VisitRepository, redemptions RedemptionProcessor, transactor Transactor,
	cfg VisitLedgerConfig, now Clock) VisitService {
	if cfg.PointsPerVisit < 1 {
		cfg.PointsPerVisit = 1
	}
	if now == nil {
		now = systemClock
	}
	return &visitService{
		clientRepo:  clientRepo,
		barberRepo:  barberRepo,
		menuRepo:    menuRepo,
		rewardRepo:  rewardRepo,
		visitRepo:   visitRepo,
		redemptions: redemptions,
		transactor:  transactor,
		cfg:         cfg,
		now:         now,
	}
}

func validateRecordVisit(req *RecordVisitRequest) error {
	if req.ClientID <= 0 {
		return loyalty.ValidationError("client_id is required")
	}
	if req.BarberID <= 0 {
		return loyalty.ValidationError("barber_id is required")
	}
	if len(req.Services) == 0 {
		return loyalty.ValidationError("a visit needs at least one service")
	}
	for i := range req.Services {
		if req.Services[i].ServiceID <= 0 {
			return loyalty.ValidationError("invalid service reference %d", req.Services[i].ServiceID)
		}
		if req.Services[i].Quantity == 0 {
			req.Services[i].Quantity = 1
		}
		if req.Services[i].Quantity < 0 {
			return loyalty.ValidationError("quantity for service %d must be positive", req.Services[i].ServiceID)
		}
	}
	if req.TotalPrice != nil && req.TotalPrice.IsNegative() {
		return loyalty.ValidationError("total price cannot be negative")
	}
	if req.Redemption != nil && req.Redemption.RewardID <= 0 {
		return loyalty.ValidationError("redemption needs a reward_id")
	}
	return nil
}

func (s *visitService) RecordVisit(ctx context.Context, req RecordVisitRequest) (*models.Visit, error) {
	if err := validateRecordVisit(&req); err != nil {
		return nil, err
	}

	visit, err := s.recordOnce(ctx, req)
	if loyalty.IsRetryable(err) {
		metrics.VisitConflictRetries.Inc()
		utils.LogWarn("Visit lost a concurrency race, retrying once", map[string]interface{}{"client_id": req.ClientID})
		visit, err = s.recordOnce(ctx, req)
	}
	if req.Redemption != nil {
		recordRedemptionOutcome(err)
	}
	if err != nil {
		return nil, err
	}

	metrics.VisitsRecorded.Inc()
	utils.LogInfo("Visit recorded", map[string]interface{}{
		"visit_id": visit.ID, "client_id": visit.ClientID, "barber_id": visit.BarberID,
		"progress_after": visit.ProgressAfter, "redeemed": visit.RewardRedeemed != nil,
	})
	return visit, nil
}

func (s *visitService) recordOnce(ctx context.Context, req RecordVisitRequest) (*models.Visit, error) {
	var visit *models.Visit
	err := s.transactor.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		now := s.now()

		client, err := s.clientRepo.GetClientForUpdate(ctx, exec, req.ClientID)
		if err != nil {
			return notFoundOr(err, "client %d not found", req.ClientID)
		}
		if !client.AccountActive {
			return loyalty.ValidationError("client %d account is deactivated", client.ID)
		}

		barber, err := s.barberRepo.GetBarberByID(ctx, exec, req.BarberID)
		if err != nil {
			return notFoundOr(err, "barber %d not found", req.BarberID)
		}
		if !barber.IsActive {
			return loyalty.NotFoundError("barber %d is not active", req.BarberID)
		}

		draft, err := s.buildDraft(ctx, exec, req, now)
		if err != nil {
			return err
		}

		selected, err := s.selectedReward(ctx, exec, client)
		if err != nil {
			return err
		}

		previousStatus := client.LoyaltyStatus
		loyalty.Accrue(client, s.cfg.PointsPerVisit, selected, now)
		draft.LoyaltyPointsEarned = s.cfg.PointsPerVisit
		draft.ProgressAfter = client.CurrentProgressVisits

		if req.Redemption != nil {
			redeemedBy := req.BarberID
			if req.Redemption.RedeemedBy != nil {
				redeemedBy = *req.Redemption.RedeemedBy
			}
			if _, err := s.redemptions.Redeem(ctx, exec, client, req.Redemption.RewardID, draft, redeemedBy, now); err != nil {
				return err
			}
		}

		canRedeem := selected != nil && loyalty.CanRedeemSelected(client, selected)
		client.LoyaltyStatus = s.cfg.StatusPolicy.Derive(client, canRedeem, now)
		if !loyalty.ValidTransition(previousStatus, client.LoyaltyStatus) {
			utils.LogWarn("Unexpected loyalty status transition", map[string]interface{}{
				"client_id": client.ID, "from": previousStatus, "to": client.LoyaltyStatus,
			})
		}

		if err := s.clientRepo.UpdateLoyaltyState(ctx, exec, client); err != nil {
			return conflictOr(err, client.ID)
		}
		if _, err := s.visitRepo.CreateVisit(ctx, exec, draft); err != nil {
			return fmt.Errorf("writing visit: %w", err)
		}
		visit = draft
		return nil
	})
	if err != nil {
		return nil, err
	}
	return visit, nil
}

// buildDraft resolves every service line against the menu and prices the visit.
func (s *visitService) buildDraft(ctx context.Context, exec repositories.SQLExecutor, req RecordVisitRequest, now time.Time) (*models.Visit, error) {
	ids := make([]int64, 0, len(req.Services))
	for _, line := range req.Services {
		ids = append(ids, line.ServiceID)
	}
	menu, err := s.menuRepo.GetServicesByIDs(ctx, exec, ids)
	if err != nil {
		return nil, err
	}

	draft := &models.Visit{
		ClientID:  req.ClientID,
		BarberID:  req.BarberID,
		Services:  make([]models.VisitService, 0, len(req.Services)),
		Date:      now,
		Notes:     req.Notes,
		CreatedAt: now,
	}
	total := decimal.Zero
	for _, line := range req.Services {
		service, ok := menu[line.ServiceID]
		if !ok {
			return nil, loyalty.ValidationError("unknown service %d", line.ServiceID)
		}
		if !service.IsActive {
			return nil, loyalty.ValidationError("service %d (%s) is not offered anymore", service.ID, service.Name)
		}
		draft.Services = append(draft.Services, models.VisitService{
			ServiceID:   service.ID,
			ServiceName: service.Name,
			Quantity:    line.Quantity,
			UnitPrice:   service.Price,
		})
		total = total.Add(service.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	draft.TotalPrice = total
	if req.TotalPrice != nil {
		draft.TotalPrice = *req.TotalPrice
	}
	return draft, nil
}

// selectedReward loads the client's goal. A goal that vanished is treated as no goal.
func (s *visitService) selectedReward(ctx context.Context, exec repositories.SQLExecutor, client *models.Client) (*models.Reward, error) {
	if client.SelectedRewardID == nil {
		return nil, nil
	}
	reward, err := s.rewardRepo.GetRewardByID(ctx, exec, *client.SelectedRewardID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return reward, nil
}

func (s *visitService) GetVisitByID(ctx context.Context, id int64) (*models.Visit, error) {
	visit, err := s.visitRepo.GetVisitByID(ctx, nil, id)
	if err != nil {
		return nil, notFoundOr(err, "visit %d not found", id)
	}
	return visit, nil
}

func (s *visitService) VisitsSince(ctx context.Context, clientID int64, since time.Time) (iter.Seq2[models.Visit, error], error) {
	if _, err := s.clientRepo.GetClientByID(ctx, clientID); err != nil {
		return nil, notFoundOr(err, "client %d not found", clientID)
	}
	return s.visitRepo.VisitsSince(ctx, nil, clientID, since), nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"barbershop_backend/internal/loyalty"
	"barbershop_backend/internal/models"
	"barbershop_backend/internal/repositories"
	"barbershop_backend/pkg/utils"
)

// --- Custom Service Errors ---
var (
	ErrClientNotFound    = errors.New("client not found")
	ErrPhoneNumberExists = errors.New("phone number already exists")
	ErrClientValidation  = errors.New("client validation failed")
)

// --- Client DTOs ---
type CreateClientRequest struct {
	FullName    string  `json:"full_name" binding:"required"`
	PhoneNumber *string `json:"phone_number"`
	// KeepGoalAfterRedemption defaults to the shop-wide setting.
	KeepGoalAfterRedemption *bool `json:"keep_goal_after_redemption"`
}

type UpdateClientRequest struct {
	FullName                *string `json:"full_name"`
	PhoneNumber             *string `json:"phone_number"`
	KeepGoalAfterRedemption *bool   `json:"keep_goal_after_redemption"`
}

type ListClientsRequest struct {
	Page       int     `form:"page"`
	PageSize   int     `form:"page_size"`
	Search     *string `form:"search"`
	Status     *string `form:"status"`
	ActiveOnly bool    `form:"active_only"`
}

// ClientService manages client profiles. Loyalty counters are read-only here.
type ClientService interface {
	CreateClient(ctx context.Context, req CreateClientRequest) (*models.Client, error)
	// GetClientByID returns the client with a freshly derived loyalty status.
	GetClientByID(ctx context.Context, clientID int64) (*models.Client, error)
	GetClients(ctx context.Context, req ListClientsRequest) ([]models.Client, int, error)
	UpdateClient(ctx context.Context, clientID int64, req UpdateClientRequest) (*models.Client, error)
	// SetClientActive soft-deactivates or reactivates an account. History and counters are kept.
	SetClientActive(ctx context.Context, clientID int64, active bool) (*models.Client, error)
}

type clientService struct {
	clientRepo      repositories.ClientRepository
	rewardRepo      repositories.RewardRepository
	transactor      Transactor
	policy          loyalty.StatusPolicy
	keepGoalDefault bool
	now             Clock
}

// NewClientService creates a new instance of ClientService. now may be nil.
func NewClientService(repo repositories.ClientRepository, rewardRepo repositories.RewardRepository, transactor Transactor,
	policy loyalty.StatusPolicy, keepGoalDefault bool, now Clock) ClientService {
	if now == nil {
		now = systemClock
	}
	return &clientService{
		clientRepo:      repo,
		rewardRepo:      rewardRepo,
		transactor:      transactor,
		policy:          policy,
		keepGoalDefault: keepGoalDefault,
		now:             now,
	}
}

var phoneRegex = regexp.MustCompile(`^\+?[0-9\s\-()]{7,20}$`)

func (s *clientService) validateClientData(ctx context.Context, fullName string, phoneNumber *string, clientID int64) error {
	if utils.IsEmpty(fullName) {
		return fmt.Errorf("%w: full name cannot be empty", ErrClientValidation)
	}
	if phoneNumber == nil {
		return nil
	}
	pn := strings.TrimSpace(*phoneNumber)
	if pn == "" {
		return nil
	}
	if !phoneRegex.MatchString(pn) {
		return fmt.Errorf("%w: phone number format is invalid", ErrClientValidation)
	}
	existing, err := s.clientRepo.GetClientByPhoneNumber(ctx, pn)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to check phone number uniqueness: %w", err)
	}
	if existing != nil && existing.ID != clientID {
		return ErrPhoneNumberExists
	}
	return nil
}

func normalizePhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	return utils.NewNullString(*phone)
}

// withDerivedStatus refreshes the stored status cache for display, using the same redeemability
// rule as the progress endpoint. selected is the client's goal or nil.
func (s *clientService) withDerivedStatus(client *models.Client, selected *models.Reward) *models.Client {
	canRedeem := loyalty.CanRedeemSelected(client, selected)
	client.LoyaltyStatus = s.policy.Derive(client, canRedeem, s.now())
	return client
}

// selectedReward loads the client's goal. A goal that no longer exists counts as none.
func (s *clientService) selectedReward(ctx context.Context, client *models.Client) (*models.Reward, error) {
	if client.SelectedRewardID == nil {
		return nil, nil
	}
	reward, err := s.rewardRepo.GetRewardByID(ctx, nil, *client.SelectedRewardID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get selected reward: %w", err)
	}
	return reward, nil
}

func (s *clientService) CreateClient(ctx context.Context, req CreateClientRequest) (*models.Client, error) {
	phone := normalizePhone(req.PhoneNumber)
	if err := s.validateClientData(ctx, req.FullName, phone, 0); err != nil {
		return nil, err
	}

	keepGoal := s.keepGoalDefault
	if req.KeepGoalAfterRedemption != nil {
		keepGoal = *req.KeepGoalAfterRedemption
	}
	client := &models.Client{
		FullName:            strings.TrimSpace(req.FullName),
		PhoneNumber:         phone,
		AccountActive:       true,
		KeepGoalAfterRedeem: keepGoal,
		LoyaltyStatus:       models.LoyaltyStatusNew,
	}

	var id int64
	err := s.transactor.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		id, err = s.clientRepo.CreateClient(ctx, exec, client)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrPhoneNumberExists
		}
		return nil, fmt.Errorf("failed to create client in repository: %w", err)
	}
	utils.LogInfo("Client created", map[string]interface{}{"client_id": id})
	return s.GetClientByID(ctx, id)
}

func (s *clientService) GetClientByID(ctx context.Context, clientID int64) (*models.Client, error) {
	client, err := s.clientRepo.GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client by ID: %w", err)
	}
	selected, err := s.selectedReward(ctx, client)
	if err != nil {
		return nil, err
	}
	return s.withDerivedStatus(client, selected), nil
}

func (s *clientService) GetClients(ctx context.Context, req ListClientsRequest) ([]models.Client, int, error) {
	filters := models.ClientFilters{
		Page:       req.Page,
		PageSize:   req.PageSize,
		SearchTerm: req.Search,
		ActiveOnly: req.ActiveOnly,
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	if req.Status != nil && *req.Status != "" {
		status := models.LoyaltyStatus(*req.Status)
		switch status {
		case models.LoyaltyStatusNew, models.LoyaltyStatusActive, models.LoyaltyStatusMilestoneReached, models.LoyaltyStatusInactive:
			filters.Status = &status
		default:
			return nil, 0, fmt.Errorf("%w: unknown loyalty status %q", ErrClientValidation, *req.Status)
		}
	}

	clients, totalCount, err := s.clientRepo.GetClients(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get clients: %w", err)
	}
	catalog, err := s.rewardRepo.GetRewards(ctx, false)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get rewards: %w", err)
	}
	byID := make(map[int64]*models.Reward, len(catalog))
	for i := range catalog {
		byID[catalog[i].ID] = &catalog[i]
	}
	for i := range clients {
		var selected *models.Reward
		if clients[i].SelectedRewardID != nil {
			selected = byID[*clients[i].SelectedRewardID]
		}
		s.withDerivedStatus(&clients[i], selected)
	}
	return clients, totalCount, nil
}

func (s *clientService) UpdateClient(ctx context.Context, clientID int64, req UpdateClientRequest) (*models.Client, error) {
	client, err := s.clientRepo.GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to find client for update: %w", err)
	}

	if req.FullName != nil {
		client.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.PhoneNumber != nil {
		client.PhoneNumber = normalizePhone(req.PhoneNumber)
	}
	if req.KeepGoalAfterRedemption != nil {
		client.KeepGoalAfterRedeem = *req.KeepGoalAfterRedemption
	}
	if err := s.validateClientData(ctx, client.FullName, client.PhoneNumber, clientID); err != nil {
		return nil, err
	}

	err = s.transactor.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		return s.clientRepo.UpdateProfile(ctx, exec, client)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrPhoneNumberExists
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to update client in repository: %w", err)
	}
	return s.GetClientByID(ctx, clientID)
}

func (s *clientService) SetClientActive(ctx context.Context, clientID int64, active bool) (*models.Client, error) {
	err := s.transactor.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		return s.clientRepo.SetAccountActive(ctx, exec, clientID, active)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to change client account state: %w", err)
	}
	utils.LogInfo("Client account state changed", map[string]interface{}{"client_id": clientID, "active": active})
	return s.GetClientByID(ctx, clientID)
}

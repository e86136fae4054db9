package loyalty

import (
	"errors"
	"testing"
	"time"

	"barbershop_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func haircutVisit() *models.Visit {
	return &models.Visit{ClientID: 7, BarberID: 3, Services: []models.VisitService{{ServiceID: 100, Quantity: 1}}}
}

func TestAccrueReachesMilestone(t *testing.T) {
	reward := tenVisitHaircut()
	client := &models.Client{ID: 7, TotalLifetimeVisits: 9, CurrentProgressVisits: 9, SelectedRewardID: int64Ptr(1)}

	Accrue(client, 1, &reward, day0)

	assert.Equal(t, 10, client.TotalLifetimeVisits)
	assert.Equal(t, 10, client.CurrentProgressVisits)
	assert.Equal(t, 1, client.RewardsEarned)
	require.NotNil(t, client.MilestoneReachedAt)
	assert.Equal(t, day0, *client.MilestoneReachedAt)
	assert.Equal(t, int64(1), *client.MilestoneRewardID)

	view := ComputeProgress(client, []models.Reward{reward}, nil)
	assert.True(t, view.CanRedeem)
	require.Len(t, view.EligibleRewards, 1)
}

func TestAccrueCapsAtRequirementAndKeepsStamp(t *testing.T) {
	reward := tenVisitHaircut()
	client := &models.Client{TotalLifetimeVisits: 10, CurrentProgressVisits: 10, SelectedRewardID: int64Ptr(1)}
	Accrue(client, 1, &reward, day0)
	first := *client.MilestoneReachedAt

	Accrue(client, 1, &reward, day0.AddDate(0, 0, 3))

	assert.Equal(t, 12, client.TotalLifetimeVisits)
	assert.Equal(t, 10, client.CurrentProgressVisits)
	assert.Equal(t, first, *client.MilestoneReachedAt, "milestone keeps the first moment it was reached")
	assert.Equal(t, 1, client.RewardsEarned)
}

func TestAccrueWithoutGoalIsUncapped(t *testing.T) {
	client := &models.Client{CurrentProgressVisits: 14}
	Accrue(client, 2, nil, day0)
	assert.Equal(t, 16, client.CurrentProgressVisits)
	assert.Equal(t, 1, client.TotalLifetimeVisits)
	assert.Nil(t, client.MilestoneReachedAt)
}

func TestRedeemOnTenthVisit(t *testing.T) {
	reward := tenVisitHaircut()
	client := &models.Client{ID: 7, TotalLifetimeVisits: 9, CurrentProgressVisits: 9, SelectedRewardID: int64Ptr(1)}
	visit := haircutVisit()

	Accrue(client, 1, &reward, day0)
	record, err := Redeem(client, &reward, visit, 3, RedemptionHistory{MilestoneReachedAt: client.MilestoneReachedAt}, day0)

	require.NoError(t, err)
	require.NotNil(t, visit.RewardRedeemed)
	assert.Same(t, record, visit.RewardRedeemed)
	assert.Equal(t, "Free haircut", record.RewardName)
	assert.Equal(t, int64(3), record.RedeemedBy)
	assert.Nil(t, record.DiscountPercentage)
	assert.Equal(t, 0, client.CurrentProgressVisits)
	assert.Equal(t, 1, client.RewardsRedeemed)
	assert.Equal(t, 1, client.RewardsEarned)
	assert.LessOrEqual(t, client.RewardsRedeemed, client.RewardsEarned)
	assert.Nil(t, client.SelectedRewardID, "goal cleared without a standing preference")
	assert.Nil(t, client.MilestoneReachedAt)
}

func TestRedeemKeepsGoalWhenPreferred(t *testing.T) {
	reward := tenVisitHaircut()
	client := &models.Client{CurrentProgressVisits: 12, SelectedRewardID: int64Ptr(1), KeepGoalAfterRedeem: true}

	_, err := Redeem(client, &reward, haircutVisit(), 3, RedemptionHistory{}, day0)

	require.NoError(t, err)
	require.NotNil(t, client.SelectedRewardID)
	assert.Equal(t, int64(1), *client.SelectedRewardID)
	assert.Equal(t, 0, client.CurrentProgressVisits, "excess visits are discarded")
	assert.Equal(t, 1, client.RewardsEarned, "uncounted milestone is counted at redemption")
}

func TestRedeemDiscountCopiesPercentage(t *testing.T) {
	reward := tenVisitHaircut()
	reward.RewardType = models.RewardTypeDiscount
	reward.DiscountPercentage = intPtr(25)
	client := &models.Client{CurrentProgressVisits: 10}

	record, err := Redeem(client, &reward, haircutVisit(), 3, RedemptionHistory{}, day0)

	require.NoError(t, err)
	require.NotNil(t, record.DiscountPercentage)
	assert.Equal(t, 25, *record.DiscountPercentage)
}

func TestRedeemFailures(t *testing.T) {
	sevenDays := tenVisitHaircut()
	sevenDays.ValidForDays = intPtr(7)
	reachedDay0 := day0

	onceOnly := tenVisitHaircut()
	onceOnly.MaxRedemptions = intPtr(1)

	inactive := tenVisitHaircut()
	inactive.IsActive = false

	beardOnly := tenVisitHaircut()
	beardOnly.ApplicableServices = []int64{200}

	tests := []struct {
		name      string
		reward    models.Reward
		progress  int
		history   RedemptionHistory
		now       time.Time
		kind      error
		remaining int
	}{
		{"not enough visits", tenVisitHaircut(), 9, RedemptionHistory{}, day0, ErrIneligible, 1},
		{"cap reached", onceOnly, 10, RedemptionHistory{PriorRedemptions: 1}, day0, ErrRedemptionLimitExceeded, 0},
		{"window lapsed", sevenDays, 10, RedemptionHistory{MilestoneReachedAt: &reachedDay0}, day0.AddDate(0, 0, 10), ErrExpired, 0},
		{"reward deactivated", inactive, 10, RedemptionHistory{}, day0, ErrIneligible, 0},
		{"service not covered", beardOnly, 10, RedemptionHistory{}, day0, ErrValidation, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &models.Client{ID: 7, CurrentProgressVisits: tt.progress, RewardsEarned: 1, CycleRewardEarned: true}
			visit := haircutVisit()

			_, err := Redeem(client, &tt.reward, visit, 3, tt.history, tt.now)

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
			var lerr *Error
			require.ErrorAs(t, err, &lerr)
			assert.Equal(t, tt.remaining, lerr.VisitsRemaining)
			assert.Nil(t, visit.RewardRedeemed, "failed redemption leaves the draft untouched")
			assert.Equal(t, tt.progress, client.CurrentProgressVisits)
			assert.Zero(t, client.RewardsRedeemed)
		})
	}
}

func TestRedeemWithinWindow(t *testing.T) {
	reward := tenVisitHaircut()
	reward.ValidForDays = intPtr(7)
	reached := day0
	client := &models.Client{CurrentProgressVisits: 10}

	_, err := Redeem(client, &reward, haircutVisit(), 3, RedemptionHistory{MilestoneReachedAt: &reached}, day0.AddDate(0, 0, 7))

	assert.NoError(t, err, "the last day of the window still redeems")
}

func TestRedeemTwiceOnSameVisitFails(t *testing.T) {
	reward := tenVisitHaircut()
	client := &models.Client{CurrentProgressVisits: 20}
	visit := haircutVisit()

	_, err := Redeem(client, &reward, visit, 3, RedemptionHistory{}, day0)
	require.NoError(t, err)
	client.CurrentProgressVisits = 20

	_, err = Redeem(client, &reward, visit, 3, RedemptionHistory{}, day0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSelectGoalDoesNotInflateEarned(t *testing.T) {
	a := tenVisitHaircut()
	b := tenVisitHaircut()
	b.ID, b.VisitsRequired = 2, 5
	client := &models.Client{CurrentProgressVisits: 10}

	SelectGoal(client, &a, day0)
	SelectGoal(client, &b, day0)
	SelectGoal(client, &a, day0)

	assert.Equal(t, 1, client.RewardsEarned)
	assert.Equal(t, int64(1), *client.MilestoneRewardID)

	ClearGoal(client)
	assert.Nil(t, client.SelectedRewardID)
	assert.Nil(t, client.MilestoneReachedAt)
	assert.Equal(t, 10, client.CurrentProgressVisits, "clearing a goal keeps progress")
}

func TestSelectGoalAgainKeepsMilestone(t *testing.T) {
	reward := tenVisitHaircut()
	client := &models.Client{CurrentProgressVisits: 10}

	SelectGoal(client, &reward, day0)
	require.NotNil(t, client.MilestoneReachedAt)
	SelectGoal(client, &reward, day0.AddDate(0, 0, 10))

	assert.Equal(t, day0, *client.MilestoneReachedAt)
	assert.Equal(t, 1, client.RewardsEarned)
}

func TestRedeemedNeverExceedsEarned(t *testing.T) {
	reward := tenVisitHaircut()
	reward.VisitsRequired = 2
	client := &models.Client{SelectedRewardID: int64Ptr(1), KeepGoalAfterRedeem: true}
	now := day0

	for i := 0; i < 30; i++ {
		now = now.Add(24 * time.Hour)
		Accrue(client, 1, &reward, now)
		if client.CurrentProgressVisits >= reward.VisitsRequired {
			_, err := Redeem(client, &reward, haircutVisit(), 3, RedemptionHistory{MilestoneReachedAt: client.MilestoneReachedAt}, now)
			require.NoError(t, err)
		}
		assert.LessOrEqual(t, client.RewardsRedeemed, client.RewardsEarned)
		assert.GreaterOrEqual(t, client.CurrentProgressVisits, 0)
	}
	assert.Equal(t, 15, client.RewardsRedeemed)
	assert.Equal(t, 30, client.TotalLifetimeVisits)
}

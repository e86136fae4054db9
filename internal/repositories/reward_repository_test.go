package repositories

import (
	"context"
	"testing"
	"time"

	"barbershop_backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rewardColumnNames = []string{
	"id", "name", "description", "visits_required", "reward_type", "discount_percentage",
	"applicable_services", "max_redemptions", "valid_for_days", "is_active", "created_at", "updated_at",
}

func TestGetRewardsActiveOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRewardRepository(db)
	now := time.Now()

	mock.ExpectQuery(`FROM rewards WHERE is_active = TRUE ORDER BY visits_required ASC, id ASC`).
		WillReturnRows(sqlmock.NewRows(rewardColumnNames).
			AddRow(int64(1), "Free haircut", nil, int64(10), "free", nil, "{100}", nil, nil, true, now, now).
			AddRow(int64(2), "Quarter off", "25% off beard work", int64(5), "discount", int64(25), "{200,201}", int64(3), int64(30), true, now, now))

	rewards, err := repo.GetRewards(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, rewards, 2)

	assert.Equal(t, models.RewardTypeFree, rewards[0].RewardType)
	assert.Nil(t, rewards[0].DiscountPercentage)
	assert.Equal(t, []int64{100}, rewards[0].ApplicableServices)

	assert.Equal(t, []int64{200, 201}, rewards[1].ApplicableServices)
	require.NotNil(t, rewards[1].DiscountPercentage)
	assert.Equal(t, 25, *rewards[1].DiscountPercentage)
	require.NotNil(t, rewards[1].MaxRedemptions)
	assert.Equal(t, 3, *rewards[1].MaxRedemptions)
	require.NotNil(t, rewards[1].ValidForDays)
	assert.Equal(t, 30, *rewards[1].ValidForDays)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRewardActiveMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRewardRepository(db)

	mock.ExpectExec(`UPDATE rewards SET is_active`).
		WithArgs(false, sqlmock.AnyArg(), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.SetRewardActive(context.Background(), db, 42, false)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

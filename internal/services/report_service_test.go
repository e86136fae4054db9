package services

import (
	"context"
	"testing"
	"time"

	"barbershop_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReportRepo struct {
	start, end time.Time
	barberID   *int64
}

func (r *recordingReportRepo) LoyaltySummary(context.Context) (*models.LoyaltySummary, error) {
	return &models.LoyaltySummary{TotalClients: 3}, nil
}

func (r *recordingReportRepo) RewardPopularity(_ context.Context, start, end time.Time, barberID *int64) ([]models.RewardPopularityItem, error) {
	r.start, r.end, r.barberID = start, end, barberID
	return []models.RewardPopularityItem{{RewardID: 1, RewardName: "Free haircut", RedemptionCount: 2, UniqueClients: 2}}, nil
}

func TestRewardPopularityRange(t *testing.T) {
	repo := &recordingReportRepo{}
	now := time.Date(2026, 3, 15, 18, 30, 0, 0, time.UTC)
	svc := NewReportService(repo, func() time.Time { return now })
	ctx := context.Background()

	items, err := svc.RewardPopularity(ctx, models.ReportRequestParams{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), repo.end)
	assert.Equal(t, time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC), repo.start)

	barber := int64(4)
	_, err = svc.RewardPopularity(ctx, models.ReportRequestParams{StartDate: "2026-01-01", EndDate: "2026-01-31", BarberID: &barber})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), repo.start)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), repo.end)
	assert.Equal(t, &barber, repo.barberID)

	_, err = svc.RewardPopularity(ctx, models.ReportRequestParams{StartDate: "2026-02-01", EndDate: "2026-01-01"})
	assert.ErrorIs(t, err, ErrReportParams)
	_, err = svc.RewardPopularity(ctx, models.ReportRequestParams{StartDate: "yesterday"})
	assert.ErrorIs(t, err, ErrReportParams)

	summary, err := svc.LoyaltySummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalClients)
}

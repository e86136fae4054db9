package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"barbershop_backend/internal/models"
	"barbershop_backend/internal/repositories"
)

const DefaultReportDateLayout = "2006-01-02"

// ErrReportParams is returned for malformed report ranges.
var ErrReportParams = errors.New("invalid report parameters")

// ReportService exposes read-only aggregates over committed loyalty data.
type ReportService interface {
	LoyaltySummary(ctx context.Context) (*models.LoyaltySummary, error)
	// RewardPopularity counts redemptions per reward. Dates are inclusive YYYY-MM-DD days;
	// an empty range covers the last 30 days.
	RewardPopularity(ctx context.Context, params models.ReportRequestParams) ([]models.RewardPopularityItem, error)
}

type reportService struct {
	reportRepo repositories.ReportRepository
	now        Clock
}

// NewReportService creates a new instance of ReportService. now may be nil.
func NewReportService(reportRepo repositories.ReportRepository, now Clock) ReportService {
	if now == nil {
		now = systemClock
	}
	return &reportService{reportRepo: reportRepo, now: now}
}

func (s *reportService) LoyaltySummary(ctx context.Context) (*models.LoyaltySummary, error) {
	summary, err := s.reportRepo.LoyaltySummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build loyalty summary: %w", err)
	}
	return summary, nil
}

func (s *reportService) RewardPopularity(ctx context.Context, params models.ReportRequestParams) ([]models.RewardPopularityItem, error) {
	start, end, err := s.reportRange(params.StartDate, params.EndDate)
	if err != nil {
		return nil, err
	}
	items, err := s.reportRepo.RewardPopularity(ctx, start, end, params.BarberID)
	if err != nil {
		return nil, fmt.Errorf("failed to build reward popularity report: %w", err)
	}
	return items, nil
}

// reportRange turns inclusive day strings into a half-open [start, end) interval in UTC.
func (s *reportService) reportRange(startStr, endStr string) (time.Time, time.Time, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	end := today.AddDate(0, 0, 1)
	if strings.TrimSpace(endStr) != "" {
		d, err := time.Parse(DefaultReportDateLayout, strings.TrimSpace(endStr))
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date must be YYYY-MM-DD", ErrReportParams)
		}
		end = d.AddDate(0, 0, 1)
	}
	start := end.AddDate(0, 0, -30)
	if strings.TrimSpace(startStr) != "" {
		d, err := time.Parse(DefaultReportDateLayout, strings.TrimSpace(startStr))
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date must be YYYY-MM-DD", ErrReportParams)
		}
		start = d
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date must not be after end_date", ErrReportParams)
	}
	return start, end, nil
}

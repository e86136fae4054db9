package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"barbershop_backend/internal/models"
)

// ReportRepository reads aggregates over committed client and visit rows.
type ReportRepository interface {
	LoyaltySummary(ctx context.Context) (*models.LoyaltySummary, error)
	RewardPopularity(ctx context.Context, startDate, endDate time.Time, barberID *int64) ([]models.RewardPopularityItem, error)
}

type reportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: db}
}

// LoyaltySummary totals the client counters and groups clients by stored status.
func (r *reportRepository) LoyaltySummary(ctx context.Context) (*models.LoyaltySummary, error) {
	summary := &models.LoyaltySummary{ClientsByStatus: map[models.LoyaltyStatus]int{}}
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE account_active),
		       COALESCE(SUM(total_lifetime_visits), 0),
		       COALESCE(SUM(rewards_earned), 0),
		       COALESCE(SUM(rewards_redeemed), 0)
		FROM clients`,
	).Scan(&summary.TotalClients, &summary.ActiveAccounts, &summary.TotalLifetimeVisits,
		&summary.TotalRewardsEarned, &summary.TotalRewardsRedeemed)
	if err != nil {
		return nil, fmt.Errorf("%w: loyalty summary totals: %v", ErrDatabaseError, err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT loyalty_status, COUNT(*) FROM clients GROUP BY loyalty_status`)
	if err != nil {
		return nil, fmt.Errorf("%w: loyalty summary by status: %v", ErrDatabaseError, err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("%w: scanning status count: %v", ErrDatabaseError, err)
		}
		summary.ClientsByStatus[models.LoyaltyStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating status counts: %v", ErrDatabaseError, err)
	}
	return summary, nil
}

// RewardPopularity counts redemptions per reward within [startDate, endDate).
func (r *reportRepository) RewardPopularity(ctx context.Context, startDate, endDate time.Time, barberID *int64) ([]models.RewardPopularityItem, error) {
	query := `
		SELECT redeemed_reward_id, MAX(redeemed_reward_name), COUNT(*), COUNT(DISTINCT client_id)
		FROM visits
		WHERE redeemed_reward_id IS NOT NULL AND visit_date >= $1 AND visit_date < $2`
	args := []interface{}{startDate, endDate}
	if barberID != nil {
		query += ` AND barber_id = $3`
		args = append(args, *barberID)
	}
	query += ` GROUP BY redeemed_reward_id ORDER BY COUNT(*) DESC, redeemed_reward_id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: reward popularity: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	items := []models.RewardPopularityItem{}
	for rows.Next() {
		var item models.RewardPopularityItem
		if err := rows.Scan(&item.RewardID, &item.RewardName, &item.RedemptionCount, &item.UniqueClients); err != nil {
			return nil, fmt.Errorf("%w: scanning reward popularity: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating reward popularity: %v", ErrDatabaseError, err)
	}
	return items, nil
}

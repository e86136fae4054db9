package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"time"

	"barbershop_backend/internal/models"
)

// VisitRepository is the append-only visit ledger.
type VisitRepository interface {
	CreateVisit(ctx context.Context, executor SQLExecutor, visit *models.Visit) (int64, error)
	GetVisitByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Visit, error)
	// VisitsSince yields the client's visits strictly after since, ordered by date then ID.
	// Rows are read as the sequence is consumed; breaking early releases them.
	VisitsSince(ctx context.Context, executor SQLExecutor, clientID int64, since time.Time) iter.Seq2[models.Visit, error]
	CountRedemptions(ctx context.Context, executor SQLExecutor, clientID, rewardID int64) (int, error)
	RedemptionCounts(ctx context.Context, executor SQLExecutor, clientID int64) (map[int64]int, error)
	// LastRedemptionAt returns the date of the client's latest visit carrying a redemption, or nil.
	LastRedemptionAt(ctx context.Context, executor SQLExecutor, clientID int64) (*time.Time, error)
	RewardReferenced(ctx context.Context, executor SQLExecutor, rewardID int64) (bool, error)
}

type visitRepository struct {
	db *sql.DB
}

// NewVisitRepository creates a new instance of VisitRepository.
func NewVisitRepository(db *sql.DB) VisitRepository {
	return &visitRepository{db: db}
}

const visitSelect = `SELECT v.id, v.client_id, v.barber_id, v.total_price, v.loyalty_points_earned, v.progress_after,
	v.visit_date, v.notes, v.redeemed_reward_id, v.redeemed_reward_name, v.redeemed_reward_type,
	v.redeemed_discount_percentage, v.redeemed_at, v.redeemed_by, v.created_at,
	COALESCE((SELECT json_agg(json_build_object(
	            'service_id', vs.service_id, 'service_name', vs.service_name,
	            'quantity', vs.quantity, 'unit_price', vs.unit_price) ORDER BY vs.id)
	          FROM visit_services vs WHERE vs.visit_id = v.id), '[]') AS services
	FROM visits v`

func scanVisit(row scanner) (*models.Visit, error) {
	v := &models.Visit{}
	var (
		notes       sql.NullString
		rewardID    sql.NullInt64
		rewardName  sql.NullString
		rewardType  sql.NullString
		discount    sql.NullInt32
		redeemedAt  sql.NullTime
		redeemedBy  sql.NullInt64
		servicesRaw []byte
	)
	err := row.Scan(&v.ID, &v.ClientID, &v.BarberID, &v.TotalPrice, &v.LoyaltyPointsEarned, &v.ProgressAfter,
		&v.Date, &notes, &rewardID, &rewardName, &rewardType, &discount, &redeemedAt, &redeemedBy, &v.CreatedAt,
		&servicesRaw)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		v.Notes = &notes.String
	}
	if rewardID.Valid {
		v.RewardRedeemed = &models.RedemptionRecord{
			RewardID:           rewardID.Int64,
			RewardName:         rewardName.String,
			RewardType:         models.RewardType(rewardType.String),
			DiscountPercentage: intFromNull(discount),
			RedeemedAt:         redeemedAt.Time,
			RedeemedBy:         redeemedBy.Int64,
		}
	}
	if err := json.Unmarshal(servicesRaw, &v.Services); err != nil {
		return nil, fmt.Errorf("decoding visit services: %w", err)
	}
	return v, nil
}

// CreateVisit appends a visit and its service lines. It must run inside the caller's transaction.
func (r *visitRepository) CreateVisit(ctx context.Context, executor SQLExecutor, visit *models.Visit) (int64, error) {
	query := `INSERT INTO visits (client_id, barber_id, total_price, loyalty_points_earned, progress_after, visit_date, notes,
	            redeemed_reward_id, redeemed_reward_name, redeemed_reward_type, redeemed_discount_percentage,
	            redeemed_at, redeemed_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	          RETURNING id`

	if visit.CreatedAt.IsZero() {
		visit.CreatedAt = time.Now()
	}
	if visit.Date.IsZero() {
		visit.Date = visit.CreatedAt
	}

	var (
		rewardID   sql.NullInt64
		rewardName sql.NullString
		rewardType sql.NullString
		discount   sql.NullInt32
		redeemedAt sql.NullTime
		redeemedBy sql.NullInt64
	)
	if rr := visit.RewardRedeemed; rr != nil {
		rewardID = sql.NullInt64{Int64: rr.RewardID, Valid: true}
		rewardName = sql.NullString{String: rr.RewardName, Valid: true}
		rewardType = sql.NullString{String: string(rr.RewardType), Valid: true}
		discount = nullInt(rr.DiscountPercentage)
		redeemedAt = sql.NullTime{Time: rr.RedeemedAt, Valid: true}
		redeemedBy = sql.NullInt64{Int64: rr.RedeemedBy, Valid: true}
	}

	err := executor.QueryRowContext(ctx, query,
		visit.ClientID, visit.BarberID, visit.TotalPrice, visit.LoyaltyPointsEarned, visit.ProgressAfter, visit.Date, visit.Notes,
		rewardID, rewardName, rewardType, discount, redeemedAt, redeemedBy, visit.CreatedAt,
	).Scan(&visit.ID)
	if err != nil {
		return 0, mapWriteError(err, "creating visit")
	}

	lineQuery := `INSERT INTO visit_services (visit_id, service_id, service_name, quantity, unit_price)
	              VALUES ($1, $2, $3, $4, $5)`
	for _, line := range visit.Services {
		if _, err := executor.ExecContext(ctx, lineQuery, visit.ID, line.ServiceID, line.ServiceName, line.Quantity, line.UnitPrice); err != nil {
			return 0, mapWriteError(err, fmt.Sprintf("adding service %d to visit %d", line.ServiceID, visit.ID))
		}
	}
	return visit.ID, nil
}

// GetVisitByID retrieves a single visit with its service lines.
func (r *visitRepository) GetVisitByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Visit, error) {
	if executor == nil {
		executor = r.db
	}
	visit, err := scanVisit(executor.QueryRowContext(ctx, visitSelect+` WHERE v.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting visit %d: %v", ErrDatabaseError, id, err)
	}
	return visit, nil
}

// VisitsSince streams the client's visits after since.
func (r *visitRepository) VisitsSince(ctx context.Context, executor SQLExecutor, clientID int64, since time.Time) iter.Seq2[models.Visit, error] {
	if executor == nil {
		executor = r.db
	}
	return func(yield func(models.Visit, error) bool) {
		rows, err := executor.QueryContext(ctx,
			visitSelect+` WHERE v.client_id = $1 AND v.visit_date > $2 ORDER BY v.visit_date ASC, v.id ASC`,
			clientID, since)
		if err != nil {
			yield(models.Visit{}, fmt.Errorf("%w: listing visits for client %d: %v", ErrDatabaseError, clientID, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			visit, err := scanVisit(rows)
			if err != nil {
				yield(models.Visit{}, fmt.Errorf("%w: scanning visit: %v", ErrDatabaseError, err))
				return
			}
			if !yield(*visit, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.Visit{}, fmt.Errorf("%w: iterating visits: %v", ErrDatabaseError, err))
		}
	}
}

// CountRedemptions counts committed visits of the client that consumed the reward.
func (r *visitRepository) CountRedemptions(ctx context.Context, executor SQLExecutor, clientID, rewardID int64) (int, error) {
	var count int
	err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM visits WHERE client_id = $1 AND redeemed_reward_id = $2`, clientID, rewardID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting redemptions: %v", ErrDatabaseError, err)
	}
	return count, nil
}

// RedemptionCounts returns redemptions per reward for one client.
func (r *visitRepository) RedemptionCounts(ctx context.Context, executor SQLExecutor, clientID int64) (map[int64]int, error) {
	if executor == nil {
		executor = r.db
	}
	rows, err := executor.QueryContext(ctx,
		`SELECT redeemed_reward_id, COUNT(*) FROM visits
		 WHERE client_id = $1 AND redeemed_reward_id IS NOT NULL
		 GROUP BY redeemed_reward_id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: counting redemptions per reward: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var rewardID int64
		var count int
		if err := rows.Scan(&rewardID, &count); err != nil {
			return nil, fmt.Errorf("%w: scanning redemption count: %v", ErrDatabaseError, err)
		}
		counts[rewardID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating redemption counts: %v", ErrDatabaseError, err)
	}
	return counts, nil
}

// LastRedemptionAt finds where the current progress cycle started.
func (r *visitRepository) LastRedemptionAt(ctx context.Context, executor SQLExecutor, clientID int64) (*time.Time, error) {
	var last sql.NullTime
	err := executor.QueryRowContext(ctx,
		`SELECT MAX(visit_date) FROM visits WHERE client_id = $1 AND redeemed_reward_id IS NOT NULL`, clientID,
	).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("%w: finding last redemption: %v", ErrDatabaseError, err)
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}

// RewardReferenced reports whether any visit consumed the reward.
func (r *visitRepository) RewardReferenced(ctx context.Context, executor SQLExecutor, rewardID int64) (bool, error) {
	if executor == nil {
		executor = r.db
	}
	var exists bool
	err := executor.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM visits WHERE redeemed_reward_id = $1)`, rewardID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking reward references: %v", ErrDatabaseError, err)
	}
	return exists, nil
}

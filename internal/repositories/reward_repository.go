package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"barbershop_backend/internal/models"

	"github.com/lib/pq"
)

// RewardRepository defines database operations for the reward catalog.
type RewardRepository interface {
	CreateReward(ctx context.Context, executor SQLExecutor, reward *models.Reward) (int64, error)
	GetRewardByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Reward, error)
	GetRewards(ctx context.Context, activeOnly bool) ([]models.Reward, error)
	UpdateReward(ctx context.Context, executor SQLExecutor, reward *models.Reward) error
	SetRewardActive(ctx context.Context, executor SQLExecutor, id int64, active bool) error
	DeleteReward(ctx context.Context, executor SQLExecutor, id int64) error
}

type rewardRepository struct {
	db *sql.DB
}

// NewRewardRepository creates a new instance of RewardRepository.
func NewRewardRepository(db *sql.DB) RewardRepository {
	return &rewardRepository{db: db}
}

const rewardColumns = `id, name, description, visits_required, reward_type, discount_percentage,
	applicable_services, max_redemptions, valid_for_days, is_active, created_at, updated_at`

func scanReward(row scanner) (*models.Reward, error) {
	r := &models.Reward{}
	var (
		description    sql.NullString
		rewardType     string
		discount       sql.NullInt32
		maxRedemptions sql.NullInt32
		validForDays   sql.NullInt32
		services       pq.Int64Array
	)
	err := row.Scan(&r.ID, &r.Name, &description, &r.VisitsRequired, &rewardType, &discount,
		&services, &maxRedemptions, &validForDays, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		r.Description = &description.String
	}
	r.RewardType = models.RewardType(rewardType)
	r.DiscountPercentage = intFromNull(discount)
	r.MaxRedemptions = intFromNull(maxRedemptions)
	r.ValidForDays = intFromNull(validForDays)
	r.ApplicableServices = []int64(services)
	if r.ApplicableServices == nil {
		r.ApplicableServices = []int64{}
	}
	return r, nil
}

// CreateReward inserts a reward definition.
func (r *rewardRepository) CreateReward(ctx context.Context, executor SQLExecutor, reward *models.Reward) (int64, error) {
	query := `INSERT INTO rewards (name, description, visits_required, reward_type, discount_percentage,
	            applicable_services, max_redemptions, valid_for_days, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`

	currentTime := time.Now()
	reward.CreatedAt = currentTime
	reward.UpdatedAt = currentTime

	err := executor.QueryRowContext(ctx, query,
		reward.Name, reward.Description, reward.VisitsRequired, string(reward.RewardType), nullInt(reward.DiscountPercentage),
		pq.Array(reward.ApplicableServices), nullInt(reward.MaxRedemptions), nullInt(reward.ValidForDays),
		reward.IsActive, reward.CreatedAt, reward.UpdatedAt,
	).Scan(&reward.ID)
	if err != nil {
		return 0, mapWriteError(err, "creating reward")
	}
	return reward.ID, nil
}

// GetRewardByID retrieves a reward by ID through the given executor.
func (r *rewardRepository) GetRewardByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Reward, error) {
	if executor == nil {
		executor = r.db
	}
	query := `SELECT ` + rewardColumns + ` FROM rewards WHERE id = $1`
	reward, err := scanReward(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting reward %d: %v", ErrDatabaseError, id, err)
	}
	return reward, nil
}

// GetRewards lists rewards ordered by requirement, then ID.
func (r *rewardRepository) GetRewards(ctx context.Context, activeOnly bool) ([]models.Reward, error) {
	query := `SELECT ` + rewardColumns + ` FROM rewards`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY visits_required ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: listing rewards: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	rewards := []models.Reward{}
	for rows.Next() {
		reward, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning reward: %v", ErrDatabaseError, err)
		}
		rewards = append(rewards, *reward)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating rewards: %v", ErrDatabaseError, err)
	}
	return rewards, nil
}

// UpdateReward overwrites a reward definition.
func (r *rewardRepository) UpdateReward(ctx context.Context, executor SQLExecutor, reward *models.Reward) error {
	query := `UPDATE rewards SET name = $1, description = $2, visits_required = $3, reward_type = $4,
	            discount_percentage = $5, applicable_services = $6, max_redemptions = $7, valid_for_days = $8,
	            is_active = $9, updated_at = $10
	          WHERE id = $11`
	reward.UpdatedAt = time.Now()
	result, err := executor.ExecContext(ctx, query,
		reward.Name, reward.Description, reward.VisitsRequired, string(reward.RewardType), nullInt(reward.DiscountPercentage),
		pq.Array(reward.ApplicableServices), nullInt(reward.MaxRedemptions), nullInt(reward.ValidForDays),
		reward.IsActive, reward.UpdatedAt, reward.ID,
	)
	if err != nil {
		return mapWriteError(err, "updating reward")
	}
	return expectOneRow(result, ErrNotFound)
}

// SetRewardActive toggles a reward without touching its definition.
func (r *rewardRepository) SetRewardActive(ctx context.Context, executor SQLExecutor, id int64, active bool) error {
	query := `UPDATE rewards SET is_active = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, active, time.Now(), id)
	if err != nil {
		return fmt.Errorf("%w: setting is_active for reward %d: %v", ErrDatabaseError, id, err)
	}
	return expectOneRow(result, ErrNotFound)
}

// DeleteReward removes a reward that no visit references.
func (r *rewardRepository) DeleteReward(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM rewards WHERE id = $1`, id)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("deleting reward %d", id))
	}
	return expectOneRow(result, ErrNotFound)
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"barbershop_backend/internal/models"
)

// ClientRepository defines the interface for client-related database operations.
type ClientRepository interface {
	CreateClient(ctx context.Context, executor SQLExecutor, client *models.Client) (int64, error)
	GetClientByID(ctx context.Context, id int64) (*models.Client, error)
	// GetClientForUpdate locks the client row until the surrounding transaction ends.
	GetClientForUpdate(ctx context.Context, executor SQLExecutor, id int64) (*models.Client, error)
	GetClientByPhoneNumber(ctx context.Context, phoneNumber string) (*models.Client, error)
	GetClients(ctx context.Context, filters models.ClientFilters) ([]models.Client, int, error) // Clients, total count, error
	UpdateProfile(ctx context.Context, executor SQLExecutor, client *models.Client) error
	// UpdateLoyaltyState writes the loyalty counters if the stored version still matches client.Version.
	// On success client.Version is advanced.
	UpdateLoyaltyState(ctx context.Context, executor SQLExecutor, client *models.Client) error
	SetAccountActive(ctx context.Context, executor SQLExecutor, id int64, active bool) error
}

type clientRepository struct {
	db *sql.DB
}

// NewClientRepository creates a new instance of ClientRepository.
func NewClientRepository(db *sql.DB) ClientRepository {
	return &clientRepository{db: db}
}

const clientColumns = `id, full_name, phone_number, account_active, total_lifetime_visits, current_progress_visits,
	rewards_earned, rewards_redeemed, selected_reward_id, keep_goal_after_redemption, milestone_reward_id,
	milestone_reached_at, cycle_reward_earned, last_visit_at, loyalty_status, version, created_at, updated_at`

func scanClient(row scanner) (*models.Client, error) {
	c := &models.Client{}
	var (
		phone              sql.NullString
		selectedRewardID   sql.NullInt64
		milestoneRewardID  sql.NullInt64
		milestoneReachedAt sql.NullTime
		lastVisitAt        sql.NullTime
		status             string
	)
	err := row.Scan(
		&c.ID, &c.FullName, &phone, &c.AccountActive, &c.TotalLifetimeVisits, &c.CurrentProgressVisits,
		&c.RewardsEarned, &c.RewardsRedeemed, &selectedRewardID, &c.KeepGoalAfterRedeem, &milestoneRewardID,
		&milestoneReachedAt, &c.CycleRewardEarned, &lastVisitAt, &status, &c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if phone.Valid {
		c.PhoneNumber = &phone.String
	}
	c.SelectedRewardID = int64FromNull(selectedRewardID)
	c.MilestoneRewardID = int64FromNull(milestoneRewardID)
	if milestoneReachedAt.Valid {
		c.MilestoneReachedAt = &milestoneReachedAt.Time
	}
	if lastVisitAt.Valid {
		c.LastVisitAt = &lastVisitAt.Time
	}
	c.LoyaltyStatus = models.LoyaltyStatus(status)
	return c, nil
}

// CreateClient inserts a new client into the database.
func (r *clientRepository) CreateClient(ctx context.Context, executor SQLExecutor, client *models.Client) (int64, error) {
	query := `INSERT INTO clients (full_name, phone_number, account_active, keep_goal_after_redemption, loyalty_status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, version`

	currentTime := time.Now()
	if client.CreatedAt.IsZero() {
		client.CreatedAt = currentTime
	}
	if client.UpdatedAt.IsZero() {
		client.UpdatedAt = currentTime
	}
	if client.LoyaltyStatus == "" {
		client.LoyaltyStatus = models.LoyaltyStatusNew
	}

	err := executor.QueryRowContext(ctx, query,
		client.FullName, client.PhoneNumber, client.AccountActive, client.KeepGoalAfterRedeem,
		string(client.LoyaltyStatus), client.CreatedAt, client.UpdatedAt,
	).Scan(&client.ID, &client.Version)
	if err != nil {
		return 0, mapWriteError(err, "creating client")
	}
	return client.ID, nil
}

// GetClientByID retrieves a client by their ID.
func (r *clientRepository) GetClientByID(ctx context.Context, id int64) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	client, err := scanClient(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting client by ID %d: %v", ErrDatabaseError, id, err)
	}
	return client, nil
}

// GetClientForUpdate retrieves a client and takes a row lock for the rest of the transaction.
func (r *clientRepository) GetClientForUpdate(ctx context.Context, executor SQLExecutor, id int64) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1 FOR UPDATE`
	client, err := scanClient(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking client %d: %v", ErrDatabaseError, id, err)
	}
	return client, nil
}

// GetClientByPhoneNumber retrieves a client by their phone number.
func (r *clientRepository) GetClientByPhoneNumber(ctx context.Context, phoneNumber string) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE phone_number = $1`
	client, err := scanClient(r.db.QueryRowContext(ctx, query, phoneNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting client by phone %s: %v", ErrDatabaseError, phoneNumber, err)
	}
	return client, nil
}

// GetClients retrieves a paginated list of clients, optionally filtered.
func (r *clientRepository) GetClients(ctx context.Context, filters models.ClientFilters) ([]models.Client, int, error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if filters.SearchTerm != nil && *filters.SearchTerm != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR phone_number ILIKE $%d)", argID, argID))
		args = append(args, "%"+*filters.SearchTerm+"%")
		argID++
	}
	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("loyalty_status = $%d", argID))
		args = append(args, string(*filters.Status))
		argID++
	}
	if filters.ActiveOnly {
		conditions = append(conditions, "account_active = TRUE")
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	offset := (filters.Page - 1) * filters.PageSize

	query := `SELECT ` + clientColumns + `, COUNT(*) OVER() AS total_count FROM clients` + where +
		fmt.Sprintf(" ORDER BY full_name ASC, id ASC LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, filters.PageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting clients: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	clients := []models.Client{}
	totalCount := 0
	for rows.Next() {
		var client *models.Client
		client, err = scanClient(countingScanner{rows: rows, total: &totalCount})
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning client: %v", ErrDatabaseError, err)
		}
		clients = append(clients, *client)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating clients: %v", ErrDatabaseError, err)
	}
	return clients, totalCount, nil
}

// countingScanner appends the window-function total to a row scan.
type countingScanner struct {
	rows  *sql.Rows
	total *int
}

func (s countingScanner) Scan(dest ...interface{}) error {
	return s.rows.Scan(append(dest, s.total)...)
}

// UpdateProfile updates the contact fields and the goal preference, never the loyalty counters.
func (r *clientRepository) UpdateProfile(ctx context.Context, executor SQLExecutor, client *models.Client) error {
	query := `UPDATE clients SET full_name = $1, phone_number = $2, keep_goal_after_redemption = $3, updated_at = $4
	          WHERE id = $5`
	client.UpdatedAt = time.Now()
	result, err := executor.ExecContext(ctx, query, client.FullName, client.PhoneNumber, client.KeepGoalAfterRedeem, client.UpdatedAt, client.ID)
	if err != nil {
		return mapWriteError(err, "updating client")
	}
	return expectOneRow(result, ErrNotFound)
}

// UpdateLoyaltyState persists the aggregate with a compare-and-swap on version.
func (r *clientRepository) UpdateLoyaltyState(ctx context.Context, executor SQLExecutor, client *models.Client) error {
	query := `UPDATE clients SET
	            total_lifetime_visits = $1, current_progress_visits = $2, rewards_earned = $3, rewards_redeemed = $4,
	            selected_reward_id = $5, milestone_reward_id = $6, milestone_reached_at = $7, cycle_reward_earned = $8,
	            last_visit_at = $9, loyalty_status = $10, version = version + 1, updated_at = $11
	          WHERE id = $12 AND version = $13`

	var milestoneAt, lastVisitAt sql.NullTime
	if client.MilestoneReachedAt != nil {
		milestoneAt = sql.NullTime{Time: *client.MilestoneReachedAt, Valid: true}
	}
	if client.LastVisitAt != nil {
		lastVisitAt = sql.NullTime{Time: *client.LastVisitAt, Valid: true}
	}
	updatedAt := time.Now()

	result, err := executor.ExecContext(ctx, query,
		client.TotalLifetimeVisits, client.CurrentProgressVisits, client.RewardsEarned, client.RewardsRedeemed,
		nullInt64(client.SelectedRewardID), nullInt64(client.MilestoneRewardID), milestoneAt, client.CycleRewardEarned,
		lastVisitAt, string(client.LoyaltyStatus), updatedAt,
		client.ID, client.Version,
	)
	if err != nil {
		return mapWriteError(err, "updating client loyalty state")
	}
	if err := expectOneRow(result, ErrVersionConflict); err != nil {
		return err
	}
	client.Version++
	client.UpdatedAt = updatedAt
	return nil
}

// SetAccountActive soft-deactivates or reactivates a client account.
func (r *clientRepository) SetAccountActive(ctx context.Context, executor SQLExecutor, id int64, active bool) error {
	query := `UPDATE clients SET account_active = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, active, time.Now(), id)
	if err != nil {
		return fmt.Errorf("%w: setting account_active for client %d: %v", ErrDatabaseError, id, err)
	}
	return expectOneRow(result, ErrNotFound)
}

// expectOneRow returns missing when the statement touched no row.
func expectOneRow(result sql.Result, missing error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return missing
	}
	return nil
}

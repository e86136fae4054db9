package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"barbershop_backend/internal/repositories"
	"barbershop_backend/pkg/utils"

	_ "github.com/lib/pq" // PostgreSQL driver
)

//go:embed schema.sql
var schemaSQL string

// Options holds the connection settings.
type Options struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	ApplySchema  bool
}

// InitDB opens and verifies the PostgreSQL connection pool.
func InitDB(ctx context.Context, opts Options) (*sql.DB, error) {
	if opts.SSLMode == "" {
		opts.SSLMode = "disable"
	}
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		opts.Host, opts.Port, opts.User, opts.Password, opts.Name, opts.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	utils.LogInfo("Successfully connected to the database", map[string]interface{}{"host": opts.Host, "db": opts.Name})

	if opts.ApplySchema {
		if err := ApplySchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// ApplySchema executes the embedded schema. Every statement is idempotent.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("could not execute schema script: %w", err)
	}
	utils.LogInfo("Database schema applied successfully")
	return nil
}

// SQLTransactor runs units of work inside database transactions.
type SQLTransactor struct {
	db *sql.DB
}

// NewTransactor creates a new SQLTransactor.
func NewTransactor(db *sql.DB) *SQLTransactor {
	return &SQLTransactor{db: db}
}

// WithinTransaction commits when fn returns nil and rolls back otherwise.
func (t *SQLTransactor) WithinTransaction(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", repositories.ErrDatabaseError, err)
	}
	defer tx.Rollback() // Rollback if not committed

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", repositories.ErrDatabaseError, err)
	}
	return nil
}

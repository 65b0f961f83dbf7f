package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mixelka/zeronode/pkg/models"
)

// GetAccountState returns the persisted state of an account
func (db *DB) GetAccountState(ctx context.Context, email string) (*models.AccountState, error) {
	var state models.AccountState
	query := `SELECT * FROM account_state WHERE email = ?`
	err := db.GetContext(ctx, &state, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account state: %w", err)
	}
	return &state, nil
}

// ListAccountStates returns the state of every known account
func (db *DB) ListAccountStates(ctx context.Context) ([]*models.AccountState, error) {
	var states []*models.AccountState
	query := `SELECT * FROM account_state ORDER BY email`
	err := db.SelectContext(ctx, &states, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list account states: %w", err)
	}
	return states, nil
}

// SaveDailyAction records the time of the last daily action
func (db *DB) SaveDailyAction(ctx context.Context, email string, at time.Time) error {
	query := `
		INSERT INTO account_state (email, last_daily_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			last_daily_at = excluded.last_daily_at,
			updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query, email, at.UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save daily action: %w", err)
	}
	return nil
}

// SavePing records a successful ping
func (db *DB) SavePing(ctx context.Context, email string, at time.Time) error {
	query := `
		INSERT INTO account_state (email, last_ping_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			last_ping_at = excluded.last_ping_at,
			updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query, email, at.UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save ping: %w", err)
	}
	return nil
}

// SaveMiningCycle records the mining estimate of a ping cycle.
// A nil balance keeps the previously stored one.
func (db *DB) SaveMiningCycle(ctx context.Context, email string, cycle models.MiningCycle) error {
	query := `
		INSERT INTO account_state (email, last_balance, last_mining_points, last_elapsed_hours, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			last_balance = COALESCE(excluded.last_balance, account_state.last_balance),
			last_mining_points = excluded.last_mining_points,
			last_elapsed_hours = excluded.last_elapsed_hours,
			updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query, email, cycle.Balance, cycle.Points, cycle.ElapsedHours, cycle.At.UTC())
	if err != nil {
		return fmt.Errorf("failed to save mining cycle: %w", err)
	}
	return nil
}

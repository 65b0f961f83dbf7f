package models

import "time"

// Account represents one line of the accounts file
type Account struct {
	Number      int    // 1-based position in the accounts file
	Email       string
	Token       string // Bearer token
	ExtensionID string
	Proxy       string // optional, used only when proxy mode is on
}

// AccountState is the persisted per-account scheduler state
type AccountState struct {
	Email            string     `db:"email"`
	LastDailyAt      *time.Time `db:"last_daily_at"`
	LastPingAt       *time.Time `db:"last_ping_at"`
	LastBalance      *float64   `db:"last_balance"`
	LastMiningPoints float64    `db:"last_mining_points"`
	LastElapsedHours float64    `db:"last_elapsed_hours"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// Activity is a single remote operation outcome
type Activity struct {
	ID        int64     `db:"id"`
	Email     string    `db:"email"`
	Action    string    `db:"action"` // checkin, claim_task, ping, mining, finalize, balance
	Status    string    `db:"status"` // ok, failed
	Detail    string    `db:"detail"`
	CreatedAt time.Time `db:"created_at"`
}

const (
	ActivityOK     = "ok"
	ActivityFailed = "failed"
)

package database

// migrations are applied in order; the schema version is the count applied.
// Never edit a released entry, append a new one.
var migrations = []string{
	// 1: scheduler state and activity log
	`
CREATE TABLE IF NOT EXISTS account_state (
    email TEXT PRIMARY KEY,
    last_daily_at DATETIME,
    last_ping_at DATETIME,
    last_balance REAL,
    last_mining_points REAL NOT NULL DEFAULT 0,
    last_elapsed_hours REAL NOT NULL DEFAULT 0,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS activity_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL,
    action TEXT NOT NULL,
    status TEXT NOT NULL,
    detail TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_activity_email ON activity_log(email);
CREATE INDEX IF NOT EXISTS idx_activity_created ON activity_log(created_at);
`,
	// 2: /status reads the newest entries per account
	`
DROP INDEX IF EXISTS idx_activity_email;
CREATE INDEX IF NOT EXISTS idx_activity_email_created ON activity_log(email, created_at DESC, id DESC);
`,
}

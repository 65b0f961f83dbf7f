package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mixelka/zeronode/internal/formatter"
	"github.com/mixelka/zeronode/pkg/models"
)

// Store is the part of the database the report reads and prunes
type Store interface {
	ListAccountStates(ctx context.Context) ([]*models.AccountState, error)
	PruneActivity(ctx context.Context, before time.Time) (int64, error)
}

// Notifier receives the formatted summary
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Reporter periodically summarizes account state and prunes the activity log
type Reporter struct {
	cron      *cron.Cron
	schedule  string
	store     Store
	notifier  Notifier // optional
	formatter *formatter.TelegramFormatter
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// Deps dependencies for creating a reporter
type Deps struct {
	Schedule  string
	Store     Store
	Notifier  Notifier
	Formatter *formatter.TelegramFormatter
	Retention time.Duration
	Logger    *slog.Logger
}

// New creates a reporter. The schedule is validated when Start is called.
func New(deps Deps) *Reporter {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "report")

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))

	r := &Reporter{
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger))),
		schedule:  deps.Schedule,
		store:     deps.Store,
		notifier:  deps.Notifier,
		formatter: deps.Formatter,
		retention: deps.Retention,
		logger:    logger,
		now:       time.Now,
	}
	if r.formatter == nil {
		r.formatter = formatter.NewTelegramFormatter()
	}
	return r
}

// Start schedules the report job. Jobs run with ctx until Stop.
func (r *Reporter) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(r.schedule, func() {
		r.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid report schedule %q: %w", r.schedule, err)
	}

	r.cron.Start()
	r.logger.Info("report scheduled", "schedule", r.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running job
func (r *Reporter) Stop() {
	<-r.cron.Stop().Done()
}

// RunOnce logs and sends the summary, then prunes old activity
func (r *Reporter) RunOnce(ctx context.Context) {
	now := r.now()

	states, err := r.store.ListAccountStates(ctx)
	if err != nil {
		r.logger.Error("failed to load account states", "error", err)
	} else {
		for _, s := range states {
			r.logger.Info("account summary",
				"email", s.Email,
				"balance", formatter.FormatBalance(s.LastBalance),
				"mining_points", s.LastMiningPoints,
				"elapsed_hours", s.LastElapsedHours,
				"last_daily", formatter.FormatAgo(s.LastDailyAt, now),
				"last_ping", formatter.FormatAgo(s.LastPingAt, now),
			)
		}

		if r.notifier != nil && len(states) > 0 {
			r.notifier.Notify(ctx, r.formatter.FormatStatus(states, nil, now))
		}
	}

	if r.retention <= 0 {
		return
	}

	pruned, err := r.store.PruneActivity(ctx, now.Add(-r.retention))
	if err != nil {
		r.logger.Error("failed to prune activity log", "error", err)
		return
	}
	if pruned > 0 {
		r.logger.Info("pruned activity log", "rows", pruned)
	}
}

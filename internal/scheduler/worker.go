package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mixelka/zeronode/internal/database"
	"github.com/mixelka/zeronode/internal/formatter"
	"github.com/mixelka/zeronode/internal/kaisar"
	"github.com/mixelka/zeronode/internal/mining"
	"github.com/mixelka/zeronode/pkg/models"
)

// Activity actions
const (
	ActionCheckIn   = "checkin"
	ActionTasks     = "tasks"
	ActionClaimTask = "claim_task"
	ActionPing      = "ping"
	ActionMining    = "mining"
	ActionFinalize  = "finalize"
	ActionBalance   = "balance"
)

// API is the remote service as seen by one account
type API interface {
	CheckIn(ctx context.Context) (*models.CheckIn, error)
	MissionTasks(ctx context.Context) ([]models.MissionTask, error)
	ClaimTask(ctx context.Context, taskID string) error
	Ping(ctx context.Context) error
	CurrentMining(ctx context.Context) (*models.MiningSnapshot, error)
	ClaimMining(ctx context.Context) error
	Balance(ctx context.Context) (float64, error)
}

// Store persists scheduler state. Failures are logged, never fatal.
type Store interface {
	GetAccountState(ctx context.Context, email string) (*models.AccountState, error)
	SaveDailyAction(ctx context.Context, email string, at time.Time) error
	SavePing(ctx context.Context, email string, at time.Time) error
	SaveMiningCycle(ctx context.Context, email string, cycle models.MiningCycle) error
	RecordActivity(ctx context.Context, activity *models.Activity) error
}

// Notifier receives human readable event messages
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Options configures account workers
type Options struct {
	PingInterval     time.Duration
	DailyInterval    time.Duration
	MiningRetries    int
	MiningRetryDelay time.Duration
	UseProxy         bool

	Clock    Clock    // defaults to RealClock
	Store    Store    // optional
	Notifier Notifier // optional
	Logger   *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.PingInterval <= 0 {
		o.PingInterval = time.Minute
	}
	if o.DailyInterval <= 0 {
		o.DailyInterval = 24 * time.Hour
	}
	if o.MiningRetries < 0 {
		o.MiningRetries = 0
	}
	if o.Clock == nil {
		o.Clock = RealClock{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// State is the mutable state owned by one account loop
type State struct {
	LastDaily time.Time // zero until the first daily action
}

// DailyDue reports whether the daily action should run at now
func (s *State) DailyDue(now time.Time, interval time.Duration) bool {
	return s.LastDaily.IsZero() || now.Sub(s.LastDaily) >= interval
}

// Worker runs the loop of a single account
type Worker struct {
	account   models.Account
	api       API
	opts      Options
	state     *State
	logger    *slog.Logger
	formatter *formatter.TelegramFormatter
}

// NewWorker creates a worker for account
func NewWorker(account models.Account, api API, opts Options) *Worker {
	opts = opts.withDefaults()
	return &Worker{
		account:   account,
		api:       api,
		opts:      opts,
		state:     &State{},
		logger:    opts.Logger.With("account", account.Number, "email", account.Email),
		formatter: formatter.NewTelegramFormatter(),
	}
}

// State returns the worker's state
func (w *Worker) State() *State {
	return w.state
}

// DailyDue reports whether the next Tick at now runs the daily action
func (w *Worker) DailyDue(now time.Time) bool {
	return w.state.DailyDue(now, w.opts.DailyInterval)
}

// Restore seeds the state from the store so a restart does not repeat the daily action
func (w *Worker) Restore(ctx context.Context) {
	if w.opts.Store == nil {
		return
	}

	st, err := w.opts.Store.GetAccountState(ctx, w.account.Email)
	if errors.Is(err, database.ErrNotFound) {
		return
	}
	if err != nil {
		w.logger.Warn("failed to restore account state", "error", err)
		return
	}

	if st.LastDailyAt != nil {
		w.state.LastDaily = *st.LastDailyAt
		w.logger.Info("restored last daily action", "at", st.LastDailyAt.Local().Format(time.DateTime))
	}
}

// Run loops until ctx is cancelled
func (w *Worker) Run(ctx context.Context) {
	for ctx.Err() == nil {
		w.Tick(ctx)

		w.logger.Info("pinging again later", "in", w.opts.PingInterval)
		if err := w.opts.Clock.Sleep(ctx, w.opts.PingInterval); err != nil {
			break
		}
	}
	w.logger.Info("account loop stopped")
}

// Tick runs one iteration: the daily action when due, then a ping cycle
func (w *Worker) Tick(ctx context.Context) {
	now := w.opts.Clock.Now()

	if w.DailyDue(now) {
		res := w.runDaily(ctx)

		// Re-armed regardless of outcome, the next attempt is one window later
		w.state.LastDaily = now
		if w.opts.Store != nil {
			if err := w.opts.Store.SaveDailyAction(ctx, w.account.Email, now); err != nil {
				w.logger.Warn("failed to save daily action", "error", err)
			}
		}

		w.notify(ctx, w.formatter.FormatDaily(w.account, res))
	}

	w.runPingCycle(ctx)
}

// runDaily performs the check-in and claims completed missions
func (w *Worker) runDaily(ctx context.Context) models.DailyResult {
	var res models.DailyResult

	checkIn, err := w.api.CheckIn(ctx)
	w.record(ctx, ActionCheckIn, err, "")
	if err != nil {
		w.logger.Error("daily login failed, probably already logged in today", "error", err)
	} else {
		res.CheckedIn = true
		if checkIn != nil {
			res.CheckInTime = checkIn.Time
			w.logger.Info("successful daily login", "time", checkIn.Time)
		}
	}

	tasks, err := w.api.MissionTasks(ctx)
	w.record(ctx, ActionTasks, err, "")
	if err != nil {
		w.logger.Error("unable to retrieve mission tasks", "error", err)
		return res
	}
	res.TasksFetched = true

	var active []string
	for _, task := range tasks {
		if task.Claimable() {
			active = append(active, task.ID)
		}
	}
	if len(active) == 0 {
		w.logger.Info("no tasks available to claim")
		return res
	}
	w.logger.Info("active tasks found", "ids", active)

	for _, id := range active {
		err := w.api.ClaimTask(ctx, id)
		w.record(ctx, ActionClaimTask, err, id)
		if err != nil {
			w.logger.Error("failed to claim task", "task_id", id, "error", err)
			res.FailedClaims = append(res.FailedClaims, id)
			continue
		}
		w.logger.Info("claimed rewards from task", "task_id", id)
		res.Claimed = append(res.Claimed, id)
	}

	return res
}

// runPingCycle pings, then checks and reports mining. A failed ping ends the cycle.
func (w *Worker) runPingCycle(ctx context.Context) {
	if w.opts.UseProxy && w.account.Proxy != "" {
		w.logger.Info("attempting to ping", "proxy", kaisar.DisplayProxy(w.account.Proxy))
	} else {
		w.logger.Info("attempting to ping without proxy")
	}

	err := w.api.Ping(ctx)
	w.record(ctx, ActionPing, err, "")
	if err != nil {
		w.logger.Error("ping failed", "error", err)
		return
	}
	w.logger.Info("ping was successful")
	if w.opts.Store != nil {
		if err := w.opts.Store.SavePing(ctx, w.account.Email, w.opts.Clock.Now()); err != nil {
			w.logger.Warn("failed to save ping", "error", err)
		}
	}

	snap, err := w.fetchMining(ctx)
	w.record(ctx, ActionMining, err, "")
	if err != nil {
		w.logger.Error("giving up on mining data for this cycle", "error", err)
		return
	}
	if snap == nil {
		w.logger.Info("no active mining session")
		return
	}

	stats := mining.Estimate(snap, w.opts.Clock.Now())

	if snap.IsEnded() {
		w.logger.Info("mining concluded, claiming mining points")
		err := w.api.ClaimMining(ctx)
		w.record(ctx, ActionFinalize, err, "")
		if err != nil {
			w.logger.Error("failed to claim mining points", "error", err)
		} else {
			w.notify(ctx, w.formatter.FormatMiningClaimed(w.account, stats.Points))
		}
	}

	cycle := models.MiningCycle{
		Points:       stats.Points,
		ElapsedHours: stats.ElapsedHours,
		At:           w.opts.Clock.Now(),
	}

	w.logger.Info("checking account balance")
	balance, err := w.api.Balance(ctx)
	w.record(ctx, ActionBalance, err, "")
	if err != nil {
		w.logger.Error("unable to check balance", "error", err)
	} else {
		cycle.Balance = &balance
	}

	w.logger.Info("mining status",
		"total_points", formatter.FormatBalance(cycle.Balance),
		"mining_points", stats.Points,
		"elapsed_hours", stats.ElapsedHours,
	)

	if w.opts.Store != nil {
		if err := w.opts.Store.SaveMiningCycle(ctx, w.account.Email, cycle); err != nil {
			w.logger.Warn("failed to save mining cycle", "error", err)
		}
	}
}

// fetchMining gets the mining snapshot with the bounded retry
func (w *Worker) fetchMining(ctx context.Context) (*models.MiningSnapshot, error) {
	return retry(ctx, w.opts.Clock, w.opts.MiningRetries, w.opts.MiningRetryDelay,
		w.api.CurrentMining,
		func(left int, err error) {
			w.logger.Warn("unable to retrieve mining data, retrying", "error", err, "retries_left", left)
		},
	)
}

func (w *Worker) record(ctx context.Context, action string, err error, detail string) {
	if w.opts.Store == nil {
		return
	}

	activity := &models.Activity{
		Email:     w.account.Email,
		Action:    action,
		Status:    models.ActivityOK,
		Detail:    detail,
		CreatedAt: w.opts.Clock.Now(),
	}
	if err != nil {
		activity.Status = models.ActivityFailed
		if detail != "" {
			activity.Detail = detail + ": " + err.Error()
		} else {
			activity.Detail = err.Error()
		}
	}

	if err := w.opts.Store.RecordActivity(ctx, activity); err != nil {
		w.logger.Warn("failed to record activity", "action", action, "error", err)
	}
}

func (w *Worker) notify(ctx context.Context, text string) {
	if w.opts.Notifier == nil {
		return
	}
	w.opts.Notifier.Notify(ctx, text)
}

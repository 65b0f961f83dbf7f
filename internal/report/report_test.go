package report

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mixelka/zeronode/internal/database"
	"github.com/mixelka/zeronode/pkg/models"
)

type recordingNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (n *recordingNotifier) Notify(ctx context.Context, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.texts)
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "report.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnce(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := db.SaveDailyAction(ctx, "a@x.com", now.Add(-time.Hour)); err != nil {
		t.Fatalf("SaveDailyAction failed: %v", err)
	}

	old := &models.Activity{Email: "a@x.com", Action: "ping", Status: models.ActivityOK, CreatedAt: now.Add(-10 * 24 * time.Hour)}
	fresh := &models.Activity{Email: "a@x.com", Action: "ping", Status: models.ActivityOK, CreatedAt: now.Add(-time.Hour)}
	for _, a := range []*models.Activity{old, fresh} {
		if err := db.RecordActivity(ctx, a); err != nil {
			t.Fatalf("RecordActivity failed: %v", err)
		}
	}

	notifier := &recordingNotifier{}
	r := New(Deps{
		Schedule:  "@every 1h",
		Store:     db,
		Notifier:  notifier,
		Retention: 7 * 24 * time.Hour,
		Logger:    discardLogger(),
	})
	r.now = func() time.Time { return now }

	r.RunOnce(ctx)

	if notifier.count() != 1 {
		t.Fatalf("Expected 1 summary, got %d", notifier.count())
	}
	if !strings.Contains(notifier.texts[0], "a@x.com") {
		t.Errorf("Summary missing account: %q", notifier.texts[0])
	}

	left, err := db.ListRecentActivity(ctx, "a@x.com", 10)
	if err != nil {
		t.Fatalf("ListRecentActivity failed: %v", err)
	}
	if len(left) != 1 || left[0].ID != fresh.ID {
		t.Errorf("Expected only the fresh activity to survive, got %d rows", len(left))
	}
}

func TestRunOnceWithoutStates(t *testing.T) {
	db := openTestDB(t)
	notifier := &recordingNotifier{}

	r := New(Deps{Schedule: "@every 1h", Store: db, Notifier: notifier, Logger: discardLogger()})
	r.RunOnce(context.Background())

	if notifier.count() != 0 {
		t.Errorf("Expected no summary for empty state table, got %d", notifier.count())
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	r := New(Deps{Schedule: "not a schedule", Store: openTestDB(t), Logger: discardLogger()})
	if err := r.Start(context.Background()); err == nil {
		r.Stop()
		t.Fatal("Expected error for invalid schedule")
	}
}

func TestStartStop(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	if err := db.SaveDailyAction(ctx, "a@x.com", time.Now()); err != nil {
		t.Fatalf("SaveDailyAction failed: %v", err)
	}

	notifier := &recordingNotifier{}
	r := New(Deps{Schedule: "@every 1s", Store: db, Notifier: notifier, Logger: discardLogger()})
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for notifier.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	r.Stop()

	if notifier.count() == 0 {
		t.Fatal("Expected the scheduled job to run at least once")
	}
}

package telegram

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	appmodels "github.com/mixelka/zeronode/pkg/models"
)

const testChatID = 42

type sentMessage struct {
	ChatID int64
	Text   string
}

// fakeTelegram records sendMessage calls
type fakeTelegram struct {
	mu   sync.Mutex
	sent []sentMessage
	fail int // number of sendMessage calls to reject
}

func (f *fakeTelegram) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			w.Write([]byte(`{"ok":true,"result":true}`))
			return
		}

		var msg sentMessage
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			var body struct {
				ChatID int64  `json:"chat_id"`
				Text   string `json:"text"`
			}
			data, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(data, &body); err != nil {
				t.Errorf("bad json body: %v", err)
			}
			msg = sentMessage{ChatID: body.ChatID, Text: body.Text}
		} else {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("bad form body: %v", err)
			}
			id, _ := strconv.ParseInt(r.FormValue("chat_id"), 10, 64)
			msg = sentMessage{ChatID: id, Text: r.FormValue("text")}
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.fail > 0 {
			f.fail--
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"ok":false,"error_code":500,"description":"Internal Server Error"}`))
			return
		}
		f.sent = append(f.sent, msg)
		w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":` +
			strconv.FormatInt(msg.ChatID, 10) + `,"type":"private"}}}`))
	}
}

func (f *fakeTelegram) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type fakeStates struct {
	states   []*appmodels.AccountState
	err      error
	activity map[string][]*appmodels.Activity
	limits   []int
}

func (f *fakeStates) ListAccountStates(ctx context.Context) ([]*appmodels.AccountState, error) {
	return f.states, f.err
}

func (f *fakeStates) ListRecentActivity(ctx context.Context, email string, limit int) ([]*appmodels.Activity, error) {
	f.limits = append(f.limits, limit)
	return f.activity[email], nil
}

func newTestBot(t *testing.T, states StateLister) (*Bot, *fakeTelegram) {
	t.Helper()

	fake := &fakeTelegram{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	b, err := NewBot(BotDeps{
		Token:  "123456:TEST",
		ChatID: testChatID,
		States: states,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Options: []bot.Option{
			bot.WithServerURL(srv.URL),
			bot.WithSkipGetMe(),
		},
	})
	if err != nil {
		t.Fatalf("NewBot: %v", err)
	}
	b.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return b, fake
}

func textUpdate(chatID int64, text string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			ID:   1,
			Chat: models.Chat{ID: chatID},
			Text: text,
		},
	}
}

func TestNotify(t *testing.T) {
	b, fake := newTestBot(t, &fakeStates{})

	b.Notify(context.Background(), "<b>hello</b>")

	got := fake.messages()
	if len(got) != 1 {
		t.Fatalf("sent %d messages, want 1", len(got))
	}
	if got[0].ChatID != testChatID || got[0].Text != "<b>hello</b>" {
		t.Errorf("sent %+v", got[0])
	}
}

func TestNotifyRetriesOnce(t *testing.T) {
	b, fake := newTestBot(t, &fakeStates{})
	fake.fail = 1

	b.Notify(context.Background(), "retry me")

	if got := fake.messages(); len(got) != 1 {
		t.Fatalf("sent %d messages, want 1 after retry", len(got))
	}
}

func TestNotifyCancelled(t *testing.T) {
	b, fake := newTestBot(t, &fakeStates{})
	fake.fail = 10

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		b.Notify(ctx, "never")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Notify did not return after cancel")
	}
	if got := fake.messages(); len(got) != 0 {
		t.Errorf("sent %d messages, want 0", len(got))
	}
}

func TestHandleStatus(t *testing.T) {
	balance := 1234.5
	states := &fakeStates{
		states: []*appmodels.AccountState{
			{Email: "a@x.com", LastBalance: &balance},
		},
		activity: map[string][]*appmodels.Activity{
			"a@x.com": {{Email: "a@x.com", Action: "ping", Status: appmodels.ActivityOK, CreatedAt: time.Date(2024, 5, 1, 11, 55, 0, 0, time.UTC)}},
		},
	}
	b, fake := newTestBot(t, states)

	b.handleStatus(context.Background(), b.bot, textUpdate(testChatID, "/status"))

	got := fake.messages()
	if len(got) != 1 {
		t.Fatalf("sent %d messages, want 1", len(got))
	}
	if !strings.Contains(got[0].Text, "a@x.com") {
		t.Errorf("status text missing account: %q", got[0].Text)
	}
	if !strings.Contains(got[0].Text, "ping ok, 5m0s ago") {
		t.Errorf("status text missing recent activity: %q", got[0].Text)
	}
	if len(states.limits) != 1 || states.limits[0] != recentActivityLimit {
		t.Errorf("recent activity limits = %v, want [%d]", states.limits, recentActivityLimit)
	}
}

func TestHandleStatusIgnoresForeignChat(t *testing.T) {
	b, fake := newTestBot(t, &fakeStates{})

	b.handleStatus(context.Background(), b.bot, textUpdate(7, "/status"))
	b.handleHelp(context.Background(), b.bot, textUpdate(7, "/help"))

	if got := fake.messages(); len(got) != 0 {
		t.Errorf("sent %d messages to foreign chat, want 0", len(got))
	}
}

func TestHandleHelp(t *testing.T) {
	b, fake := newTestBot(t, &fakeStates{})

	b.handleHelp(context.Background(), b.bot, textUpdate(testChatID, "/start"))

	got := fake.messages()
	if len(got) != 1 || !strings.Contains(got[0].Text, "/status") {
		t.Errorf("help messages = %+v", got)
	}
}

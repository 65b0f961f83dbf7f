package telegram

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/mixelka/zeronode/internal/formatter"
	appmodels "github.com/mixelka/zeronode/pkg/models"
)

// recentActivityLimit is the number of activity entries shown per account in /status
const recentActivityLimit = 3

// StateLister provides the account state table and activity log for /status
type StateLister interface {
	ListAccountStates(ctx context.Context) ([]*appmodels.AccountState, error)
	ListRecentActivity(ctx context.Context, email string, limit int) ([]*appmodels.Activity, error)
}

// Bot sends notifications to one chat and answers status commands there
type Bot struct {
	bot       *bot.Bot
	chatID    int64
	states    StateLister
	formatter *formatter.TelegramFormatter
	logger    *slog.Logger
	now       func() time.Time
}

// BotDeps dependencies for creating a bot
type BotDeps struct {
	Token     string
	ChatID    int64
	States    StateLister
	Formatter *formatter.TelegramFormatter
	Logger    *slog.Logger
	// Options are passed to the underlying client, tests use them to point it at a fake server
	Options []bot.Option
}

// NewBot creates a new Telegram bot
func NewBot(deps BotDeps) (*Bot, error) {
	b := &Bot{
		chatID:    deps.ChatID,
		states:    deps.States,
		formatter: deps.Formatter,
		logger:    deps.Logger.With("component", "telegram_bot"),
		now:       time.Now,
	}
	if b.formatter == nil {
		b.formatter = formatter.NewTelegramFormatter()
	}

	opts := append([]bot.Option{
		bot.WithDefaultHandler(b.defaultHandler),
	}, deps.Options...)

	tgBot, err := bot.New(deps.Token, opts...)
	if err != nil {
		return nil, err
	}

	b.bot = tgBot
	b.registerHandlers()

	return b, nil
}

// registerHandlers registers command handlers
func (b *Bot) registerHandlers() {
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypePrefix, b.handleStatus)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, b.handleHelp)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, b.handleHelp)
}

// Start polls for updates until ctx is done
func (b *Bot) Start(ctx context.Context) {
	b.logger.Info("starting telegram bot")
	b.bot.Start(ctx)
}

// Notify sends text to the configured chat. Failures are logged only.
func (b *Bot) Notify(ctx context.Context, text string) {
	const maxAttempts = 3

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		_, err := b.sendMessage(ctx, b.chatID, text)
		if err == nil {
			return
		}

		if attempt == maxAttempts || ctx.Err() != nil {
			b.logger.Error("failed to send telegram message", "attempts", attempt, "error", err)
			return
		}

		b.logger.Warn("failed to send telegram message, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
}

// defaultHandler handles unknown messages
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	if update.Message.Text != "" && update.Message.Text[0] == '/' {
		b.logger.Debug("unknown command", "text", update.Message.Text)
	}
}

// handleHelp handles /start and /help
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	msg := update.Message
	if !b.allowed(msg) {
		return
	}

	text := `<b>ZeroNode Bot</b>

Daily check-in, mission claims and mining pings for every configured account.

<b>Commands:</b>
/status - balance, mining points and last actions per account`

	if _, err := b.sendMessage(ctx, msg.Chat.ID, text); err != nil {
		b.logger.Warn("failed to send help", "error", err)
	}
}

// handleStatus handles /status
func (b *Bot) handleStatus(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	msg := update.Message
	if !b.allowed(msg) {
		return
	}

	states, err := b.states.ListAccountStates(ctx)
	if err != nil {
		b.logger.Error("failed to list account states", "error", err)
		b.sendMessage(ctx, msg.Chat.ID, "Failed to load account status")
		return
	}

	recent := make(map[string][]*appmodels.Activity, len(states))
	for _, s := range states {
		entries, err := b.states.ListRecentActivity(ctx, s.Email, recentActivityLimit)
		if err != nil {
			b.logger.Warn("failed to list recent activity", "email", s.Email, "error", err)
			continue
		}
		recent[s.Email] = entries
	}

	if _, err := b.sendMessage(ctx, msg.Chat.ID, b.formatter.FormatStatus(states, recent, b.now())); err != nil {
		b.logger.Warn("failed to send status", "error", err)
	}
}

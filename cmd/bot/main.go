package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/mixelka/zeronode/internal/accounts"
	"github.com/mixelka/zeronode/internal/config"
	"github.com/mixelka/zeronode/internal/console"
	"github.com/mixelka/zeronode/internal/database"
	"github.com/mixelka/zeronode/internal/formatter"
	"github.com/mixelka/zeronode/internal/kaisar"
	"github.com/mixelka/zeronode/internal/report"
	"github.com/mixelka/zeronode/internal/scheduler"
	"github.com/mixelka/zeronode/internal/telegram"
	"github.com/mixelka/zeronode/pkg/models"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	color := useColor()

	// Setup logger
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat, color)
	slog.SetDefault(logger)

	console.Banner(colorable.NewColorableStdout(), color)

	// Proxy choice
	useProxy, err := resolveProxyMode(cfg.ProxyMode)
	if err != nil {
		logger.Error("failed to read proxy choice", "error", err)
		os.Exit(1)
	}
	logger.Info("proxy mode", "enabled", useProxy)

	// Load accounts
	accountList, err := accounts.Load(cfg.AccountsFile)
	if errors.Is(err, accounts.ErrNoAccounts) {
		logger.Error("no accounts found in accounts file", "path", cfg.AccountsFile)
		os.Exit(1)
	}
	if err != nil {
		logger.Error("failed to load accounts", "error", err)
		os.Exit(1)
	}
	logger.Info("accounts loaded", "count", len(accountList))

	// Connect to database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Run migrations
	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations completed")

	tgFormatter := formatter.NewTelegramFormatter()

	opts := scheduler.Options{
		PingInterval:     cfg.PingInterval,
		DailyInterval:    cfg.DailyInterval,
		MiningRetries:    cfg.MiningRetries,
		MiningRetryDelay: cfg.MiningRetryDelay,
		UseProxy:         useProxy,
		Store:            db,
		Logger:           logger,
	}

	// Create bot (optional)
	var notifier report.Notifier
	if cfg.TelegramEnabled() {
		bot, err := telegram.NewBot(telegram.BotDeps{
			Token:     cfg.TelegramToken,
			ChatID:    cfg.TelegramChatID,
			States:    db,
			Formatter: tgFormatter,
			Logger:    logger,
		})
		if err != nil {
			logger.Error("failed to create bot", "error", err)
			os.Exit(1)
		}
		opts.Notifier = bot
		notifier = bot
		go bot.Start(ctx)
		logger.Info("telegram notifications enabled", "chat_id", cfg.TelegramChatID)
	}

	manager := scheduler.NewManager(opts, func(account models.Account) (scheduler.API, error) {
		proxyURL := ""
		if useProxy {
			proxyURL = account.Proxy
		}
		return kaisar.NewClient(kaisar.Config{
			BaseURL:     cfg.BaseURL,
			Token:       account.Token,
			Email:       account.Email,
			ExtensionID: account.ExtensionID,
			Proxy:       proxyURL,
			Timeout:     cfg.RequestTimeout,
		})
	})

	if started := manager.StartAll(ctx, accountList); started == 0 {
		logger.Error("no account loop could be started")
		os.Exit(1)
	}

	reporter := report.New(report.Deps{
		Schedule:  cfg.ReportSchedule,
		Store:     db,
		Notifier:  notifier,
		Formatter: tgFormatter,
		Retention: cfg.ActivityRetention,
		Logger:    logger,
	})
	if err := reporter.Start(ctx); err != nil {
		logger.Error("failed to start report", "error", err)
		manager.StopAll()
		os.Exit(1)
	}

	logger.Info("bot is running, press Ctrl+C to stop")
	<-ctx.Done()

	logger.Info("received shutdown signal, shutting down...")
	reporter.Stop()
	manager.StopAll()

	logger.Info("bot stopped")
}

// resolveProxyMode asks on the terminal unless the mode is fixed by config
func resolveProxyMode(mode string) (bool, error) {
	switch mode {
	case config.ProxyOn:
		return true, nil
	case config.ProxyOff:
		return false, nil
	default:
		return console.AskYesNo(os.Stdin, os.Stdout, "Would you like to use a proxy?")
	}
}

// useColor reports whether stdout is a terminal and NO_COLOR is unset
func useColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func setupLogger(level, format string, color bool) *slog.Logger {
	var handler slog.Handler
	logLevel := parseLevel(level)

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		// Pretty colored output for console
		var w io.Writer = os.Stdout
		if color {
			w = colorable.NewColorableStdout()
		}
		handler = tint.NewHandler(w, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.DateTime,
			NoColor:    !color,
		})
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/robfig/cron/v3"

	"github.com/harrisonrobin/taskbot/pkg/commands"
	"github.com/harrisonrobin/taskbot/pkg/config"
	"github.com/harrisonrobin/taskbot/pkg/remind"
	"github.com/harrisonrobin/taskbot/pkg/sheets"
	"github.com/harrisonrobin/taskbot/pkg/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	setupLogging(cfg)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("timezone: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sheets.New(ctx, sheets.Options{
		SpreadsheetID:   cfg.SpreadsheetID,
		CredentialsFile: cfg.CredentialsFile,
		TasksSheet:      cfg.TasksSheet,
		ThreadsSheet:    cfg.ThreadsSheet,
		RemindersSheet:  cfg.RemindersSheet,
	})
	if err != nil {
		log.Fatalf("sheets: %v", err)
	}

	// The router is bound after the transport exists; the API client only
	// starts consuming updates at api.Start below.
	var router *commands.Router
	api, err := tgbot.New(cfg.TelegramToken, tgbot.WithDefaultHandler(
		func(ctx context.Context, b *tgbot.Bot, upd *models.Update) {
			router.Handle(ctx, b, upd)
		}))
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}

	transport := telegram.New(api, cfg.ChatID, store)
	reminders := remind.New(store, transport, loc)
	handlers := commands.New(store, transport, reminders, loc, cfg.SummaryLabel)
	router = handlers.Router()

	// One mutex across all scheduled jobs: the daily digest and the reminder
	// poll must never overlap, the lifecycle manager holds no locks itself.
	var tick sync.Mutex
	serialize := func(job func(context.Context)) func() {
		return func() {
			tick.Lock()
			defer tick.Unlock()
			job(ctx)
		}
	}

	sched := cron.New(cron.WithLocation(loc))
	if err := addDailyJob(sched, cfg.DailySummaryAt, serialize(handlers.DailySummary)); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	if err := addDailyJob(sched, cfg.OverdueReportAt, serialize(handlers.OverdueReport)); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	if _, err := sched.AddFunc("* * * * *", serialize(handlers.ReminderTick)); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	slog.Info("starting bot in long polling mode", "chat_id", cfg.ChatID, "tz", cfg.Timezone)
	api.Start(ctx)
	slog.Info("bot stopped")
}

func addDailyJob(sched *cron.Cron, hhmm string, job func()) error {
	hour, minute, err := config.ParseHHMM(hhmm)
	if err != nil {
		return err
	}
	_, err = sched.AddFunc(fmt.Sprintf("%d %d * * *", minute, hour), job)
	return err
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogJSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

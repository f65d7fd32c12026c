package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/luct-reporting/luct-bot/internal/apiclient"
	"github.com/luct-reporting/luct-bot/internal/app"
	"github.com/luct-reporting/luct-bot/internal/bot/handlers"
	"github.com/luct-reporting/luct-bot/internal/config"
	"github.com/luct-reporting/luct-bot/internal/db"
	"github.com/luct-reporting/luct-bot/internal/jobs"
	"github.com/luct-reporting/luct-bot/internal/logging"
	"github.com/luct-reporting/luct-bot/internal/observability"
	"github.com/luct-reporting/luct-bot/internal/session"
)

var release = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Closer()
	logger := lg.Base

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, release)
	if err != nil {
		logger.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("session store", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	httpClient := &http.Client{Timeout: cfg.APITimeout}
	newClient := func(tokens apiclient.TokenSource) *apiclient.Client {
		return apiclient.New(cfg.APIURL, cfg.AuthHeader, httpClient, tokens)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatal("telegram", zap.Error(err))
	}
	bot.Debug = cfg.Env != "prod" && cfg.LogLevel == "debug"
	logger.Info("bot started", zap.String("username", bot.Self.UserName), zap.String("api", cfg.APIURL))

	h := handlers.New(bot, session.NewManager(store, logger), newClient, cfg.ExportDir, logger)
	defer h.Close()

	app.StartHTTP(ctx, cfg.HTTPAddr, store, logger)

	runner := jobs.New(ctx, logger)
	if err := runner.Cron(cfg.ExportCleanupSchedule, "export_cleanup", jobs.ExportCleanup(cfg.ExportDir, cfg.ExportTTL, logger)); err != nil {
		logger.Fatal("jobs", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		bot.StopReceivingUpdates()
	}()

	dispatcher := app.NewDispatcher(h, logger)
	dispatcher.Timeout = cfg.UpdateTimeout
	dispatcher.Run(ctx, updates)
	logger.Info("bot stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (db.CredentialStore, error) {
	if cfg.SessionStore == config.StoreBolt {
		return db.OpenBolt(cfg.BoltPath)
	}
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, database); err != nil {
		_ = database.Close()
		return nil, err
	}
	return db.NewPGStore(database), nil
}

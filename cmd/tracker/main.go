package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Trung051/chuyenhang/internal/api"
	"github.com/Trung051/chuyenhang/internal/config"
	"github.com/Trung051/chuyenhang/internal/domain/shipments"
	"github.com/Trung051/chuyenhang/internal/domain/suppliers"
	"github.com/Trung051/chuyenhang/internal/domain/users"
	"github.com/Trung051/chuyenhang/internal/export"
	"github.com/Trung051/chuyenhang/internal/infra/db"
	httpx "github.com/Trung051/chuyenhang/internal/infra/http"
	"github.com/Trung051/chuyenhang/internal/infra/logger"
	"github.com/Trung051/chuyenhang/internal/notify"
	"github.com/Trung051/chuyenhang/internal/tracking"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/subosito/gotenv"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

// bootstrapAdmin заводит стартового админа, пока таблица users пуста.
func bootstrapAdmin(ctx context.Context, repo *users.Repo, cfg config.Config, log *slog.Logger) error {
	n, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 || cfg.Auth.AdminUser == "" {
		return nil
	}
	hash, err := users.HashPassword(cfg.Auth.AdminPassword)
	if err != nil {
		return err
	}
	if _, err := repo.Set(ctx, cfg.Auth.AdminUser, hash, true); err != nil {
		return err
	}
	log.Info("bootstrap admin created", "username", cfg.Auth.AdminUser)
	return nil
}

func main() {
	_ = gotenv.Load()

	path := os.Getenv("APP_CONFIG")
	if path == "" {
		path = "config/example.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := runMigrations(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	store := shipments.NewPG(pool)
	supRepo := suppliers.NewRepo(pool)
	userRepo := users.NewRepo(pool)

	if err := bootstrapAdmin(ctx, userRepo, cfg, log); err != nil {
		log.Error("bootstrap admin failed", "err", err)
		return
	}

	var notifier tracking.Notifier
	if cfg.Telegram.Token != "" {
		tg, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			log.Error("telegram init failed", "err", err)
			return
		}
		notifier = notify.NewTelegram(tg, store, cfg.Telegram.ChatID, log)
		log.Info("telegram notifier ready", "chat_id", cfg.Telegram.ChatID)
	} else {
		log.Warn("telegram token empty, notifications disabled")
	}

	svc := tracking.New(store, supRepo, notifier, log)
	pusher := export.NewSheetPusher(cfg.Sheets.Workbook, cfg.Sheets.Sheet)
	sessions := api.NewSessionStore(time.Duration(cfg.Auth.SessionTTLMin) * time.Minute)
	handler := api.NewHandler(svc, supRepo, userRepo, sessions, pusher, nil, log)

	srv := httpx.New(cfg.HTTP.Addr, handler.Router(log), cfg.Metrics.Enabled)
	go func() {
		if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}

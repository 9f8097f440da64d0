package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlekseyZapadovnikov/review-assigner/conf"
	"github.com/AlekseyZapadovnikov/review-assigner/internal/repository"
	"github.com/AlekseyZapadovnikov/review-assigner/internal/service"
	"github.com/AlekseyZapadovnikov/review-assigner/internal/store"
	"github.com/AlekseyZapadovnikov/review-assigner/internal/web"
)

const journalDrainTimeout = 10 * time.Second

// main конфигурирует сервис, поднимает хранилища, сервисы и HTTP-сервер, а затем управляет их жизненным циклом.
func main() {
	// Берём путь до конфигурации из окружения либо используем значение по умолчанию.
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "./conf/config.json"
	}

	config := conf.MustLoad(cfgPath)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.Log.SlogLevel()}))
	slog.SetDefault(logger)
	slog.Info("Configuration loaded successfully", "config_path", cfgPath, "storage", config.Storage.Driver)

	ctx := context.Background()
	teams := store.NewTeamRegistry()
	prs := store.NewPullRequestStore()

	// Без PostgreSQL состояние живёт только в памяти процесса.
	var journal service.Journal = service.NopJournal{}
	var cleanup func()
	if config.Storage.UsePostgres() {
		pgJournal, closeDB, err := setupPostgres(ctx, &config.DBConf, teams, prs)
		if err != nil {
			slog.Error("Database initialization failed", "error", err)
			os.Exit(1)
		}
		journal = pgJournal
		cleanup = closeDB
	}

	userManager := service.NewUserManager(teams, prs, journal, logger)
	prManager := service.NewPullRequestManager(teams, prs, journal, logger)

	// Поднимаем HTTP-сервер.
	server := web.New(config.HTTPServConf, prManager, userManager)
	slog.Info("HTTP server created successfully", "address", server.Address)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Review assigner service started successfully", "address", server.Address)

	// Ожидаем сигнал остановки для плавного завершения работы.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	exitCode := 0
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		exitCode = 1
	}
	if cleanup != nil {
		cleanup()
	}

	slog.Info("Server exited properly")
	os.Exit(exitCode)
}

// setupPostgres применяет миграции, восстанавливает состояние из базы и запускает журнал.
// Возвращённая функция дописывает журнал и закрывает пул.
func setupPostgres(ctx context.Context, cfg *conf.DbConf, teams *store.TeamRegistry, prs *store.PullRequestStore) (*repository.Journal, func(), error) {
	if err := repository.Migrate(ctx, cfg.DSN()); err != nil {
		return nil, nil, err
	}
	slog.Info("Migrations applied successfully")

	storage, err := repository.NewStorage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	snapshot, err := storage.LoadSnapshot(ctx)
	if err != nil {
		storage.Close()
		return nil, nil, err
	}
	if err := service.Restore(teams, prs, snapshot); err != nil {
		storage.Close()
		return nil, nil, err
	}
	slog.Info("State restored from database", "teams", len(snapshot.Teams), "pull_requests", len(snapshot.PullRequests))

	journal := repository.NewJournal(storage, slog.Default())
	go journal.Run(ctx)

	closeDB := func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), journalDrainTimeout)
		defer cancel()
		if err := journal.Close(drainCtx); err != nil {
			slog.Error("Journal was not drained", "pending", journal.Pending(), "error", err)
		}
		storage.Close()
	}
	return journal, closeDB, nil
}

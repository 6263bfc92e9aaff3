package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/arenalobby/internal/api"
	"github.com/vytor/arenalobby/internal/auth"
	"github.com/vytor/arenalobby/internal/config"
	"github.com/vytor/arenalobby/internal/db"
	"github.com/vytor/arenalobby/internal/lobby"
	"github.com/vytor/arenalobby/internal/logger"
	"github.com/vytor/arenalobby/internal/models"
	"github.com/vytor/arenalobby/internal/realtime"
	"github.com/vytor/arenalobby/internal/repository/sqlstore"
	"github.com/vytor/arenalobby/internal/services"
	"github.com/vytor/arenalobby/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	log.Info("===========================================")
	log.Info("Arena Lobby Server Starting")
	log.Info("===========================================")
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_driver=%s", cfg.DBDriver)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("session_ttl=%v", cfg.SessionTTL)
	log.Debug("reload_worker_count=%d", cfg.ReloadWorkerCount)
	log.Debug("reload_queue_size=%d", cfg.ReloadQueueSize)
	log.Debug("channel_buffer=%d", cfg.ChannelBuffer)
	log.Debug("session_sweep_interval=%v", cfg.SessionSweepInterval)

	ctx, cancel := context.WithCancel(logger.NewContext(context.Background(), log))
	defer cancel()

	database, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()
	if err := database.Migrate(ctx); err != nil {
		log.Error("failed to migrate database: %v", err)
		os.Exit(1)
	}

	broker := realtime.NewBroker(realtime.WithBuffer(cfg.ChannelBuffer))

	// Under postgres every write, including lobbyctl's, comes back through
	// LISTEN, so repositories must not publish a second time.
	var pub realtime.Publisher = broker
	if database.Dialect == db.Postgres {
		pub = realtime.Discard
		listener := realtime.NewPGListener(cfg.DBDSN, cfg.PGNotifyChannel, broker)
		go func() {
			if err := listener.Run(ctx); err != nil {
				log.Error("postgres listener stopped: %v", err)
			}
		}()
	}

	profileService := services.NewProfileService(sqlstore.NewProfileRepository(database, pub))
	lobbyServices := lobby.Services{
		Profiles:    profileService,
		Matches:     services.NewMatchService(sqlstore.NewMatchRepository(database, pub)),
		Chat:        services.NewChatService(sqlstore.NewChatRepository(database, pub)),
		Tournaments: services.NewTournamentService(sqlstore.NewTournamentRepository(database, pub)),
	}

	authService := auth.NewService(
		sqlstore.NewUserRepository(database),
		cfg.JWTSecret,
		cfg.SessionTTL,
		auth.WithBcryptCost(cfg.BcryptCost),
	)
	defer authService.Close()
	accountService := services.NewAccountService(authService, profileService)

	reloadPool := worker.NewPool(cfg.ReloadWorkerCount, cfg.ReloadQueueSize)
	reloadPool.Start(ctx)

	registry := lobby.NewRegistry(ctx, func(session models.SignedIn) *lobby.Controller {
		return lobby.NewController(session, lobbyServices, broker, reloadPool)
	})
	authService.OnChange(registry.OnSessionChange)
	if err := registry.StartSweeper(cfg.SessionSweepInterval); err != nil {
		log.Error("failed to start session sweeper: %v", err)
		os.Exit(1)
	}

	srv := api.NewServer(database, accountService, registry)
	httpServer := &http.Server{
		Addr:        cfg.Addr,
		Handler:     srv.Routes(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("releasing lobby sessions")
	registry.Close()
	cancel()
	broker.Close()

	log.Debug("stopping reload pool")
	reloadPool.Stop()

	log.Info("===========================================")
	log.Info("Arena Lobby Server Stopped")
	log.Info("===========================================")
}

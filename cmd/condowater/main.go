package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"condowater/infrastructure/audit"
	"condowater/infrastructure/backend"
	"condowater/infrastructure/cache"
	"condowater/infrastructure/config"
	httpserver "condowater/infrastructure/http"
	"condowater/infrastructure/metrics"
	"condowater/infrastructure/rbac"
	"condowater/infrastructure/session"
	"condowater/infrastructure/sqlite"
	"condowater/infrastructure/wizard"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	db, err := sqlite.OpenDB(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	// An empty MigrationsDir applies the migrations embedded in the binary.
	if err := sqlite.ApplyMigrations(context.Background(), db, cfg.MigrationsDir); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	client, err := backend.NewClient(backend.Config{BaseURL: cfg.Backend.BaseURL, Timeout: cfg.Backend.Timeout.Std()})
	if err != nil {
		log.Fatalf("backend client: %v", err)
	}
	if cfg.Backend.JWTSecret == "" {
		slog.Warn("BACKEND_JWT_SECRET not set; backend tokens are decoded without signature checks")
	}

	sessionCache := cache.NewUserSessionCache()
	rbacCache := cache.NewRbacRolesCache()
	store := wizard.NewStore()
	metrics.Init(store.Len)

	server := httpserver.NewServer(cfg.Addr, httpserver.Deps{
		DB:           db,
		SessionCache: sessionCache,
		UserCache:    cache.NewUserCache(),
		RbacCache:    rbacCache,
		Rbac:         rbac.New(rbacCache),
		Audit:        audit.NewService(),
		Backend:      client,
		Tokens:       session.NewSQLiteTokenStorage(db, sessionCache),
		Wizards:      wizard.NewService(store, cfg.Wizard.LoadTimeout.Std()),
		JWTSecret:    []byte(cfg.Backend.JWTSecret),
	})
	if err := server.Start(); err != nil {
		log.Fatalf("start server: %v", err)
	}
	slog.Info("condowater listening", slog.String("addr", cfg.Addr), slog.String("backend", cfg.Backend.BaseURL))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	if err := server.Stop(); err != nil {
		slog.Error("graceful shutdown error", slog.Any("err", err))
	}
}

// Package main запускает HTTP API администрирования сотрудников и служебный gRPC сервер
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/auth"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/config"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/grpc"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/identity"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/jwt"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/logger"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/notifications"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/profile"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/provisioning"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/refcache"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/router"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/users"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/users/handlers"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("server stopped with error", zap.Error(err))
	}
	lg.Info("server stopped")
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := connectDB(ctx, cfg.Database, lg)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Инициализируем компоненты
	userRepo := users.NewRepository(pool)
	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expiration)

	var identities identity.Provider
	switch cfg.Identity.Provider {
	case config.IdentityGoTrue:
		identities = identity.NewGoTrueProvider(cfg.Identity.BaseURL, cfg.Identity.APIKey, cfg.Identity.Timeout)
	default:
		identities = identity.NewPostgresProvider(pool)
	}

	// Redis опционален: без него справочники читаются из базы
	var rdb redis.Cmdable
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = client.Close() }()
		rdb = client
	}
	refs := refcache.New(rdb, userRepo, cfg.Redis.TTL, lg.Named("refcache"))

	notificationService := notifications.NewService(notifications.NewRepository(pool), lg.Named("notifications"))

	reconciler := profile.NewReconciler(userRepo, lg.Named("profile"), profile.WithReferenceReader(refs))
	hireService := provisioning.NewService(userRepo, identities, lg.Named("provisioning"),
		provisioning.WithNotifier(notificationService))

	authMW := auth.NewMiddleware(jwtManager, userRepo, lg.Named("auth"))
	r := router.SetupRoutes(chi.NewRouter(), router.Handlers{
		Auth:          handlers.NewAuthHandler(identities, userRepo, jwtManager, lg),
		Profiles:      handlers.NewProfileHandler(userRepo, reconciler, lg),
		Hires:         handlers.NewHireHandler(hireService, lg),
		Notifications: handlers.NewNotificationHandler(notificationService, lg),
	}, authMW, cfg.Server.AllowedOrigins)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           otelhttp.NewHandler(r, "hr-admin-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer(pool, 15*time.Second, lg.Named("grpc"))
	go grpcServer.Watch(ctx)

	errCh := make(chan error, 2)
	go func() {
		lg.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		if err := grpcServer.Start(cfg.Server.GRPCPort); err != nil {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		lg.Info("shutdown signal received")
	case runErr = <-errCh:
		lg.Error("server failed", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	grpcServer.Stop()
	return multierr.Append(runErr, httpServer.Shutdown(shutdownCtx))
}

// connectDB открывает пул и ждет, пока база станет доступна
func connectDB(ctx context.Context, cfg config.DatabaseConfig, lg *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.GetURL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	backoff := retry.WithMaxRetries(cfg.ConnectRetries, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			lg.Warn("database not ready", zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	lg.Info("connected to database", zap.String("host", cfg.Host), zap.String("db", cfg.DBName))
	return pool, nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Abdallah85/Collaborative-Notes-App/internal/auth"
	"github.com/Abdallah85/Collaborative-Notes-App/internal/config"
	"github.com/Abdallah85/Collaborative-Notes-App/internal/event"
	handler "github.com/Abdallah85/Collaborative-Notes-App/internal/handler/http"
	"github.com/Abdallah85/Collaborative-Notes-App/internal/repository/postgres"
	"github.com/Abdallah85/Collaborative-Notes-App/internal/service"
	"github.com/Abdallah85/Collaborative-Notes-App/migrations"
	"github.com/Abdallah85/Collaborative-Notes-App/pkg/database"
	"github.com/Abdallah85/Collaborative-Notes-App/pkg/health"
	pkgkafka "github.com/Abdallah85/Collaborative-Notes-App/pkg/kafka"
)

// App wires together all dependencies and runs the auth service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPass,
		DBName:   cfg.PostgresDB,
		SSLMode:  cfg.PostgresSSL,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTokenExpiry)
	resetTokenManager := auth.NewResetTokenManager(cfg.ResetSecretTTL)
	userRepo := postgres.NewUserRepository(pool)
	eventProducer := event.NewProducer(producer, logger)
	authService := service.NewAuthService(userRepo, tokenManager, resetTokenManager, eventProducer, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(authService, healthHandler, logger, handler.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Environment:    cfg.Environment,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: HTTP server first so
// in-flight requests drain, then the Kafka producer, then the pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

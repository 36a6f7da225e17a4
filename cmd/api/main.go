package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/wishbridge-backend/api/routes"
	"github.com/angelmondragon/wishbridge-backend/internal/admin"
	"github.com/angelmondragon/wishbridge-backend/internal/auth"
	"github.com/angelmondragon/wishbridge-backend/internal/bids"
	"github.com/angelmondragon/wishbridge-backend/internal/users"
	"github.com/angelmondragon/wishbridge-backend/internal/wishes"
	"github.com/angelmondragon/wishbridge-backend/pkg/auth/session"
	"github.com/angelmondragon/wishbridge-backend/pkg/config"
	"github.com/angelmondragon/wishbridge-backend/pkg/db"
	"github.com/angelmondragon/wishbridge-backend/pkg/logger"
	"github.com/angelmondragon/wishbridge-backend/pkg/metrics"
	"github.com/angelmondragon/wishbridge-backend/pkg/migrate"
	"github.com/angelmondragon/wishbridge-backend/pkg/outbox"
	"github.com/angelmondragon/wishbridge-backend/pkg/redis"
	"github.com/angelmondragon/wishbridge-backend/pkg/storage/gcs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.IsDev(),
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	gcsClient, err := gcs.NewClient(bootCtx, cfg.GCS, cfg.GCP, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, gcsClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bidMetrics := metrics.NewBidMetrics(registry)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	usersRepo := users.NewRepository(dbClient.DB())
	wishesRepo := wishes.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return err
	}

	signupService, err := auth.NewSignupService(auth.SignupServiceParams{
		Users:          usersRepo,
		Pending:        redisClient,
		Documents:      gcsClient,
		Tx:             dbClient,
		Outbox:         outboxService,
		PasswordConfig: cfg.Password,
		OTPConfig:      cfg.OTP,
		MaxUploadBytes: cfg.GCS.MaxUploadBytes,
		Logger:         logg,
	})
	if err != nil {
		return err
	}

	wishService, err := wishes.NewService(wishesRepo, dbClient, outboxService)
	if err != nil {
		return err
	}

	bidService, err := bids.NewService(bids.ServiceParams{
		Bids:    bids.NewRepository(dbClient.DB()),
		Wishes:  wishesRepo,
		Tx:      dbClient,
		Outbox:  outboxService,
		Metrics: bidMetrics,
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	adminService, err := admin.NewService(admin.ServiceParams{
		Users:       usersRepo,
		Tx:          dbClient,
		Outbox:      outboxService,
		DeadLetters: outbox.NewDLQRepository(dbClient.DB()),
		Logger:      logg,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "addr", addr)

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			gcsClient,
			registry,
			sessionManager,
			authService,
			signupService,
			wishService,
			bidService,
			adminService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

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
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/customer-directory/internal/config"
	"github.com/iliyamo/customer-directory/internal/database"
	"github.com/iliyamo/customer-directory/internal/handler"
	"github.com/iliyamo/customer-directory/internal/logging"
	"github.com/iliyamo/customer-directory/internal/metrics"
	"github.com/iliyamo/customer-directory/internal/middleware"
	"github.com/iliyamo/customer-directory/internal/queue"
	"github.com/iliyamo/customer-directory/internal/repository"
	"github.com/iliyamo/customer-directory/internal/router"
	"github.com/iliyamo/customer-directory/internal/service"
	"github.com/iliyamo/customer-directory/internal/utils"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine; the environment may already be set
	cfg := config.Load()
	logger := logging.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn := database.DSN(cfg)
	if cfg.DBAutoMigrate {
		if err := migrateUp(dsn); err != nil {
			logging.LogError(logger, "migration failed", err)
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	db, err := database.Open(ctx, dsn)
	if err != nil {
		logging.LogError(logger, "database unavailable", err)
		os.Exit(1)
	}
	defer db.Close()

	registry, m := metrics.NewRegistry()

	var rdb *redis.Client
	if cfg.Cache.Enabled {
		if rdb, err = config.NewRedisClient(ctx); err != nil {
			logging.LogError(logger, "redis unavailable; response cache disabled", err)
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	// The publisher outlives ctx so events from requests finishing during
	// shutdown are still sent.
	pubCtx, stopPublisher := context.WithCancel(context.Background())
	defer stopPublisher()
	publisherDone := make(chan struct{})
	var events service.EventPublisher = queue.NopPublisher{}
	if cfg.Events.Enabled {
		publisher := queue.NewPublisher(cfg.Events.URL, cfg.Events.Queue, logger)
		go func() {
			defer close(publisherDone)
			publisher.Run(pubCtx)
		}()
		events = publisher
		logger.Info("customer events enabled", "queue", cfg.Events.Queue)
	} else {
		close(publisherDone)
	}
	if cfg.Events.ConsumerEnabled {
		consumer := queue.NewAuditConsumer(cfg.Events.URL, cfg.Events.Queue, cfg.Events.AuditLogDir, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("audit consumer stopped", "error", err)
			}
		}()
	}

	tokens := utils.NewTokenService(cfg)
	hasher := utils.NewPasswordHasher(cfg.BcryptCost)
	customers, err := service.NewCustomerService(repository.NewCustomerRepo(db), hasher, events, logger)
	if err != nil {
		logging.LogError(logger, "customer service setup failed", err)
		os.Exit(1)
	}
	auth, err := service.NewAuthService(customers, tokens, logger)
	if err != nil {
		logging.LogError(logger, "auth service setup failed", err)
		os.Exit(1)
	}

	e := router.New(router.Deps{
		Config:    cfg,
		Logger:    logger,
		Tokens:    tokens,
		Auth:      handler.NewAuthHandler(auth, handler.NewCookieJar(cfg), m, logger, cfg.IsDevelopment()),
		Customers: handler.NewCustomerHandler(customers, logger, cfg.IsDevelopment()),
		Health:    handler.NewHealthHandler(db),
		Cache:     middleware.NewResponseCache(cfg.Cache, rdb, m, logger),
		Metrics:   m,
		Registry:  registry,
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	stopPublisher()
	<-publisherDone
	logger.Info("server stopped")
}

func migrateUp(dsn string) (err error) {
	m, err := database.NewMigrator(dsn)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, m.Close()) }()
	return m.Up()
}

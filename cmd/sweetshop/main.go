// Package main boots the Sweet Shop HTTP API.
//
// @title                       Sweet Shop API
// @version                     1.0
// @description                 Inventory management for a sweet shop: accounts, catalogue and stock.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/sweetshop/sweetshop-api/internal/api"
	"github.com/sweetshop/sweetshop-api/internal/api/handler"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
	"github.com/sweetshop/sweetshop-api/internal/core/service"
	"github.com/sweetshop/sweetshop-api/internal/infrastructure/config"
	mongostore "github.com/sweetshop/sweetshop-api/internal/infrastructure/db/mongo"
	redisstore "github.com/sweetshop/sweetshop-api/internal/infrastructure/db/redis"
	"github.com/sweetshop/sweetshop-api/internal/infrastructure/db/sqlstore"
	"github.com/sweetshop/sweetshop-api/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		// The logger may not exist yet when configuration fails.
		fmt.Fprintf(os.Stderr, "sweetshop: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "sweetshop-api",
		Env:     cfg.Env,
	})
	log.Info().Str("store", cfg.Store.Driver).Msg("service_starting")

	st, err := openStore(ctx, cfg, logger.With("store"))
	if err != nil {
		return err
	}
	defer st.close()

	readiness := map[string]handler.Pinger{"store": st.ping}

	var replays service.PurchaseReplayStore
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		replays = redisstore.NewPurchaseReplayStore(rdb, cfg.Redis.IdempotencyTTL)
		readiness["redis"] = redisstore.Ping(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("purchase_idempotency_enabled")
	}

	sessions := service.NewSessionService(st.users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	auth := service.NewAuthService(st.users, sessions, cfg.Auth.BcryptCost, logger.With("auth"))
	sweets := service.NewSweetService(st.sweets, st.movements, replays, logger.With("sweets"))

	if _, err := auth.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	e := api.NewRouter(api.Deps{
		Log:         logger.With("http"),
		Auth:        auth,
		Sessions:    sessions,
		Sweets:      sweets,
		Readiness:   readiness,
		CORSOrigins: cfg.CORSOrigins,
	})

	errc := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Msg("http_listen")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutdown_signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("service_stopped")
	return nil
}

// store groups the repositories of one backend with its lifecycle hooks.
type store struct {
	users     ports.UserRepository
	sweets    ports.SweetRepository
	movements ports.MovementRepository
	ping      handler.Pinger
	close     func()
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	switch cfg.Store.Driver {
	case "mongo":
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo_connected")
		return &store{
			users:     mongostore.NewUserRepository(db),
			sweets:    mongostore.NewSweetRepository(db, log),
			movements: mongostore.NewMovementRepository(db),
			ping:      mongostore.Ping(client),
			close:     func() { _ = client.Disconnect(context.Background()) },
		}, nil

	default:
		dsn := cfg.Store.SQLitePath
		if cfg.Store.Driver == sqlstore.DriverMySQL {
			dsn = cfg.Store.MySQLDSN
		}
		db, err := sqlstore.Open(ctx, sqlstore.Config{Driver: cfg.Store.Driver, DSN: dsn})
		if err != nil {
			return nil, err
		}
		if err := sqlstore.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Str("driver", cfg.Store.Driver).Msg("sql_store_ready")
		return &store{
			users:     sqlstore.NewUserRepository(db),
			sweets:    sqlstore.NewSweetRepository(db),
			movements: sqlstore.NewMovementRepository(db),
			ping:      db.PingContext,
			close:     func() { _ = db.Close() },
		}, nil
	}
}

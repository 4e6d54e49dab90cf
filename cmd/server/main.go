package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	"ward-pickup-service/internal/adapters/cache"
	"ward-pickup-service/internal/adapters/repositories"
	"ward-pickup-service/internal/api"
	"ward-pickup-service/internal/config"
	"ward-pickup-service/internal/platform/db"
	"ward-pickup-service/internal/platform/obs"
	"ward-pickup-service/internal/ports"
	"ward-pickup-service/internal/services"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// store is the adapter set one database driver provides.
type store struct {
	db         *sql.DB
	accounts   ports.AccountRepository
	pickups    ports.PickupRepository
	incentives ports.IncentiveRepository
	tx         ports.Transactor
}

// main is the application composition root.
// It wires concrete adapters (SQLite or Postgres, Redis) behind ports and starts the HTTP server.
func main() {
	config.LoadDotEnv()
	obs.InitLogger(config.AppName)

	cfg, err := config.Load()
	if err != nil {
		obs.Logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		obs.Logger.WithError(err).Fatal("open store")
	}
	defer st.db.Close()

	accounts := st.accounts
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			obs.Logger.WithError(err).Fatal("invalid REDIS_URL")
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			obs.Logger.WithError(err).Warn("redis unreachable, account cache will read through")
		}
		accounts = cache.NewRedisAccountCache(rdb, st.accounts, cfg.AccountCacheTTL)
		obs.Logger.WithField("ttl", cfg.AccountCacheTTL).Info("account cache enabled")
	}

	router := api.NewRouter(api.Deps{
		Lifecycle:   services.NewPickupLifecycle(accounts, st.pickups, st.tx),
		Engine:      services.NewRouteEngine(accounts, st.pickups, cfg.Depot),
		Ledger:      services.NewIncentiveLedger(st.incentives),
		JWTSecret:   []byte(cfg.JWTSecret),
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			obs.Logger.WithError(err).Error("graceful shutdown failed")
		}
	}()

	obs.Logger.WithFields(logrus.Fields{"port": cfg.Port, "driver": cfg.DBDriver}).Info("server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		obs.Logger.WithError(err).Fatal("server failed")
	}
	obs.Logger.Info("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := repositories.InitPostgresSchema(ctx, conn); err != nil {
			conn.Close()
			return nil, err
		}
		pg := repositories.NewPostgresStore(conn)
		return &store{db: conn, accounts: pg.Accounts(), pickups: pg.Pickups(), incentives: pg.Incentives(), tx: pg}, nil

	default:
		conn, err := db.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		if err := repositories.InitSchema(conn); err != nil {
			conn.Close()
			return nil, err
		}
		// Seed demo data on startup for local runs.
		if cfg.SeedPath != "" {
			if err := repositories.SeedFromJSON(conn, cfg.SeedPath); err != nil {
				conn.Close()
				return nil, err
			}
		}
		sq := repositories.NewSqliteStore(conn)
		return &store{db: conn, accounts: sq.Accounts(), pickups: sq.Pickups(), incentives: sq.Incentives(), tx: sq}, nil
	}
}

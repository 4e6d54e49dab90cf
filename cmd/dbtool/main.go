package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"
	"ward-pickup-service/internal/adapters/repositories"
	"ward-pickup-service/internal/api/auth"
	"ward-pickup-service/internal/config"
	"ward-pickup-service/internal/platform/db"
	"ward-pickup-service/internal/platform/obs"
)

// dbtool initializes the schema and loads seed data for local runs.
// With -token it instead prints a development bearer token for an account.
func main() {
	config.LoadDotEnv()
	obs.InitLogger(config.AppName + "-dbtool")

	driver := flag.String("driver", config.Get("DB_DRIVER", config.DriverSQLite), "sqlite or postgres")
	seedPath := flag.String("seed", config.Get("SEED_PATH", "data/seeds/ward.json"), "seed file (empty to skip)")
	tokenFor := flag.String("token", "", "print a signed token for this account id and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the -token output")
	flag.Parse()

	ctx := context.Background()

	if *tokenFor != "" {
		if err := printToken(ctx, *driver, *tokenFor, *tokenTTL); err != nil {
			obs.Logger.WithError(err).Fatal("token issuance failed")
		}
		return
	}

	if err := initAndSeed(ctx, *driver, *seedPath); err != nil {
		obs.Logger.WithError(err).Fatal("dbtool failed")
	}
}

func open(ctx context.Context, driver string) (*sql.DB, error) {
	switch driver {
	case config.DriverPostgres:
		url := config.Get("DATABASE_URL", "")
		if url == "" {
			return nil, errors.New("DATABASE_URL is required")
		}
		return db.Open(ctx, url)
	case config.DriverSQLite:
		return db.OpenSQLite(config.Get("DB_PATH", "data/app.db"))
	}
	return nil, fmt.Errorf("unknown driver %q", driver)
}

func initAndSeed(ctx context.Context, driver, seedPath string) error {
	conn, err := open(ctx, driver)
	if err != nil {
		return err
	}
	defer conn.Close()

	obs.Logger.WithField("driver", driver).Info("initializing database schema")
	if driver == config.DriverPostgres {
		err = repositories.InitPostgresSchema(ctx, conn)
	} else {
		err = repositories.InitSchema(conn)
	}
	if err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	obs.Logger.Info("schema ready")

	if seedPath == "" {
		return nil
	}

	obs.Logger.WithField("seed", seedPath).Info("seeding database")
	if driver == config.DriverPostgres {
		err = repositories.SeedPostgresFromJSON(ctx, conn, seedPath)
	} else {
		err = repositories.SeedFromJSON(conn, seedPath)
	}
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	obs.Logger.Info("seeding complete")

	return nil
}

func printToken(ctx context.Context, driver, accountID string, ttl time.Duration) error {
	secret := config.Get("JWT_SECRET", "")
	if secret == "" {
		return errors.New("JWT_SECRET is required")
	}

	conn, err := open(ctx, driver)
	if err != nil {
		return err
	}
	defer conn.Close()

	var role string
	if driver == config.DriverPostgres {
		acc, err := repositories.NewPostgresAccountRepository(conn).GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		role = string(acc.Role)
	} else {
		acc, err := repositories.NewSqliteAccountRepository(conn).GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		role = string(acc.Role)
	}

	tok, err := auth.SignToken([]byte(secret), accountID, role, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, tok)
	return nil
}

package database

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

//go:embed schema.sql
var schema string

var DB *pgxpool.Pool

// ErrNotConnected is returned by every helper when ConnectDB has not succeeded.
var ErrNotConnected = errors.New("database not connected")

// ConnectDB opens the pool behind DB and checks it answers.
func ConnectDB(ctx context.Context, connStr string) error {
	if connStr == "" {
		return fmt.Errorf("connect db: %w: no connection string", ErrNotConnected)
	}
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return fmt.Errorf("db ping error: %w", err)
	}

	DB = pool
	logrus.WithField("host", config.ConnConfig.Host).Info("connected to database")
	return nil
}

// Close releases the pool.
func Close() {
	if DB != nil {
		DB.Close()
		DB = nil
	}
}

// Migrate creates the tables this service writes to. It is idempotent.
func Migrate(ctx context.Context) error {
	if DB == nil {
		return ErrNotConnected
	}
	if _, err := DB.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// inTx runs f in a transaction on DB.
func inTx(ctx context.Context, f func(tx pgx.Tx) error) error {
	if DB == nil {
		return ErrNotConnected
	}
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, f)
}

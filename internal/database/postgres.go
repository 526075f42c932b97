package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"dexarb/internal/config"
	"dexarb/internal/model"
)

const createPostgresTable = `
CREATE TABLE IF NOT EXISTS arbitrage_bot (
	id BIGSERIAL PRIMARY KEY,
	buy_dex TEXT,
	sell_dex TEXT,
	profit_usdc DOUBLE PRECISION,
	timestamp TEXT
)`

// PostgresRepository stores opportunities in PostgreSQL.
type PostgresRepository struct {
	Pool *pgxpool.Pool
}

// DSN builds a PostgreSQL connection string from the given config.
func DSN(cfg config.DatabaseConfig) string {
	if strings.TrimSpace(cfg.DSN) != "" {
		return cfg.DSN
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, port, cfg.DBName, sslMode)
}

// NewPostgresRepository opens a pool against dsn and verifies it with a ping.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &PostgresRepository{Pool: pool}, nil
}

// Migrate creates the arbitrage_bot table if it is missing.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.Pool.Exec(ctx, createPostgresTable); err != nil {
		return fmt.Errorf("postgres: create %s: %w", TableName, err)
	}
	return nil
}

// LogOpportunity inserts one row and returns the id the database assigned.
func (r *PostgresRepository) LogOpportunity(ctx context.Context, opp model.Opportunity) (int64, error) {
	var id int64
	err := r.Pool.QueryRow(ctx,
		`INSERT INTO arbitrage_bot (buy_dex, sell_dex, profit_usdc, timestamp)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		opp.BuyVenue, opp.SellVenue, opp.Profit.InexactFloat64(), formatTimestamp(opp.ObservedAt),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert opportunity: %w", err)
	}
	return id, nil
}

// Close releases the underlying connections.
func (r *PostgresRepository) Close() error {
	r.Pool.Close()
	return nil
}

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dexarb/internal/config"
	"dexarb/internal/model"
)

// TableName is the append-only table holding recorded opportunities.
const TableName = "arbitrage_bot"

// ErrUnknownDriver is returned by Open for an unsupported database.driver.
var ErrUnknownDriver = errors.New("unknown database driver")

// Repository defines the standard interface for database operations.
type Repository interface {
	// Migrate creates the opportunity table if it does not exist yet.
	Migrate(ctx context.Context) error
	// LogOpportunity appends one opportunity and returns its assigned id.
	LogOpportunity(ctx context.Context, opp model.Opportunity) (int64, error)
	Close() error
}

// Open connects to the configured backend. The schema is not touched; call
// Migrate before first use.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Repository, error) {
	switch cfg.Driver {
	case "sqlite":
		repo, err := NewSQLiteRepository(cfg.Path)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "postgres":
		repo, err := NewPostgresRepository(ctx, DSN(cfg))
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

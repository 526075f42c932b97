package database

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"dexarb/internal/model"
)

const createSQLiteTable = `
CREATE TABLE IF NOT EXISTS arbitrage_bot (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	buy_dex TEXT,
	sell_dex TEXT,
	profit_usdc REAL,
	timestamp TEXT
)`

type opportunityRow struct {
	ID         int64   `gorm:"column:id;primaryKey;autoIncrement"`
	BuyDex     string  `gorm:"column:buy_dex"`
	SellDex    string  `gorm:"column:sell_dex"`
	ProfitUSDC float64 `gorm:"column:profit_usdc"`
	Timestamp  string  `gorm:"column:timestamp"`
}

func (opportunityRow) TableName() string { return TableName }

// SQLiteRepository stores opportunities in a local SQLite file.
type SQLiteRepository struct {
	DB *gorm.DB
}

// NewSQLiteRepository opens (or creates) the SQLite database at path.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	return &SQLiteRepository{DB: db}, nil
}

// Migrate creates the arbitrage_bot table if it is missing.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	if err := r.DB.WithContext(ctx).Exec(createSQLiteTable).Error; err != nil {
		return fmt.Errorf("sqlite: create %s: %w", TableName, err)
	}
	return nil
}

// LogOpportunity inserts one row and returns the id the database assigned.
func (r *SQLiteRepository) LogOpportunity(ctx context.Context, opp model.Opportunity) (int64, error) {
	row := opportunityRow{
		BuyDex:     opp.BuyVenue,
		SellDex:    opp.SellVenue,
		ProfitUSDC: opp.Profit.InexactFloat64(),
		Timestamp:  formatTimestamp(opp.ObservedAt),
	}
	if err := r.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("sqlite: insert opportunity: %w", err)
	}
	return row.ID, nil
}

// Close releases the underlying connections.
func (r *SQLiteRepository) Close() error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

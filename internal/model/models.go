package model

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// VenueQuote is the output amount a single venue quoted during one tick.
type VenueQuote struct {
	Venue  string
	Amount *big.Int
	Valid  bool
	Reason string
}

// Snapshot holds one quote per configured venue, in configuration order.
type Snapshot []VenueQuote

// ValidCount returns how many quotes in the snapshot are usable.
func (s Snapshot) ValidCount() int {
	n := 0
	for _, q := range s {
		if q.Usable() {
			n++
		}
	}
	return n
}

// Usable reports whether the quote can take part in an evaluation.
// A zero amount is never usable, whatever the Valid flag says.
func (q VenueQuote) Usable() bool {
	return q.Valid && q.Amount != nil && q.Amount.Sign() > 0
}

// Opportunity represents a detected arbitrage opportunity to be recorded.
type Opportunity struct {
	ID         int64           `db:"id"`
	BuyVenue   string          `db:"buy_dex"`
	SellVenue  string          `db:"sell_dex"`
	Profit     decimal.Decimal `db:"profit_usdc"`
	ObservedAt time.Time       `db:"timestamp"`
}

package arbitrage

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"dexarb/internal/model"
)

// Evaluator decides whether a snapshot contains a recordable opportunity.
type Evaluator struct {
	costUnits *big.Int
	minProfit decimal.Decimal
	decimals  int32
}

// NewEvaluator creates an Evaluator. costEstimate and minProfit are in
// quote-token units; decimals is the quote token's precision.
func NewEvaluator(costEstimate, minProfit decimal.Decimal, decimals int32) *Evaluator {
	cost := costEstimate.Shift(decimals).Floor().BigInt()
	if cost.Sign() < 0 {
		cost.SetInt64(0)
	}
	return &Evaluator{
		costUnits: cost,
		minProfit: minProfit,
		decimals:  decimals,
	}
}

// CostUnits returns the cost estimate in smallest units of the quote token.
func (e *Evaluator) CostUnits() *big.Int {
	return new(big.Int).Set(e.costUnits)
}

// ToDecimal scales an amount in smallest units to quote-token units.
func (e *Evaluator) ToDecimal(units *big.Int) decimal.Decimal {
	if units == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(units, -e.decimals)
}

// Result describes how a snapshot was judged, whether or not it qualified.
type Result struct {
	BuyVenue  string
	SellVenue string
	RawDiff   *big.Int
	NetProfit decimal.Decimal
	// Skip is empty when the result qualifies as an opportunity.
	Skip string
}

// Reasons a snapshot does not qualify, as reported in Result.Skip.
const (
	SkipTooFewQuotes   = "fewer than 2 valid quotes"
	SkipPricesEqual    = "prices equal"
	SkipProfitTooSmall = "profit too small"
)

// Qualifies reports whether the result should be recorded.
func (r Result) Qualifies() bool {
	return r.Skip == ""
}

// Opportunity builds the record for a qualifying result.
func (r Result) Opportunity(now time.Time) model.Opportunity {
	return model.Opportunity{
		BuyVenue:   r.BuyVenue,
		SellVenue:  r.SellVenue,
		Profit:     r.NetProfit,
		ObservedAt: now.UTC(),
	}
}

// Judge compares the usable quotes in the snapshot. The cheapest venue is
// the buy side and the most generous venue the sell side; ties go to the
// venue listed first.
func (e *Evaluator) Judge(snapshot model.Snapshot) Result {
	var low, high *model.VenueQuote
	valid := 0
	for i := range snapshot {
		q := &snapshot[i]
		if !q.Usable() {
			continue
		}
		valid++
		if low == nil || q.Amount.Cmp(low.Amount) < 0 {
			low = q
		}
		if high == nil || q.Amount.Cmp(high.Amount) > 0 {
			high = q
		}
	}

	if valid < 2 {
		return Result{Skip: SkipTooFewQuotes, NetProfit: decimal.Zero}
	}

	res := Result{
		BuyVenue:  low.Venue,
		SellVenue: high.Venue,
		RawDiff:   new(big.Int).Sub(high.Amount, low.Amount),
		NetProfit: decimal.Zero,
	}
	if res.RawDiff.Sign() == 0 {
		res.Skip = SkipPricesEqual
		return res
	}

	net := new(big.Int)
	if res.RawDiff.Cmp(e.costUnits) > 0 {
		net.Sub(res.RawDiff, e.costUnits)
	}
	res.NetProfit = e.ToDecimal(net)

	if !res.NetProfit.GreaterThan(e.minProfit) {
		res.Skip = SkipProfitTooSmall
	}
	return res
}

// Evaluate returns the opportunity in the snapshot, if any, stamped with now
// in UTC.
func (e *Evaluator) Evaluate(snapshot model.Snapshot, now time.Time) (model.Opportunity, bool) {
	res := e.Judge(snapshot)
	if !res.Qualifies() {
		return model.Opportunity{}, false
	}
	return res.Opportunity(now), true
}

package arbitrage

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"dexarb/internal/config"
	"dexarb/internal/database"
	"dexarb/internal/model"
	"dexarb/internal/sampler"
	"dexarb/internal/venue"
)

// ArbitrageEngine samples every venue on a fixed interval, evaluates the
// snapshot and records qualifying opportunities. One cycle runs at a time.
type ArbitrageEngine struct {
	logger    *slog.Logger
	repo      database.Repository
	venues    []venue.Client
	evaluator *Evaluator
	amountIn  *big.Int
	path      []common.Address
	interval  time.Duration
	now       func() time.Time
}

// NewArbitrageEngine creates a new instance of the ArbitrageEngine.
func NewArbitrageEngine(logger *slog.Logger, repo database.Repository, venues []venue.Client, cfg *config.Config) *ArbitrageEngine {
	s := cfg.Settings
	return &ArbitrageEngine{
		logger: logger.With("component", "arbitrage_engine"),
		repo:   repo,
		venues: venues,
		evaluator: NewEvaluator(s.CostEstimate, s.MinProfit, s.QuoteDecimals),
		amountIn: new(big.Int).SetUint64(s.TradeSize),
		path: []common.Address{
			common.HexToAddress(cfg.Tokens.Input),
			common.HexToAddress(cfg.Tokens.Output),
		},
		interval: s.PollInterval,
		now:      time.Now,
	}
}

// Run checks for opportunities immediately and then once per interval until
// ctx is cancelled. A tick that fires while a cycle is still running is
// dropped rather than queued.
func (e *ArbitrageEngine) Run(ctx context.Context) error {
	e.logger.Info("ArbitrageEngine: started",
		"venues", len(e.venues),
		"interval", e.interval,
		"costUnits", e.evaluator.CostUnits().String(),
	)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		e.checkArbitrage(ctx)

		select {
		case <-ctx.Done():
			e.logger.Info("ArbitrageEngine: context cancelled, shutting down")
			return nil
		case <-ticker.C:
		}
	}
}

// checkArbitrage runs one sample, evaluate, record cycle. Failures are logged
// and never escape.
func (e *ArbitrageEngine) checkArbitrage(ctx context.Context) {
	logger := e.logger.With("tick", uuid.NewString())
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Cycle aborted", "panic", r)
		}
	}()

	if ctx.Err() != nil {
		return
	}

	logger.Info("Checking prices")
	snapshot := sampler.Sample(ctx, e.venues, e.amountIn, e.path)
	e.logSnapshot(logger, snapshot)

	res := e.evaluator.Judge(snapshot)
	switch res.Skip {
	case SkipTooFewQuotes:
		logger.Warn("Skipping invalid prices", "valid", snapshot.ValidCount(), "venues", len(snapshot))
		return
	case SkipPricesEqual:
		logger.Info("Prices equal, no arbitrage")
		return
	}

	logger.Info("Net profit after cost",
		"buyVenue", res.BuyVenue,
		"sellVenue", res.SellVenue,
		"rawDiff", res.RawDiff.String(),
		"netProfit", res.NetProfit.StringFixed(e.evaluator.decimals),
	)
	if !res.Qualifies() {
		logger.Info("Profit too small, skipping", "minProfit", e.evaluator.minProfit.String())
		return
	}

	opp := res.Opportunity(e.now())
	logger.Info("Arbitrage opportunity found",
		"buyVenue", opp.BuyVenue,
		"sellVenue", opp.SellVenue,
		"profit", opp.Profit.String(),
	)

	id, err := e.repo.LogOpportunity(ctx, opp)
	if err != nil {
		logger.Error("Failed to log opportunity",
			"error", err,
			"buyVenue", opp.BuyVenue,
			"sellVenue", opp.SellVenue,
			"profit", opp.Profit.String(),
			"observedAt", opp.ObservedAt.Format(time.RFC3339),
		)
		return
	}
	logger.Info("Opportunity saved", "id", id)
}

func (e *ArbitrageEngine) logSnapshot(logger *slog.Logger, snapshot model.Snapshot) {
	for _, q := range snapshot {
		if q.Usable() {
			logger.Info("Quote", "venue", q.Venue, "amount", e.evaluator.ToDecimal(q.Amount).String())
			continue
		}
		reason := q.Reason
		if reason == "" {
			reason = "zero amount"
		}
		logger.Warn("Quote unavailable", "venue", q.Venue, "reason", reason)
	}
}

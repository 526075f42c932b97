package venue

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"dexarb/internal/model"
)

// ContractCaller is the subset of ethclient.Client needed to read a router.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// RouterClient quotes a path against a Uniswap V2 style router contract.
type RouterClient struct {
	name    string
	router  common.Address
	abi     abi.ABI
	caller  ContractCaller
	timeout time.Duration
	logger  *slog.Logger
}

// NewRouterClient creates a new RouterClient. A zero timeout leaves the call
// bounded only by the caller's context.
func NewRouterClient(logger *slog.Logger, name string, router common.Address, routerABI abi.ABI, caller ContractCaller, timeout time.Duration) *RouterClient {
	return &RouterClient{
		name:    name,
		router:  router,
		abi:     routerABI,
		caller:  caller,
		timeout: timeout,
		logger:  logger.With("venue", name),
	}
}

// GetName returns the configured venue name.
func (r *RouterClient) GetName() string {
	return r.name
}

// Quote asks the router how much of the last token in path it would return
// for amountIn of the first.
func (r *RouterClient) Quote(ctx context.Context, amountIn *big.Int, path []common.Address) model.VenueQuote {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return r.fail("invalid trade size", nil)
	}
	if len(path) < 2 {
		return r.fail("path needs at least 2 tokens", nil)
	}

	data, err := r.abi.Pack(QuoteMethod, amountIn, path)
	if err != nil {
		return r.fail("pack call", err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	to := r.router
	raw, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return r.fail("call router", err)
	}

	amounts, err := r.unpack(raw)
	if err != nil {
		return r.fail("decode result", err)
	}
	out := amounts[len(amounts)-1]
	if out == nil || out.Sign() <= 0 {
		return r.fail("zero amount", nil)
	}

	return model.VenueQuote{Venue: r.name, Amount: new(big.Int).Set(out), Valid: true}
}

func (r *RouterClient) unpack(raw []byte) ([]*big.Int, error) {
	values, err := r.abi.Unpack(QuoteMethod, raw)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("expected 1 return value, got %d", len(values))
	}
	amounts, ok := values[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected return type %T", values[0])
	}
	if len(amounts) == 0 {
		return nil, fmt.Errorf("empty amounts")
	}
	return amounts, nil
}

func (r *RouterClient) fail(reason string, err error) model.VenueQuote {
	if err != nil {
		r.logger.Warn("RouterClient: quote failed", "reason", reason, "error", err)
		return invalid(r.name, fmt.Sprintf("%s: %v", reason, err))
	}
	r.logger.Warn("RouterClient: quote failed", "reason", reason)
	return invalid(r.name, reason)
}

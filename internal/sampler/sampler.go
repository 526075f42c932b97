// Package sampler collects one quote per venue for a single tick.
package sampler

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"dexarb/internal/model"
	"dexarb/internal/venue"
)

// Sample queries every venue concurrently and returns once all of them have
// answered. The snapshot holds exactly one quote per venue, in the order the
// venues were given.
func Sample(ctx context.Context, venues []venue.Client, amountIn *big.Int, path []common.Address) model.Snapshot {
	snapshot := make(model.Snapshot, len(venues))

	var g errgroup.Group
	for i, v := range venues {
		g.Go(func() error {
			snapshot[i] = quote(ctx, v, amountIn, path)
			return nil
		})
	}
	_ = g.Wait()

	return snapshot
}

// quote runs one venue call; a panicking client yields an invalid quote
// instead of taking the process down with its goroutine.
func quote(ctx context.Context, v venue.Client, amountIn *big.Int, path []common.Address) (q model.VenueQuote) {
	var name string
	defer func() {
		if r := recover(); r != nil {
			q = model.VenueQuote{Venue: name, Amount: new(big.Int), Reason: fmt.Sprintf("panic: %v", r)}
		}
	}()

	name = v.GetName()
	q = v.Quote(ctx, amountIn, path)
	q.Venue = name
	if q.Amount == nil {
		q.Amount = new(big.Int)
	}
	return q
}

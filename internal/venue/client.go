package venue

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"dexarb/internal/model"
)

// Client defines the standard interface for all venue clients.
//
// Quote never returns an error: failures come back as a VenueQuote with
// Valid set to false and a Reason describing what went wrong.
type Client interface {
	GetName() string
	Quote(ctx context.Context, amountIn *big.Int, path []common.Address) model.VenueQuote
}

func invalid(venue, reason string) model.VenueQuote {
	return model.VenueQuote{Venue: venue, Amount: new(big.Int), Reason: reason}
}

package venue

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"dexarb/internal/config"
)

// NewClients creates one client per configured venue, in configuration order.
func NewClients(logger *slog.Logger, venues []config.VenueConfig, routerABI abi.ABI, caller ContractCaller, timeout time.Duration) ([]Client, error) {
	clients := make([]Client, 0, len(venues))
	for _, v := range venues {
		if !common.IsHexAddress(v.Router) {
			return nil, fmt.Errorf("venue %s: invalid router address %q", v.Name, v.Router)
		}
		clients = append(clients, NewRouterClient(logger, v.Name, common.HexToAddress(v.Router), routerABI, caller, timeout))
	}
	return clients, nil
}

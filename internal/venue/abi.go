package venue

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// QuoteMethod is the router method used to price a path.
const QuoteMethod = "getAmountsOut"

// ErrMethodMissing is returned when a router ABI has no QuoteMethod.
var ErrMethodMissing = errors.New("router abi: quote method missing")

// LoadRouterABI parses the router ABI JSON at path and checks that it
// exposes QuoteMethod.
func LoadRouterABI(path string) (abi.ABI, error) {
	f, err := os.Open(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("open router abi: %w", err)
	}
	defer f.Close()

	parsed, err := abi.JSON(f)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse router abi %s: %w", path, err)
	}
	if _, ok := parsed.Methods[QuoteMethod]; !ok {
		return abi.ABI{}, fmt.Errorf("%w: %s in %s", ErrMethodMissing, QuoteMethod, path)
	}
	return parsed, nil
}

package arbitrage

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"dexarb/internal/config"
	"dexarb/internal/model"
	"dexarb/internal/venue"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) LogOpportunity(ctx context.Context, opp model.Opportunity) (int64, error) {
	args := m.Called(ctx, opp)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

type stubVenue struct {
	name   string
	amount atomic.Int64
	calls  atomic.Int32
}

func newStubVenue(name string, amount int64) *stubVenue {
	v := &stubVenue{name: name}
	v.amount.Store(amount)
	return v
}

func (s *stubVenue) GetName() string { return s.name }

func (s *stubVenue) Quote(ctx context.Context, amountIn *big.Int, path []common.Address) model.VenueQuote {
	s.calls.Add(1)
	a := s.amount.Load()
	if a == 0 {
		return model.VenueQuote{Venue: s.name, Amount: new(big.Int), Reason: "call router: connection refused"}
	}
	return model.VenueQuote{Venue: s.name, Amount: big.NewInt(a), Valid: true}
}

func testConfig() *config.Config {
	return &config.Config{
		Tokens: config.TokensConfig{
			Input:  "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619",
			Output: "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
		},
		Settings: config.SettingsConfig{
			TradeSize:     1_000_000_000_000_000_000,
			MinProfit:     decimal.RequireFromString("0.03"),
			CostEstimate:  decimal.RequireFromString("0.01"),
			QuoteDecimals: 6,
			PollInterval:  10 * time.Millisecond,
			QuoteTimeout:  5 * time.Millisecond,
		},
	}
}

func TestArbitrageEngine_CheckArbitrage(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	quick := newStubVenue("QuickSwap", 1_000_000)
	sushi := newStubVenue("SushiSwap", 1_000_000)
	mockRepo := new(MockRepository)

	engine := NewArbitrageEngine(logger, mockRepo, []venue.Client{quick, sushi}, testConfig())
	fixed := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return fixed }

	t.Run("no opportunity", func(t *testing.T) {
		engine.checkArbitrage(context.Background())
		mockRepo.AssertNotCalled(t, "LogOpportunity")
	})

	t.Run("profitable opportunity", func(t *testing.T) {
		sushi.amount.Store(1_050_000)
		mockRepo.On("LogOpportunity", mock.Anything, mock.MatchedBy(func(o model.Opportunity) bool {
			return o.BuyVenue == "QuickSwap" &&
				o.SellVenue == "SushiSwap" &&
				o.Profit.String() == "0.04" &&
				o.ObservedAt.Equal(fixed)
		})).Return(int64(1), nil).Once()

		engine.checkArbitrage(context.Background())
		mockRepo.AssertExpectations(t)
	})

	t.Run("unprofitable due to cost", func(t *testing.T) {
		mockRepo.Mock = mock.Mock{}
		sushi.amount.Store(1_005_000)
		engine.checkArbitrage(context.Background())
		mockRepo.AssertNotCalled(t, "LogOpportunity")
	})

	t.Run("venue failure skips the tick", func(t *testing.T) {
		mockRepo.Mock = mock.Mock{}
		quick.amount.Store(0)
		sushi.amount.Store(1_000_000)
		engine.checkArbitrage(context.Background())
		mockRepo.AssertNotCalled(t, "LogOpportunity")
	})

	t.Run("store failure is swallowed", func(t *testing.T) {
		mockRepo.Mock = mock.Mock{}
		quick.amount.Store(1_000_000)
		sushi.amount.Store(1_100_000)
		mockRepo.On("LogOpportunity", mock.Anything, mock.Anything).
			Return(int64(0), errors.New("disk full")).Once()

		assert.NotPanics(t, func() { engine.checkArbitrage(context.Background()) })
		mockRepo.AssertExpectations(t)
	})

	t.Run("panicking store does not escape the cycle", func(t *testing.T) {
		mockRepo.Mock = mock.Mock{}
		// no expectation registered: the mock panics on the unexpected call
		assert.NotPanics(t, func() { engine.checkArbitrage(context.Background()) })
	})
}

func TestArbitrageEngine_Run(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	quick := newStubVenue("QuickSwap", 1_000_000)
	sushi := newStubVenue("SushiSwap", 1_050_000)

	mockRepo := new(MockRepository)
	var saved atomic.Int32
	mockRepo.On("LogOpportunity", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { saved.Add(1) }).
		Return(int64(1), nil)

	engine := NewArbitrageEngine(logger, mockRepo, []venue.Client{quick, sushi}, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx) }()

	assert.Eventually(t, func() bool { return saved.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop after cancel")
	}

	calls := quick.calls.Load()
	assert.Equal(t, calls, sushi.calls.Load(), "every tick samples every venue")

	// nothing runs after Run returns
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, quick.calls.Load())
}

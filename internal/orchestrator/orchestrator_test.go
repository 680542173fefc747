package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"main/internal/gateway"
	"main/internal/model"
	"main/internal/obs"
	"main/internal/ops"
	"main/pkg/exception"
)

type partialVenue struct {
	mu           sync.Mutex
	failMarket   string
	bookHandlers map[string]func(model.Book)
	placed       []gateway.OrderRequest
}

func newPartialVenue(failMarket string) *partialVenue {
	return &partialVenue{
		failMarket:   failMarket,
		bookHandlers: make(map[string]func(model.Book)),
	}
}

func (v *partialVenue) Connect(ctx context.Context, creds []ops.WalletCredential) error {
	return nil
}

func (v *partialVenue) SubscribeBook(ctx context.Context, market string, handler func(model.Book)) (func(), error) {
	if market == v.failMarket {
		return nil, exception.ErrMarketDataUnknownMarket
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bookHandlers[market] = handler
	return func() {}, nil
}

func (v *partialVenue) ObserveExec(ctx context.Context, handler func(gateway.ExecEvent)) (func(), error) {
	return func() {}, nil
}

func (v *partialVenue) PlaceOrder(ctx context.Context, req gateway.OrderRequest) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.placed = append(v.placed, req)
	return fmt.Sprintf("o%d", len(v.placed)), nil
}

func (v *partialVenue) CancelOrder(ctx context.Context, wallet, orderID string) error {
	return nil
}

func (v *partialVenue) Close() error {
	return nil
}

func (v *partialVenue) pushBook(market string) {
	v.mu.Lock()
	handler := v.bookHandlers[market]
	v.mu.Unlock()
	if handler != nil {
		handler(model.Book{
			Market:    market,
			Bids:      []model.Level{{Price: 99.9, Size: 50}},
			Asks:      []model.Level{{Price: 100.1, Size: 50}},
			UpdatedAt: time.Now(),
		})
	}
}

func (v *partialVenue) placedCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.placed)
}

func testConfig(tasks ...model.Task) ops.Loaded {
	return ops.Loaded{
		Trader: ops.TraderSpec{
			PriceToleranceBps: 1,
			RetryAttempts:     4,
			RetryBackoff:      time.Millisecond,
			ShutdownTimeout:   time.Second,
		},
		Tasks: tasks,
	}
}

func task(wallet, market string) model.Task {
	return model.Task{
		WalletName:   wallet,
		MarketSymbol: market,
		StrategyName: "vamp",
		Params: model.StrategyParams{
			OrderValue:      100,
			BaseSpreadBps:   10,
			RefreshInterval: 5 * time.Millisecond,
		},
	}
}

func TestOrchestratorIsolatesTraderFailures(t *testing.T) {
	venue := newPartialVenue("BAD-USD-PERP")
	metrics := obs.NewMetrics()

	gw := gateway.New(venue, gateway.Config{RequestsPerSecond: 1000, Burst: 1000}, metrics)
	if err := gw.Connect(t.Context(), nil); err != nil {
		t.Fatalf("connect: %v", err)
	}

	orch, err := New(
		testConfig(task("w1", "BAD-USD-PERP"), task("w2", "ETH-USD-PERP")),
		gw, nil, metrics,
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- orch.Run(ctx) }()

	// The healthy trader keeps quoting after its sibling failed to start.
	deadline := time.Now().Add(2 * time.Second)
	for venue.placedCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("healthy trader never quoted")
		}
		venue.pushBook("ETH-USD-PERP")
		time.Sleep(2 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if !orch.Stopped() {
		t.Fatal("all traders must report STOPPED after Run returns")
	}
}

func TestOrchestratorRejectsUnknownStrategy(t *testing.T) {
	venue := newPartialVenue("")
	gw := gateway.New(venue, gateway.Config{}, obs.NewMetrics())

	bad := task("w1", "BTC-USD-PERP")
	bad.StrategyName = "momentum"
	if _, err := New(testConfig(bad), gw, nil, obs.NewMetrics()); err == nil {
		t.Fatal("unknown strategy must fail")
	}
}

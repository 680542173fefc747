package strategy

import (
	"math"
	"testing"
	"time"

	"main/internal/model"
)

func testBook(bids, asks []model.Level) *model.Book {
	return &model.Book{
		Market:    "BTC-USD-PERP",
		Bids:      bids,
		Asks:      asks,
		UpdatedAt: time.Now(),
	}
}

func testParams(orderValue, spreadBps, skewBps float64) model.StrategyParams {
	return model.StrategyParams{
		OrderValue:       orderValue,
		BaseSpreadBps:    spreadBps,
		InventorySkewBps: skewBps,
		RefreshInterval:  time.Second,
	}
}

func approx(t *testing.T, got, want, tol float64, what string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s: got %.8f, want %.8f (tol %g)", what, got, want, tol)
	}
}

func TestVAMPSymmetricQuote(t *testing.T) {
	// Mid 100, order value fits within the best levels, zero inventory,
	// 10 bps base spread: quote is 0.05% each side of the reference.
	book := testBook(
		[]model.Level{{Price: 99.9, Size: 100}},
		[]model.Level{{Price: 100.1, Size: 100}},
	)

	quote, ok := VAMP{}.ComputeQuote(book, model.Position{}, testParams(200, 10, 0))
	if !ok {
		t.Fatal("expected a quote")
	}
	approx(t, quote.BidPrice, 99.95, 1e-9, "bid price")
	approx(t, quote.AskPrice, 100.05, 1e-9, "ask price")
	approx(t, quote.BidSize, 200/99.95, 1e-9, "bid size")
	approx(t, quote.AskSize, 200/100.05, 1e-9, "ask size")
}

func TestVAMPInventorySkewShiftsQuotesDown(t *testing.T) {
	// Position +2 at reference 100 with order value 200 is exactly one
	// order-value-equivalent of inventory: skew is the full 4 bps, down.
	book := testBook(
		[]model.Level{{Price: 99.9, Size: 100}},
		[]model.Level{{Price: 100.1, Size: 100}},
	)
	pos := model.Position{Size: 2}

	quote, ok := VAMP{}.ComputeQuote(book, pos, testParams(200, 10, 4))
	if !ok {
		t.Fatal("expected a quote")
	}
	approx(t, quote.BidPrice, 99.91, 1e-3, "bid price")
	approx(t, quote.AskPrice, 100.01, 1e-3, "ask price")
}

func TestVAMPSkewDirectionLaw(t *testing.T) {
	book := testBook(
		[]model.Level{{Price: 99.9, Size: 100}},
		[]model.Level{{Price: 100.1, Size: 100}},
	)

	flat, ok := VAMP{}.ComputeQuote(book, model.Position{}, testParams(200, 10, 4))
	if !ok {
		t.Fatal("expected flat quote")
	}

	long, ok := VAMP{}.ComputeQuote(book, model.Position{Size: 0.5}, testParams(200, 10, 4))
	if !ok {
		t.Fatal("expected long quote")
	}
	if long.BidPrice >= flat.BidPrice || long.AskPrice >= flat.AskPrice {
		t.Fatalf("long inventory must shift both quotes down: flat=%+v long=%+v", flat, long)
	}

	short, ok := VAMP{}.ComputeQuote(book, model.Position{Size: -0.5}, testParams(200, 10, 4))
	if !ok {
		t.Fatal("expected short quote")
	}
	if short.BidPrice <= flat.BidPrice || short.AskPrice <= flat.AskPrice {
		t.Fatalf("short inventory must shift both quotes up: flat=%+v short=%+v", flat, short)
	}
}

func TestVAMPSkewSaturates(t *testing.T) {
	book := testBook(
		[]model.Level{{Price: 99.9, Size: 1000}},
		[]model.Level{{Price: 100.1, Size: 1000}},
	)

	one, _ := VAMP{}.ComputeQuote(book, model.Position{Size: 2}, testParams(200, 10, 4))
	ten, _ := VAMP{}.ComputeQuote(book, model.Position{Size: 20}, testParams(200, 10, 4))
	approx(t, ten.BidPrice, one.BidPrice, 1e-9, "saturated bid")
	approx(t, ten.AskPrice, one.AskPrice, 1e-9, "saturated ask")
}

func TestVAMPReferenceWithinTopOfBook(t *testing.T) {
	// When order value fits within the best levels, the reference price must
	// lie between best bid and best ask.
	book := testBook(
		[]model.Level{{Price: 99.5, Size: 50}, {Price: 99.0, Size: 80}},
		[]model.Level{{Price: 100.5, Size: 50}, {Price: 101.0, Size: 80}},
	)

	ref, ok := referencePrice(book, 500)
	if !ok {
		t.Fatal("expected reference price")
	}
	if ref <= 99.5 || ref >= 100.5 {
		t.Fatalf("reference %.4f outside [best bid, best ask]", ref)
	}
}

func TestVAMPInsufficientDepthFallsBackToMid(t *testing.T) {
	// Ask side holds ~50 notional, far below the 200 target: the reference
	// falls back to the plain mid and no quote is dropped.
	book := testBook(
		[]model.Level{{Price: 99.9, Size: 100}},
		[]model.Level{{Price: 100.1, Size: 0.5}},
	)

	quote, ok := VAMP{}.ComputeQuote(book, model.Position{}, testParams(200, 10, 0))
	if !ok {
		t.Fatal("expected a quote from mid fallback")
	}
	approx(t, quote.BidPrice, 99.95, 1e-9, "bid price")
	approx(t, quote.AskPrice, 100.05, 1e-9, "ask price")
}

func TestVAMPHoldsOnDegenerateBooks(t *testing.T) {
	params := testParams(200, 10, 0)

	if _, ok := (VAMP{}).ComputeQuote(testBook(nil, nil), model.Position{}, params); ok {
		t.Fatal("empty book must hold")
	}

	oneSided := testBook([]model.Level{{Price: 99.9, Size: 100}}, nil)
	if _, ok := (VAMP{}).ComputeQuote(oneSided, model.Position{}, params); ok {
		t.Fatal("one-sided book must hold")
	}

	// Zero-priced levels carry no usable depth on the ask side; the mid
	// fallback is degenerate too, so the strategy must hold rather than
	// quote a non-positive price.
	poisoned := testBook(
		[]model.Level{{Price: 99.9, Size: 100}},
		[]model.Level{{Price: 0, Size: 100}},
	)
	if _, ok := (VAMP{}).ComputeQuote(poisoned, model.Position{}, params); ok {
		t.Fatal("degenerate ask side must hold")
	}
}

func TestCatalog(t *testing.T) {
	if !Known("vamp") {
		t.Fatal("vamp should be registered")
	}
	if Known("grid") {
		t.Fatal("grid should not be registered")
	}

	s, err := Build("vamp")
	if err != nil {
		t.Fatalf("build vamp: %v", err)
	}
	if s.Name() != "vamp" {
		t.Fatalf("name mismatch: %s", s.Name())
	}

	if _, err := Build("grid"); err == nil {
		t.Fatal("unknown strategy must fail")
	}
}

package risk

import (
	"testing"

	"main/internal/model"
	"main/internal/model/enum"
)

func TestKillSwitchDeniesEverything(t *testing.T) {
	e := NewEngine(Config{KillSwitch: true})
	d := e.Evaluate(enum.OrderSideBuy, 100, 1, model.Position{}, 100)
	if d.Allowed() {
		t.Fatal("kill switch should deny")
	}
	if d.Reason != ReasonKillSwitch {
		t.Fatalf("reason mismatch: %v", d.Reason)
	}
}

func TestMaxPositionCountsProjectedSize(t *testing.T) {
	e := NewEngine(Config{MaxPosition: 3})

	pos := model.Position{Size: 2.5}
	if d := e.Evaluate(enum.OrderSideBuy, 100, 1, pos, 100); d.Allowed() {
		t.Fatal("projected long 3.5 should exceed max position 3")
	}
	if d := e.Evaluate(enum.OrderSideSell, 100, 1, pos, 100); !d.Allowed() {
		t.Fatalf("reducing sell should be allowed, got %v", d.Reason)
	}

	short := model.Position{Size: -2.5}
	if d := e.Evaluate(enum.OrderSideSell, 100, 1, short, 100); d.Allowed() {
		t.Fatal("projected short -3.5 should exceed max position 3")
	}
}

func TestMaxOrderValue(t *testing.T) {
	e := NewEngine(Config{MaxOrderValue: 500})
	if d := e.Evaluate(enum.OrderSideBuy, 100, 6, model.Position{}, 100); d.Allowed() {
		t.Fatal("notional 600 should exceed max order value 500")
	}
	if d := e.Evaluate(enum.OrderSideBuy, 100, 4, model.Position{}, 100); !d.Allowed() {
		t.Fatalf("notional 400 should pass, got %v", d.Reason)
	}
}

func TestPriceDeviation(t *testing.T) {
	e := NewEngine(Config{MaxPriceDeviationBps: 50})
	if d := e.Evaluate(enum.OrderSideBuy, 101, 1, model.Position{}, 100); d.Allowed() {
		t.Fatal("100 bps deviation should be denied")
	}
	if d := e.Evaluate(enum.OrderSideBuy, 100.2, 1, model.Position{}, 100); !d.Allowed() {
		t.Fatalf("20 bps deviation should pass, got %v", d.Reason)
	}
	// No reference mid: deviation check is skipped.
	if d := e.Evaluate(enum.OrderSideBuy, 101, 1, model.Position{}, 0); !d.Allowed() {
		t.Fatalf("missing mid should skip deviation check, got %v", d.Reason)
	}
}

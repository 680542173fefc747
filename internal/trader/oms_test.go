package trader

import (
	"errors"
	"testing"

	"main/internal/gateway"
	"main/internal/model/enum"
	"main/pkg/exception"
)

func TestOMSPlacementLifecycle(t *testing.T) {
	oms := NewOMS()

	order, err := oms.Reserve(enum.OrderSideBuy, 100, 1)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if order.Status != enum.OrderStatusPending {
		t.Fatalf("expected PENDING, got %s", order.Status)
	}

	if _, err := oms.Reserve(enum.OrderSideBuy, 100, 1); !errors.Is(err, exception.ErrOrderSideOccupied) {
		t.Fatalf("expected ErrOrderSideOccupied, got %v", err)
	}

	if err := oms.Confirm(enum.OrderSideBuy, "o1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if order.Status != enum.OrderStatusLive || order.ID != "o1" {
		t.Fatalf("expected LIVE o1, got %s %s", order.Status, order.ID)
	}

	if err := oms.Confirm(enum.OrderSideBuy, "o2"); !errors.Is(err, exception.ErrOrderInvalidState) {
		t.Fatalf("double confirm must fail, got %v", err)
	}
}

func TestOMSAbortFreesSide(t *testing.T) {
	oms := NewOMS()

	if _, err := oms.Reserve(enum.OrderSideSell, 101, 1); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	oms.Abort(enum.OrderSideSell)

	if _, ok := oms.Working(enum.OrderSideSell); ok {
		t.Fatal("aborted side must be free")
	}
	if _, err := oms.Reserve(enum.OrderSideSell, 101, 1); err != nil {
		t.Fatalf("re-reserve after abort: %v", err)
	}
}

func TestOMSCancelFlow(t *testing.T) {
	oms := NewOMS()

	if _, err := oms.Reserve(enum.OrderSideBuy, 100, 1); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := oms.RequestCancel(enum.OrderSideBuy); !errors.Is(err, exception.ErrOrderInvalidState) {
		t.Fatalf("cancel of pending order must fail, got %v", err)
	}
	if err := oms.Confirm(enum.OrderSideBuy, "o1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if err := oms.RequestCancel(enum.OrderSideBuy); err != nil {
		t.Fatalf("request cancel: %v", err)
	}
	working, _ := oms.Working(enum.OrderSideBuy)
	if working.Status != enum.OrderStatusPendingCancel {
		t.Fatalf("expected PENDING_CANCEL, got %s", working.Status)
	}

	oms.Reopen(enum.OrderSideBuy)
	if working.Status != enum.OrderStatusLive {
		t.Fatalf("reopen must restore LIVE, got %s", working.Status)
	}

	if err := oms.RequestCancel(enum.OrderSideBuy); err != nil {
		t.Fatalf("request cancel again: %v", err)
	}
	oms.Release(enum.OrderSideBuy, enum.OrderStatusCancelled)
	if _, ok := oms.Working(enum.OrderSideBuy); ok {
		t.Fatal("released side must be free")
	}
}

func TestOMSFillsExhaustOrder(t *testing.T) {
	oms := NewOMS()

	if _, err := oms.Reserve(enum.OrderSideBuy, 100, 2); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := oms.Confirm(enum.OrderSideBuy, "o1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	order, ok := oms.ApplyExec(gateway.ExecEvent{Type: enum.ExecTypeFill, OrderID: "o1", Size: 1})
	if !ok {
		t.Fatal("fill must match the working order")
	}
	if order.Status != enum.OrderStatusLive || order.Remaining != 1 {
		t.Fatalf("partial fill: expected LIVE remaining 1, got %s %.2f", order.Status, order.Remaining)
	}

	order, ok = oms.ApplyExec(gateway.ExecEvent{Type: enum.ExecTypeFill, OrderID: "o1", Size: 1})
	if !ok || order.Status != enum.OrderStatusFilled {
		t.Fatalf("full fill: expected FILLED, got %v %s", ok, order.Status)
	}
	if _, occupied := oms.Working(enum.OrderSideBuy); occupied {
		t.Fatal("filled side must be free")
	}
}

func TestOMSIgnoresUnknownOrders(t *testing.T) {
	oms := NewOMS()

	if _, ok := oms.ApplyExec(gateway.ExecEvent{Type: enum.ExecTypeFill, OrderID: "ghost", Size: 1}); ok {
		t.Fatal("unknown order id must be ignored")
	}
	if _, ok := oms.ApplyExec(gateway.ExecEvent{Type: enum.ExecTypeCancel}); ok {
		t.Fatal("empty order id must be ignored")
	}
}

func TestOMSCancelAndRejectEvents(t *testing.T) {
	oms := NewOMS()

	if _, err := oms.Reserve(enum.OrderSideSell, 101, 1); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := oms.Confirm(enum.OrderSideSell, "o1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	order, ok := oms.ApplyExec(gateway.ExecEvent{Type: enum.ExecTypeCancel, OrderID: "o1"})
	if !ok || order.Status != enum.OrderStatusCancelled {
		t.Fatalf("expected CANCELLED, got %v %s", ok, order.Status)
	}

	if _, err := oms.Reserve(enum.OrderSideSell, 101, 1); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := oms.Confirm(enum.OrderSideSell, "o2"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	order, ok = oms.ApplyExec(gateway.ExecEvent{Type: enum.ExecTypeReject, OrderID: "o2"})
	if !ok || order.Status != enum.OrderStatusRejected {
		t.Fatalf("expected REJECTED, got %v %s", ok, order.Status)
	}
}

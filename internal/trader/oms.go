package trader

import (
	"time"

	"main/internal/gateway"
	"main/internal/model/enum"
	"main/pkg/exception"
)

// ManagedOrder is the trader's view of one working order.
type ManagedOrder struct {
	ID        string
	Side      enum.OrderSide
	Price     float64
	Size      float64
	Remaining float64
	Status    enum.OrderStatus
	PlacedAt  time.Time
}

// OMS tracks at most one working order per side for a single
// (wallet, market) pair. Each trader owns its own OMS; it is not safe for
// concurrent use.
type OMS struct {
	working map[enum.OrderSide]*ManagedOrder
}

// NewOMS creates an empty order manager.
func NewOMS() *OMS {
	return &OMS{working: make(map[enum.OrderSide]*ManagedOrder)}
}

// Working returns the working order on a side.
func (o *OMS) Working(side enum.OrderSide) (*ManagedOrder, bool) {
	order, ok := o.working[side]
	return order, ok
}

// WorkingCount returns the number of sides with a working order.
func (o *OMS) WorkingCount() int {
	return len(o.working)
}

// Reserve claims a side for a new placement and returns the order in
// Pending. A side that already has a working order cannot be reserved.
func (o *OMS) Reserve(side enum.OrderSide, price, size float64) (*ManagedOrder, error) {
	if !side.IsAvailable() {
		return nil, exception.ErrOrderInvalidState
	}
	if _, ok := o.working[side]; ok {
		return nil, exception.ErrOrderSideOccupied
	}

	order := &ManagedOrder{
		Side:      side,
		Price:     price,
		Size:      size,
		Remaining: size,
		Status:    enum.OrderStatusPending,
		PlacedAt:  time.Now(),
	}
	o.working[side] = order
	return order, nil
}

// Confirm moves a Pending order to Live once the venue acknowledged it.
func (o *OMS) Confirm(side enum.OrderSide, orderID string) error {
	order, ok := o.working[side]
	if !ok {
		return exception.ErrOrderUnknown
	}
	if order.Status != enum.OrderStatusPending {
		return exception.ErrOrderInvalidState
	}

	order.ID = orderID
	order.Status = enum.OrderStatusLive
	return nil
}

// Abort releases a side whose placement never reached the venue.
func (o *OMS) Abort(side enum.OrderSide) {
	order, ok := o.working[side]
	if !ok || order.Status != enum.OrderStatusPending {
		return
	}
	delete(o.working, side)
}

// RequestCancel marks a Live order as PendingCancel.
func (o *OMS) RequestCancel(side enum.OrderSide) error {
	order, ok := o.working[side]
	if !ok {
		return exception.ErrOrderUnknown
	}
	if order.Status != enum.OrderStatusLive {
		return exception.ErrOrderInvalidState
	}
	order.Status = enum.OrderStatusPendingCancel
	return nil
}

// Reopen returns a PendingCancel order to Live after a failed cancel call,
// so the next cycle retries the cancel.
func (o *OMS) Reopen(side enum.OrderSide) {
	order, ok := o.working[side]
	if !ok || order.Status != enum.OrderStatusPendingCancel {
		return
	}
	order.Status = enum.OrderStatusLive
}

// Release drops a working order whose terminal state was confirmed out of
// band, such as a cancel acknowledged synchronously by the venue.
func (o *OMS) Release(side enum.OrderSide, status enum.OrderStatus) {
	order, ok := o.working[side]
	if !ok || !status.IsTerminal() {
		return
	}
	order.Status = status
	delete(o.working, side)
}

// ApplyExec updates the matching order from an execution event and returns
// it. Events for orders the OMS no longer tracks report false; fills that do
// not exhaust the order keep it Live.
func (o *OMS) ApplyExec(event gateway.ExecEvent) (*ManagedOrder, bool) {
	order, ok := o.byID(event.OrderID)
	if !ok {
		return nil, false
	}

	switch event.Type {
	case enum.ExecTypeFill:
		order.Remaining -= event.Size
		if order.Remaining > 1e-12 {
			return order, true
		}
		order.Remaining = 0
		order.Status = enum.OrderStatusFilled
		delete(o.working, order.Side)
	case enum.ExecTypeCancel:
		order.Status = enum.OrderStatusCancelled
		delete(o.working, order.Side)
	case enum.ExecTypeReject:
		order.Status = enum.OrderStatusRejected
		delete(o.working, order.Side)
	default:
		return nil, false
	}
	return order, true
}

func (o *OMS) byID(orderID string) (*ManagedOrder, bool) {
	if orderID == "" {
		return nil, false
	}
	for _, order := range o.working {
		if order.ID == orderID {
			return order, true
		}
	}
	return nil, false
}

package gateway

import (
	"context"
	"time"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/ops"
)

// OrderRequest is one order placement intent.
type OrderRequest struct {
	Wallet string
	Market string
	Side   enum.OrderSide
	Price  float64
	Size   float64
}

// ExecEvent is one execution event from the venue: a fill, a cancel
// acknowledgment or a rejection. Events for one wallet are delivered in the
// order the venue emitted them.
type ExecEvent struct {
	Type    enum.ExecType
	Wallet  string
	Market  string
	OrderID string
	FillID  string
	Side    enum.OrderSide
	Price   float64
	Size    float64
	At      time.Time
}

// Venue is the capability boundary to the exchange. Implementations own the
// wire protocol; errors must map onto the pkg/exception taxonomy:
// ErrConnection on connect failures, ErrOrderRateLimited / ErrOrderRejected /
// ErrNetwork on placement, ErrOrderNotFound on cancel of an unknown order.
type Venue interface {
	Connect(ctx context.Context, creds []ops.WalletCredential) error
	SubscribeBook(ctx context.Context, market string, handler func(model.Book)) (unsubscribe func(), err error)
	ObserveExec(ctx context.Context, handler func(ExecEvent)) (unsubscribe func(), err error)
	PlaceOrder(ctx context.Context, req OrderRequest) (orderID string, err error)
	CancelOrder(ctx context.Context, wallet, orderID string) error
	Close() error
}

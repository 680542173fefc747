package trader

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"time"

	"main/internal/gateway"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/risk"
	"main/internal/state"
	"main/internal/strategy"
	"main/pkg/exception"

	"github.com/yanun0323/logs"
)

// A book older than this many refresh intervals is treated as unusable.
const _staleIntervals = 10

// Trader runs the quoting loop for one (wallet, market, strategy) task. It
// owns its OMS and position reducer; only Run touches them, so the loop needs
// no locking.
type Trader struct {
	task    model.Task
	spec    ops.TraderSpec
	gw      *gateway.Manager
	strat   strategy.Strategy
	risk    *risk.Engine
	reducer *state.Reducer
	journal *state.Journal
	metrics *obs.Metrics
	oms     *OMS

	state atomic.Uint32
}

// New creates a trader for one task. journal may be nil to run without
// persistence.
func New(task model.Task, spec ops.TraderSpec, gw *gateway.Manager, strat strategy.Strategy, riskEngine *risk.Engine, journal *state.Journal, metrics *obs.Metrics) *Trader {
	t := &Trader{
		task:    task,
		spec:    spec,
		gw:      gw,
		strat:   strat,
		risk:    riskEngine,
		reducer: state.NewReducer(),
		journal: journal,
		metrics: metrics,
		oms:     NewOMS(),
	}
	t.state.Store(uint32(enum.TraderStateInitializing))
	return t
}

// Task returns the task this trader runs.
func (t *Trader) Task() model.Task {
	return t.task
}

// State returns the trader lifecycle state.
func (t *Trader) State() enum.TraderState {
	return enum.TraderState(t.state.Load())
}

func (t *Trader) setState(s enum.TraderState) {
	t.state.Store(uint32(s))
}

// Run drives the trader until ctx ends, then cancels every working order
// before returning. The returned error reports a failed start; a clean
// shutdown returns nil.
func (t *Trader) Run(ctx context.Context) error {
	t.setState(enum.TraderStateInitializing)

	handle, release, err := t.gw.SubscribeBook(ctx, t.task.MarketSymbol)
	if err != nil {
		t.setState(enum.TraderStateStopped)
		return err
	}
	defer release()

	if err := t.recoverPosition(); err != nil {
		t.setState(enum.TraderStateStopped)
		return err
	}

	if err := t.awaitFirstBook(ctx, handle); err != nil {
		t.shutdown()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	t.setState(enum.TraderStateActive)
	logs.Infof("trader %s/%s: active, strategy %s",
		t.task.WalletName, t.task.MarketSymbol, t.strat.Name())

	ticker := time.NewTicker(t.task.Params.RefreshInterval)
	defer ticker.Stop()

	events := t.gw.Events(t.task.WalletName, t.task.MarketSymbol)

	for {
		select {
		case <-ctx.Done():
			t.shutdown()
			return nil
		case event := <-events:
			t.applyExec(event)
		case <-ticker.C:
			t.drainEvents(events)
			t.cycle(ctx, handle)
		}
	}
}

func (t *Trader) recoverPosition() error {
	pos, err := t.journal.RecoverPosition(t.task.WalletName, t.task.MarketSymbol)
	if err != nil {
		return err
	}
	if pos.Size != 0 {
		logs.Infof("trader %s/%s: recovered position %.8f @ %.8f",
			t.task.WalletName, t.task.MarketSymbol, pos.Size, pos.AvgEntryPrice)
	}
	t.reducer.Seed(pos)
	return nil
}

func (t *Trader) awaitFirstBook(ctx context.Context, handle *gateway.BookHandle) error {
	for {
		changed := handle.Changed()
		if handle.Load() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

// cycle runs one reconciliation pass: drain what the venue reported, ask the
// strategy for the desired quote, then converge each side toward it.
func (t *Trader) cycle(ctx context.Context, handle *gateway.BookHandle) {
	t.metrics.IncCycle()

	book := handle.Load()
	if book.Empty() || t.stale(book) {
		t.metrics.IncHold()
		return
	}

	pos := t.reducer.Position(t.task.WalletName, t.task.MarketSymbol)
	quote, ok := t.strat.ComputeQuote(book, pos, t.task.Params)
	if !ok {
		t.metrics.IncHold()
		return
	}

	mid, _ := book.Mid()
	t.reconcileSide(ctx, enum.OrderSideBuy, quote.BidPrice, quote.BidSize, pos, mid)
	t.reconcileSide(ctx, enum.OrderSideSell, quote.AskPrice, quote.AskSize, pos, mid)
}

func (t *Trader) stale(book *model.Book) bool {
	if book.UpdatedAt.IsZero() {
		return false
	}
	return time.Since(book.UpdatedAt) > _staleIntervals*t.task.Params.RefreshInterval
}

// reconcileSide keeps at most one live order on a side. A live order within
// price tolerance of the desired quote is left alone; anything else is
// cancelled and replaced.
func (t *Trader) reconcileSide(ctx context.Context, side enum.OrderSide, price, size float64, pos model.Position, mid float64) {
	if working, ok := t.oms.Working(side); ok {
		if working.Status != enum.OrderStatusLive {
			return
		}
		if withinTolerance(working.Price, price, t.spec.PriceToleranceBps) {
			return
		}
		if err := t.cancelWorking(ctx, side, working); err != nil {
			logs.Warnf("trader %s/%s: cancel %s %s: %v",
				t.task.WalletName, t.task.MarketSymbol, side, working.ID, err)
			return
		}
	}

	t.place(ctx, side, price, size, pos, mid)
}

func (t *Trader) cancelWorking(ctx context.Context, side enum.OrderSide, working *ManagedOrder) error {
	if err := t.oms.RequestCancel(side); err != nil {
		return err
	}
	if err := t.gw.CancelOrder(ctx, t.task.WalletName, working.ID); err != nil {
		t.oms.Reopen(side)
		return err
	}
	t.oms.Release(side, enum.OrderStatusCancelled)
	return nil
}

func (t *Trader) place(ctx context.Context, side enum.OrderSide, price, size float64, pos model.Position, mid float64) {
	if price <= 0 || size <= 0 {
		return
	}

	decision := t.risk.Evaluate(side, price, size, pos, mid)
	if !decision.Allowed() {
		logs.Warnf("trader %s/%s: %s %.8f x %.8f denied by risk: %s",
			t.task.WalletName, t.task.MarketSymbol, side, price, size, decision.Reason)
		return
	}

	if _, err := t.oms.Reserve(side, price, size); err != nil {
		return
	}

	orderID, err := t.placeWithRetry(ctx, gateway.OrderRequest{
		Wallet: t.task.WalletName,
		Market: t.task.MarketSymbol,
		Side:   side,
		Price:  price,
		Size:   size,
	})
	if err != nil {
		t.oms.Abort(side)
		logs.Warnf("trader %s/%s: place %s %.8f x %.8f: %v",
			t.task.WalletName, t.task.MarketSymbol, side, price, size, err)
		return
	}

	if err := t.oms.Confirm(side, orderID); err != nil {
		logs.Errorf("trader %s/%s: confirm %s: %v",
			t.task.WalletName, t.task.MarketSymbol, orderID, err)
	}
}

// placeWithRetry retries transient placement failures with exponential
// backoff. Rejections are final and return immediately.
func (t *Trader) placeWithRetry(ctx context.Context, req gateway.OrderRequest) (string, error) {
	var lastErr error
	for attempt := 0; attempt < t.spec.RetryAttempts; attempt++ {
		if attempt > 0 {
			t.metrics.IncRetry()
			if err := sleep(ctx, backoffDelay(t.spec.RetryBackoff, attempt-1)); err != nil {
				return "", err
			}
		}

		orderID, err := t.gw.PlaceOrder(ctx, req)
		if err == nil {
			return orderID, nil
		}
		if !retryable(err) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

func retryable(err error) bool {
	return errors.Is(err, exception.ErrOrderRateLimited) || errors.Is(err, exception.ErrNetwork)
}

func (t *Trader) applyExec(event gateway.ExecEvent) {
	if event.Type == enum.ExecTypeFill {
		pos := t.reducer.ApplyFill(event.Wallet, event.Market, event.Side, event.Price, event.Size, event.FillID)
		if err := t.journal.Record(state.Fill{
			FillID: event.FillID,
			Wallet: event.Wallet,
			Market: event.Market,
			Side:   event.Side.String(),
			Price:  event.Price,
			Size:   event.Size,
		}); err != nil {
			logs.Warnf("trader %s/%s: journal fill %s: %v",
				t.task.WalletName, t.task.MarketSymbol, event.FillID, err)
		}
		logs.Debugf("trader %s/%s: fill %s %.8f x %.8f, position %.8f",
			t.task.WalletName, t.task.MarketSymbol, event.Side, event.Price, event.Size, pos.Size)
	}

	if order, ok := t.oms.ApplyExec(event); ok && order.Status.IsTerminal() {
		logs.Debugf("trader %s/%s: order %s %s",
			t.task.WalletName, t.task.MarketSymbol, order.ID, order.Status)
	}
}

func (t *Trader) drainEvents(events <-chan gateway.ExecEvent) {
	for {
		select {
		case event := <-events:
			t.applyExec(event)
		default:
			return
		}
	}
}

// shutdown cancels every working order under the shutdown budget, then marks
// the trader stopped.
func (t *Trader) shutdown() {
	t.setState(enum.TraderStateShuttingDown)

	ctx, cancel := context.WithTimeout(context.Background(), t.spec.ShutdownTimeout)
	defer cancel()

	for _, side := range []enum.OrderSide{enum.OrderSideBuy, enum.OrderSideSell} {
		working, ok := t.oms.Working(side)
		if !ok {
			continue
		}
		if working.ID == "" {
			t.oms.Abort(side)
			continue
		}
		if err := t.gw.CancelOrder(ctx, t.task.WalletName, working.ID); err != nil {
			logs.Warnf("trader %s/%s: shutdown cancel %s: %v",
				t.task.WalletName, t.task.MarketSymbol, working.ID, err)
			continue
		}
		t.oms.Release(side, enum.OrderStatusCancelled)
	}

	t.setState(enum.TraderStateStopped)
	logs.Infof("trader %s/%s: stopped", t.task.WalletName, t.task.MarketSymbol)
}

func withinTolerance(current, desired, toleranceBps float64) bool {
	if desired <= 0 {
		return false
	}
	return math.Abs(current-desired)/desired*1e4 <= toleranceBps
}

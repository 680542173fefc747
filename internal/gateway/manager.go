package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"main/internal/model"
	"main/internal/obs"
	"main/internal/ops"
	"main/pkg/exception"

	"github.com/yanun0323/logs"
	"golang.org/x/time/rate"
)

// Config tunes the shared gateway session.
type Config struct {
	RequestsPerSecond float64
	Burst             int
	EventBuffer       int
}

const defaultEventBuffer = 256

// Manager owns the single venue session shared by all traders. It
// deduplicates book subscriptions by market, routes execution events to
// per-task inboxes, and enforces the process-wide outbound request budget.
// All methods are safe for concurrent use.
type Manager struct {
	venue   Venue
	cfg     Config
	limiter *rate.Limiter
	metrics *obs.Metrics

	mu    sync.Mutex
	books map[string]*bookSub

	inboxMu sync.RWMutex
	inboxes map[inboxKey]chan ExecEvent

	execStop  func()
	connected atomic.Bool
}

type inboxKey struct {
	wallet string
	market string
}

type bookSub struct {
	handle      *BookHandle
	refCount    int
	unsubscribe func()

	// initOnce guards the venue subscribe call so it runs off m.mu; a slow
	// subscribe only blocks callers of the same market.
	initOnce sync.Once
	initErr  error
}

// New creates a gateway manager around a venue client.
func New(venue Venue, cfg Config, metrics *obs.Metrics) *Manager {
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaultEventBuffer
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 8
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RequestsPerSecond)
	}
	return &Manager{
		venue:   venue,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		metrics: metrics,
		books:   make(map[string]*bookSub),
		inboxes: make(map[inboxKey]chan ExecEvent),
	}
}

// Connect establishes the shared session for all wallets and starts the
// execution event feed. It must succeed once before any trader runs; a
// failure here is fatal to the whole process.
func (m *Manager) Connect(ctx context.Context, creds []ops.WalletCredential) error {
	if m == nil || m.venue == nil {
		return exception.ErrNilInstance
	}

	if err := m.venue.Connect(ctx, creds); err != nil {
		return err
	}

	stop, err := m.venue.ObserveExec(ctx, m.dispatch)
	if err != nil {
		return err
	}
	m.execStop = stop
	m.connected.Store(true)
	logs.Infof("gateway: connected, %d wallet(s)", len(creds))
	return nil
}

// SubscribeBook returns a live book handle for a market. Traders on the same
// market share one venue subscription; release must be called exactly once
// per handle and tears the subscription down when the last reference goes.
func (m *Manager) SubscribeBook(ctx context.Context, market string) (*BookHandle, func(), error) {
	if market == "" {
		return nil, nil, exception.ErrMarketDataInvalidRequest
	}
	if !m.connected.Load() {
		return nil, nil, exception.ErrNotConnected
	}

	m.mu.Lock()
	sub, ok := m.books[market]
	if !ok {
		sub = &bookSub{handle: newBookHandle(market)}
		m.books[market] = sub
	}
	sub.refCount++
	m.mu.Unlock()

	sub.initOnce.Do(func() {
		handle := sub.handle
		sub.unsubscribe, sub.initErr = m.venue.SubscribeBook(ctx, market, func(book model.Book) {
			handle.store(&book)
			m.metrics.IncBookUpdate()
		})
	})
	if err := sub.initErr; err != nil {
		// Drop the failed entry so the next subscriber retries fresh.
		m.mu.Lock()
		sub.refCount--
		if sub.refCount == 0 && m.books[market] == sub {
			delete(m.books, market)
		}
		m.mu.Unlock()
		return nil, nil, err
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			m.releaseBook(market)
		})
	}
	return sub.handle, release, nil
}

func (m *Manager) releaseBook(market string) {
	m.mu.Lock()
	sub, ok := m.books[market]
	if !ok {
		m.mu.Unlock()
		return
	}
	sub.refCount--
	if sub.refCount > 0 {
		m.mu.Unlock()
		return
	}
	delete(m.books, market)
	m.mu.Unlock()

	if sub.unsubscribe != nil {
		sub.unsubscribe()
	}
}

// PlaceOrder submits one order through the shared session. It blocks on the
// process-wide request budget before dispatching.
func (m *Manager) PlaceOrder(ctx context.Context, req OrderRequest) (string, error) {
	if !m.connected.Load() {
		return "", exception.ErrNotConnected
	}
	if err := m.waitBudget(ctx); err != nil {
		return "", err
	}

	start := time.Now()
	orderID, err := m.venue.PlaceOrder(ctx, req)
	m.metrics.ObservePlaceRoundTrip(time.Since(start))

	switch {
	case err == nil:
		m.metrics.IncOrderPlaced()
	case errors.Is(err, exception.ErrOrderRejected):
		m.metrics.IncOrderRejected()
	}
	return orderID, err
}

// CancelOrder cancels one order. Cancelling an order the venue no longer
// knows is treated as already terminal and returns nil.
func (m *Manager) CancelOrder(ctx context.Context, wallet, orderID string) error {
	if !m.connected.Load() {
		return exception.ErrNotConnected
	}
	if err := m.waitBudget(ctx); err != nil {
		return err
	}

	start := time.Now()
	err := m.venue.CancelOrder(ctx, wallet, orderID)
	m.metrics.ObserveCancelRoundTrip(time.Since(start))

	if err == nil || errors.Is(err, exception.ErrOrderNotFound) {
		m.metrics.IncOrderCancelled()
		return nil
	}
	return err
}

// Events returns the execution event inbox for one (wallet, market) pair.
// Each trader drains its own inbox; events are delivered in venue order.
func (m *Manager) Events(wallet, market string) <-chan ExecEvent {
	return m.inbox(inboxKey{wallet: wallet, market: market})
}

// Close stops the execution feed and releases the venue session. Traders
// must already be stopped.
func (m *Manager) Close() error {
	if !m.connected.Swap(false) {
		return nil
	}
	if m.execStop != nil {
		m.execStop()
	}

	m.mu.Lock()
	subs := make([]*bookSub, 0, len(m.books))
	for market, sub := range m.books {
		subs = append(subs, sub)
		delete(m.books, market)
	}
	m.mu.Unlock()

	for _, sub := range subs {
		if sub.unsubscribe != nil {
			sub.unsubscribe()
		}
	}

	return m.venue.Close()
}

func (m *Manager) waitBudget(ctx context.Context) error {
	if m.limiter.Allow() {
		return nil
	}
	m.metrics.IncRateLimitWait()
	return m.limiter.Wait(ctx)
}

func (m *Manager) inbox(key inboxKey) chan ExecEvent {
	m.inboxMu.RLock()
	ch, ok := m.inboxes[key]
	m.inboxMu.RUnlock()
	if ok {
		return ch
	}

	m.inboxMu.Lock()
	defer m.inboxMu.Unlock()
	if ch, ok = m.inboxes[key]; ok {
		return ch
	}
	ch = make(chan ExecEvent, m.cfg.EventBuffer)
	m.inboxes[key] = ch
	return ch
}

// dispatch runs on the venue feed goroutine; per-inbox ordering follows
// from the single caller. Inboxes are sized for several cycles of events,
// a full one means the owning trader stopped draining.
func (m *Manager) dispatch(event ExecEvent) {
	m.metrics.IncExecEvent()
	select {
	case m.inbox(inboxKey{wallet: event.Wallet, market: event.Market}) <- event:
	default:
		m.metrics.IncEventDrop()
		logs.Warnf("gateway: exec inbox full, dropped %s for %s on %s",
			event.Type, event.Wallet, event.Market)
	}
}

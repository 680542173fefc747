package obs

import (
	"sync/atomic"
	"time"
)

// Metrics collects lightweight counters and latency stats for the quoting
// engine. One instance is shared by all traders and the gateway.
type Metrics struct {
	cycles          uint64
	holds           uint64
	ordersPlaced    uint64
	ordersCancelled uint64
	ordersRejected  uint64
	retries         uint64
	rateLimitWaits  uint64
	bookUpdates     uint64
	execEvents      uint64
	eventDrops      uint64

	orderLatency  LatencyStats
	cancelLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	Cycles          uint64
	Holds           uint64
	OrdersPlaced    uint64
	OrdersCancelled uint64
	OrdersRejected  uint64
	Retries         uint64
	RateLimitWaits  uint64
	BookUpdates     uint64
	ExecEvents      uint64
	EventDrops      uint64
	OrderLatency    LatencySnapshot
	CancelLatency   LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncCycle records one completed reconciliation cycle.
func (m *Metrics) IncCycle() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.cycles, 1)
}

// IncHold records a cycle where the strategy withheld its quote.
func (m *Metrics) IncHold() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.holds, 1)
}

// IncOrderPlaced records a successful order placement.
func (m *Metrics) IncOrderPlaced() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ordersPlaced, 1)
}

// IncOrderCancelled records a successful cancel.
func (m *Metrics) IncOrderCancelled() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ordersCancelled, 1)
}

// IncOrderRejected records a venue rejection.
func (m *Metrics) IncOrderRejected() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ordersRejected, 1)
}

// IncRetry records one retried order call.
func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.retries, 1)
}

// IncRateLimitWait records a block on the shared request budget.
func (m *Metrics) IncRateLimitWait() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.rateLimitWaits, 1)
}

// IncBookUpdate records one book snapshot replacement.
func (m *Metrics) IncBookUpdate() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.bookUpdates, 1)
}

// IncExecEvent records one delivered execution event.
func (m *Metrics) IncExecEvent() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.execEvents, 1)
}

// IncEventDrop records an execution event dropped on a full inbox.
func (m *Metrics) IncEventDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.eventDrops, 1)
}

// ObservePlaceRoundTrip measures a place-order round trip.
func (m *Metrics) ObservePlaceRoundTrip(d time.Duration) {
	if m == nil {
		return
	}
	m.orderLatency.Observe(d)
}

// ObserveCancelRoundTrip measures a cancel-order round trip.
func (m *Metrics) ObserveCancelRoundTrip(d time.Duration) {
	if m == nil {
		return
	}
	m.cancelLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		Cycles:          atomic.LoadUint64(&m.cycles),
		Holds:           atomic.LoadUint64(&m.holds),
		OrdersPlaced:    atomic.LoadUint64(&m.ordersPlaced),
		OrdersCancelled: atomic.LoadUint64(&m.ordersCancelled),
		OrdersRejected:  atomic.LoadUint64(&m.ordersRejected),
		Retries:         atomic.LoadUint64(&m.retries),
		RateLimitWaits:  atomic.LoadUint64(&m.rateLimitWaits),
		BookUpdates:     atomic.LoadUint64(&m.bookUpdates),
		ExecEvents:      atomic.LoadUint64(&m.execEvents),
		EventDrops:      atomic.LoadUint64(&m.eventDrops),
		OrderLatency:    m.orderLatency.Snapshot(),
		CancelLatency:   m.cancelLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}

package gateway

import (
	"sync"
	"sync/atomic"

	"main/internal/model"
)

// BookHandle is a live-updating view of one market's order book. Load is
// wait-free; each venue update replaces the snapshot atomically, so readers
// never observe a partially applied book.
type BookHandle struct {
	market string
	ptr    atomic.Pointer[model.Book]

	mu      sync.Mutex
	changed chan struct{}
}

func newBookHandle(market string) *BookHandle {
	return &BookHandle{
		market:  market,
		changed: make(chan struct{}),
	}
}

// Market returns the subscribed market symbol.
func (h *BookHandle) Market() string {
	return h.market
}

// Load returns the latest snapshot, or nil before the first one arrives.
func (h *BookHandle) Load() *model.Book {
	return h.ptr.Load()
}

// Changed returns a channel closed on the next snapshot replacement. Callers
// waiting for the first book select on it together with their context.
func (h *BookHandle) Changed() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.changed
}

func (h *BookHandle) store(book *model.Book) {
	h.ptr.Store(book)

	h.mu.Lock()
	close(h.changed)
	h.changed = make(chan struct{})
	h.mu.Unlock()
}

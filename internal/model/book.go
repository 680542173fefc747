package model

import "time"

// Level is one price level of an order book side.
type Level struct {
	Price float64
	Size  float64
}

// Book is an immutable order book snapshot. A new snapshot replaces the
// previous one atomically; consumers never observe partial updates.
type Book struct {
	Market    string
	Bids      []Level // sorted best first (descending price)
	Asks      []Level // sorted best first (ascending price)
	UpdatedAt time.Time
}

// Empty reports whether either side has no depth.
func (b *Book) Empty() bool {
	return b == nil || len(b.Bids) == 0 || len(b.Asks) == 0
}

// BestBid returns the top bid level.
func (b *Book) BestBid() (Level, bool) {
	if b == nil || len(b.Bids) == 0 {
		return Level{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the top ask level.
func (b *Book) BestAsk() (Level, bool) {
	if b == nil || len(b.Asks) == 0 {
		return Level{}, false
	}
	return b.Asks[0], true
}

// Mid returns the best-bid/best-ask mid price.
func (b *Book) Mid() (float64, bool) {
	if b.Empty() {
		return 0, false
	}
	return (b.Bids[0].Price + b.Asks[0].Price) / 2, true
}

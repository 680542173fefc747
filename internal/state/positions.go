package state

import (
	"main/internal/model"
	"main/internal/model/enum"
)

type positionKey struct {
	wallet string
	market string
}

// Reducer tracks realized positions from confirmed fills. Each trader owns
// its own reducer; it is not safe for concurrent use.
type Reducer struct {
	positions map[positionKey]model.Position
	seen      map[string]struct{}
}

// NewReducer creates an empty reducer.
func NewReducer() *Reducer {
	return &Reducer{
		positions: make(map[positionKey]model.Position),
		seen:      make(map[string]struct{}),
	}
}

// ApplyFill updates the position for one confirmed fill and returns the new
// position. A fill id that was already applied is a no-op, so re-delivered
// events never double count.
func (r *Reducer) ApplyFill(wallet, market string, side enum.OrderSide, price, size float64, fillID string) model.Position {
	key := positionKey{wallet: wallet, market: market}
	current := r.positions[key]

	if fillID != "" {
		if _, ok := r.seen[fillID]; ok {
			return current
		}
		r.seen[fillID] = struct{}{}
	}

	delta := size
	if side == enum.OrderSideSell {
		delta = -size
	}

	next := model.Position{
		Wallet: wallet,
		Market: market,
		Size:   current.Size + delta,
	}

	switch {
	case next.Size == 0:
		next.AvgEntryPrice = 0
	case current.Size == 0:
		next.AvgEntryPrice = price
	case current.Size*delta > 0:
		// Adding to the position: size-weighted average entry.
		oldAbs := abs(current.Size)
		next.AvgEntryPrice = (current.AvgEntryPrice*oldAbs + price*abs(delta)) / (oldAbs + abs(delta))
	case current.Size*next.Size > 0:
		// Reduced but not flipped: entry price unchanged.
		next.AvgEntryPrice = current.AvgEntryPrice
	default:
		// Flipped through zero: the remainder was opened at this fill.
		next.AvgEntryPrice = price
	}

	r.positions[key] = next
	return next
}

// Seed replaces the stored position, used for recovery on start.
func (r *Reducer) Seed(pos model.Position) {
	r.positions[positionKey{wallet: pos.Wallet, market: pos.Market}] = pos
}

// Position returns the current position for a (wallet, market) pair.
func (r *Reducer) Position(wallet, market string) model.Position {
	pos, ok := r.positions[positionKey{wallet: wallet, market: market}]
	if !ok {
		return model.Position{Wallet: wallet, Market: market}
	}
	return pos
}

// Count returns the number of tracked pairs.
func (r *Reducer) Count() int {
	return len(r.positions)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

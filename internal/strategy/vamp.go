package strategy

import (
	"math"

	"main/internal/model"
)

// VAMP quotes around a volume-adjusted mid price: each side of the book is
// walked until the cumulative notional reaches the task's order value, and
// the reference price is the mean of the two size-weighted execution prices.
// Inventory skews both quotes against the position to bias flow toward
// flattening it.
type VAMP struct{}

func (VAMP) Name() string {
	return "vamp"
}

func (VAMP) ComputeQuote(book *model.Book, pos model.Position, params model.StrategyParams) (model.Quote, bool) {
	if book.Empty() || params.OrderValue <= 0 {
		return model.Quote{}, false
	}

	ref, ok := referencePrice(book, params.OrderValue)
	if !ok {
		return model.Quote{}, false
	}

	// Inventory is normalized by the order-value-equivalent size and
	// saturated at one full order on either side, so the skew never exceeds
	// the configured bps regardless of how far inventory has drifted.
	ratio := saturate(pos.Size * ref / params.OrderValue)
	skewBps := params.InventorySkewBps * ratio

	adjusted := ref * (1 - skewBps/1e4)
	half := params.BaseSpreadBps / 2 / 1e4

	bid := adjusted * (1 - half)
	ask := adjusted * (1 + half)
	if !validPrice(bid) || !validPrice(ask) || bid >= ask {
		return model.Quote{}, false
	}

	quote := model.Quote{
		BidPrice: bid,
		BidSize:  params.OrderValue / bid,
		AskPrice: ask,
		AskSize:  params.OrderValue / ask,
	}
	if !validPrice(quote.BidSize) || !validPrice(quote.AskSize) {
		return model.Quote{}, false
	}
	return quote, true
}

// referencePrice computes the volume-adjusted mid. When either side lacks
// the depth to fill the target notional it falls back to the plain mid.
func referencePrice(book *model.Book, orderValue float64) (float64, bool) {
	bidVWAP, bidOK := sideVWAP(book.Bids, orderValue)
	askVWAP, askOK := sideVWAP(book.Asks, orderValue)
	if !bidOK || !askOK {
		bb, okBid := book.BestBid()
		ba, okAsk := book.BestAsk()
		if !okBid || !okAsk || bb.Price <= 0 || ba.Price <= bb.Price {
			return 0, false
		}
		return (bb.Price + ba.Price) / 2, true
	}

	ref := (bidVWAP + askVWAP) / 2
	if !validPrice(ref) {
		return 0, false
	}
	return ref, true
}

// sideVWAP walks one book side consuming depth until the cumulative notional
// reaches target, and returns the size-weighted average execution price. The
// crossing level is consumed partially.
func sideVWAP(levels []model.Level, target float64) (float64, bool) {
	var consumedNotional, consumedSize float64
	for _, lvl := range levels {
		if lvl.Price <= 0 || lvl.Size <= 0 {
			continue
		}
		remaining := target - consumedNotional
		levelNotional := lvl.Price * lvl.Size
		if levelNotional >= remaining {
			consumedSize += remaining / lvl.Price
			consumedNotional = target
			break
		}
		consumedNotional += levelNotional
		consumedSize += lvl.Size
	}
	if consumedNotional < target || consumedSize <= 0 {
		return 0, false
	}
	return target / consumedSize, true
}

func saturate(x float64) float64 {
	switch {
	case x > 1:
		return 1
	case x < -1:
		return -1
	default:
		return x
	}
}

func validPrice(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

package strategy

import (
	"main/internal/model"
)

// Strategy computes a desired quote from market and inventory state. It has
// no exchange access and must not retain references to its inputs.
//
// The boolean result is false when the strategy decides to hold: the trader
// leaves existing orders untouched for that cycle.
type Strategy interface {
	Name() string
	ComputeQuote(book *model.Book, pos model.Position, params model.StrategyParams) (model.Quote, bool)
}

package model

// Quote is the strategy's desired two-sided state for one cycle.
type Quote struct {
	BidPrice float64
	BidSize  float64
	AskPrice float64
	AskSize  float64
}

package model

import "time"

// StrategyParams are the per-task strategy tunables. Read-only after load.
type StrategyParams struct {
	OrderValue       float64
	BaseSpreadBps    float64
	InventorySkewBps float64
	RefreshInterval  time.Duration
}

// Task binds one wallet to one market under one strategy. Immutable once
// loaded; one trader is instantiated per task.
type Task struct {
	WalletName   string
	MarketSymbol string
	StrategyName string
	Params       StrategyParams
}

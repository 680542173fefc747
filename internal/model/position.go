package model

// Position is the realized inventory for one (wallet, market) pair.
// Size is signed: positive long, negative short.
type Position struct {
	Wallet        string
	Market        string
	Size          float64
	AvgEntryPrice float64
}

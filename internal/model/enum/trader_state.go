package enum

// TraderState is the coarse lifecycle of one trader loop.
type TraderState uint8

const (
	_trader_state_beg TraderState = iota
	TraderStateInitializing
	TraderStateActive
	TraderStateShuttingDown
	TraderStateStopped
	_trader_state_end
)

func (s TraderState) IsAvailable() bool {
	return s > _trader_state_beg && s < _trader_state_end
}

func (s TraderState) String() string {
	switch s {
	case TraderStateInitializing:
		return "INITIALIZING"
	case TraderStateActive:
		return "ACTIVE"
	case TraderStateShuttingDown:
		return "SHUTTING_DOWN"
	case TraderStateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

package risk

import (
	"math"

	"main/internal/model"
	"main/internal/model/enum"
)

// Config defines simple pre-trade limits. Zero values disable a check.
type Config struct {
	KillSwitch           bool    `json:"killSwitch"`
	MaxPosition          float64 `json:"maxPosition"`
	MaxOrderValue        float64 `json:"maxOrderValue"`
	MaxPriceDeviationBps float64 `json:"maxPriceDeviationBps"`
}

// Action is the outcome of a risk evaluation.
type Action uint8

const (
	ActionAllow Action = iota
	ActionDeny
)

// Reason explains a denial.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonKillSwitch
	ReasonMaxPosition
	ReasonMaxOrderValue
	ReasonPriceDeviation
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonKillSwitch:
		return "kill switch"
	case ReasonMaxPosition:
		return "max position"
	case ReasonMaxOrderValue:
		return "max order value"
	case ReasonPriceDeviation:
		return "price deviation"
	default:
		return "unknown"
	}
}

// Decision is the result of evaluating one order intent.
type Decision struct {
	Action Action
	Reason Reason
}

// Allowed reports whether the intent may be sent.
func (d Decision) Allowed() bool {
	return d.Action == ActionAllow
}

// Engine evaluates order intents against static limits. One engine is owned
// per trader; it is not safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates a risk engine with static limits.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Evaluate checks an order intent against the configured limits.
// referenceMid may be zero when no book is available; the deviation check is
// skipped in that case.
func (e *Engine) Evaluate(side enum.OrderSide, price, size float64, pos model.Position, referenceMid float64) Decision {
	if e.cfg.KillSwitch {
		return Decision{Action: ActionDeny, Reason: ReasonKillSwitch}
	}

	if e.cfg.MaxOrderValue > 0 && price*size > e.cfg.MaxOrderValue {
		return Decision{Action: ActionDeny, Reason: ReasonMaxOrderValue}
	}

	if e.cfg.MaxPosition > 0 {
		next := pos.Size
		switch side {
		case enum.OrderSideBuy:
			next += size
		case enum.OrderSideSell:
			next -= size
		}
		if math.Abs(next) > e.cfg.MaxPosition {
			return Decision{Action: ActionDeny, Reason: ReasonMaxPosition}
		}
	}

	if e.cfg.MaxPriceDeviationBps > 0 && referenceMid > 0 {
		deviationBps := math.Abs(price-referenceMid) / referenceMid * 1e4
		if deviationBps > e.cfg.MaxPriceDeviationBps {
			return Decision{Action: ActionDeny, Reason: ReasonPriceDeviation}
		}
	}

	return Decision{Action: ActionAllow, Reason: ReasonNone}
}

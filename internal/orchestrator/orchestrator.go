package orchestrator

import (
	"context"

	"main/internal/gateway"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/risk"
	"main/internal/state"
	"main/internal/strategy"
	"main/internal/trader"

	"github.com/yanun0323/logs"
	"golang.org/x/sync/errgroup"
)

// Orchestrator builds one trader per configured task and supervises them. A
// failing trader is logged and left stopped; it never takes its siblings
// down.
type Orchestrator struct {
	traders []*trader.Trader
}

// New instantiates every task's trader. Strategy names were validated at
// config load, so a build failure here means the catalog changed underneath
// us and is fatal.
func New(cfg ops.Loaded, gw *gateway.Manager, journal *state.Journal, metrics *obs.Metrics) (*Orchestrator, error) {
	traders := make([]*trader.Trader, 0, len(cfg.Tasks))
	for _, task := range cfg.Tasks {
		strat, err := strategy.Build(task.StrategyName)
		if err != nil {
			return nil, err
		}
		traders = append(traders, trader.New(
			task, cfg.Trader, gw, strat, risk.NewEngine(cfg.Risk), journal, metrics,
		))
	}
	return &Orchestrator{traders: traders}, nil
}

// Traders returns the supervised traders.
func (o *Orchestrator) Traders() []*trader.Trader {
	return o.traders
}

// Run starts every trader and blocks until all of them have stopped. Trader
// failures are contained; Run itself only ends when ctx does.
func (o *Orchestrator) Run(ctx context.Context) error {
	logs.Infof("orchestrator: starting %d trader(s)", len(o.traders))

	group := new(errgroup.Group)
	for _, tr := range o.traders {
		tr := tr
		group.Go(func() error {
			task := tr.Task()
			if err := tr.Run(ctx); err != nil {
				logs.Errorf("orchestrator: trader %s/%s: %v",
					task.WalletName, task.MarketSymbol, err)
			}
			return nil
		})
	}

	err := group.Wait()
	logs.Info("orchestrator: all traders stopped")
	return err
}

// Stopped reports whether every trader reached its terminal state.
func (o *Orchestrator) Stopped() bool {
	for _, tr := range o.traders {
		if tr.State() != enum.TraderStateStopped {
			return false
		}
	}
	return true
}

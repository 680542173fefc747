package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"main/internal/gateway"
	"main/internal/gateway/paradex"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/orchestrator"
	"main/internal/state"
	"main/pkg/conn"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
)

func main() {
	if err := run(); err != nil {
		logs.Errorf("quoter: %v", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "configs/config.json", "Path to JSON config")
	walletsPath := flag.String("wallets", "configs/wallets.csv", "Path to wallet credential CSV")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := ops.Load(*configPath)
	if err != nil {
		return err
	}

	wallets, err := ops.LoadWallets(*walletsPath)
	if err != nil {
		return err
	}
	if err := wallets.CheckTasks(cfg); err != nil {
		return err
	}

	if cfg.Profiling.Enabled {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "quoter",
			ServerAddress:   cfg.Profiling.ServerAddress,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	var journal *state.Journal
	if cfg.Journal.Enabled {
		client, err := conn.New(conn.Option{
			Host:     cfg.Journal.Host,
			Port:     cfg.Journal.Port,
			User:     cfg.Journal.User,
			Password: cfg.Journal.Password,
			Database: cfg.Journal.Database,
		})
		if err != nil {
			return err
		}
		defer client.Close()

		journal, err = state.NewJournal(client)
		if err != nil {
			return err
		}
	}

	metrics := obs.NewMetrics()
	logs.Infof("quoter: venue %s (devMode=%t)", cfg.Venue.Name, cfg.Venue.DevMode)
	venue := paradex.New(ctx, paradex.Config{
		RestURL: cfg.Venue.RestURL,
		WsURL:   cfg.Venue.WsURL,
		DevMode: cfg.Venue.DevMode,
	})
	gw := gateway.New(venue, gateway.Config{
		RequestsPerSecond: cfg.Venue.RequestsPerSecond,
		Burst:             cfg.Venue.Burst,
	}, metrics)

	if err := gw.Connect(ctx, taskCredentials(cfg, wallets)); err != nil {
		return err
	}
	defer gw.Close()

	orch, err := orchestrator.New(cfg, gw, journal, metrics)
	if err != nil {
		return err
	}

	runErr := orch.Run(ctx)

	snapshot := metrics.Snapshot()
	logs.Infof("quoter: cycles=%d holds=%d placed=%d cancelled=%d rejected=%d retries=%d rate_limit_waits=%d book_updates=%d exec_events=%d event_drops=%d",
		snapshot.Cycles, snapshot.Holds, snapshot.OrdersPlaced, snapshot.OrdersCancelled,
		snapshot.OrdersRejected, snapshot.Retries, snapshot.RateLimitWaits,
		snapshot.BookUpdates, snapshot.ExecEvents, snapshot.EventDrops)
	logs.Infof("quoter: place latency %+v, cancel latency %+v",
		snapshot.OrderLatency, snapshot.CancelLatency)

	return runErr
}

// taskCredentials collects the credential of every wallet the tasks use,
// once per wallet. CheckTasks already guaranteed each one resolves.
func taskCredentials(cfg ops.Loaded, wallets *ops.WalletStore) []ops.WalletCredential {
	seen := make(map[string]struct{}, len(cfg.Tasks))
	creds := make([]ops.WalletCredential, 0, len(cfg.Tasks))
	for _, task := range cfg.Tasks {
		if _, ok := seen[task.WalletName]; ok {
			continue
		}
		seen[task.WalletName] = struct{}{}

		cred, err := wallets.Resolve(task.WalletName)
		if err != nil {
			continue
		}
		creds = append(creds, cred)
	}
	return creds
}

package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"main/internal/model"
	"main/internal/risk"
	"main/internal/strategy"
	"main/pkg/exception"

	"github.com/yanun0323/errors"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Venue     VenueConfig     `json:"venue"`
	Trader    TraderConfig    `json:"trader"`
	Risk      risk.Config     `json:"risk"`
	Journal   JournalConfig   `json:"journal"`
	Profiling ProfilingConfig `json:"profiling"`
	Tasks     []TaskConfig    `json:"tasks"`
}

// VenueConfig describes the exchange endpoint and the shared request budget.
// Empty URLs mean the venue client's built-in endpoints, testnet when DevMode
// is set.
type VenueConfig struct {
	Name              string  `json:"name"`
	RestURL           string  `json:"restUrl"`
	WsURL             string  `json:"wsUrl"`
	DevMode           bool    `json:"devMode"`
	RequestsPerSecond float64 `json:"requestsPerSecond"`
	Burst             int     `json:"burst"`
}

// TraderConfig holds loop tunables shared by all traders.
type TraderConfig struct {
	PriceToleranceBps float64 `json:"priceToleranceBps"`
	RetryAttempts     int     `json:"retryAttempts"`
	RetryBackoffMs    int64   `json:"retryBackoffMs"`
	ShutdownTimeoutMs int64   `json:"shutdownTimeoutMs"`
}

// JournalConfig enables the optional Postgres fill journal.
type JournalConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
}

// ProfilingConfig enables the optional pyroscope profiler.
type ProfilingConfig struct {
	Enabled       bool   `json:"enabled"`
	ServerAddress string `json:"serverAddress"`
}

// TaskConfig describes one (wallet, market, strategy) task entry.
type TaskConfig struct {
	WalletName     string               `json:"walletName"`
	MarketSymbol   string               `json:"marketSymbol"`
	StrategyName   string               `json:"strategyName"`
	StrategyParams StrategyParamsConfig `json:"strategyParams"`
}

// StrategyParamsConfig mirrors the per-task strategy parameters.
type StrategyParamsConfig struct {
	OrderValue         float64 `json:"orderValue"`
	BaseSpreadBps      float64 `json:"baseSpreadBps"`
	InventorySkewBps   float64 `json:"inventorySkewBps"`
	RefreshFrequencyMs int64   `json:"refreshFrequencyMs"`
}

// TraderSpec is the resolved trader loop configuration.
type TraderSpec struct {
	PriceToleranceBps float64
	RetryAttempts     int
	RetryBackoff      time.Duration
	ShutdownTimeout   time.Duration
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Venue     VenueConfig
	Trader    TraderSpec
	Risk      risk.Config
	Journal   JournalConfig
	Profiling ProfilingConfig
	Tasks     []model.Task
}

// venueParadex is the only venue this build ships a client for.
const venueParadex = "paradex"

const (
	defaultPriceToleranceBps = 1.0
	defaultRetryAttempts     = 4
	defaultRetryBackoff      = 50 * time.Millisecond
	defaultShutdownTimeout   = 5 * time.Second
	defaultRequestsPerSecond = 8.0
	defaultBurst             = 16
)

// Load reads a JSON config file and resolves it into runtime values.
// Any validation failure wraps exception.ErrConfiguration and is fatal to
// startup.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, errors.Wrap(exception.ErrConfiguration, err.Error())
	}

	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, errors.Wrap(exception.ErrConfiguration, err.Error())
	}

	return Resolve(cfg)
}

// Resolve validates a FileConfig and applies defaults.
func Resolve(cfg FileConfig) (Loaded, error) {
	venue, err := resolveVenue(cfg.Venue)
	if err != nil {
		return Loaded{}, err
	}

	tasks, err := resolveTasks(cfg.Tasks)
	if err != nil {
		return Loaded{}, err
	}

	return Loaded{
		Venue:     venue,
		Trader:    resolveTrader(cfg.Trader),
		Risk:      cfg.Risk,
		Journal:   cfg.Journal,
		Profiling: cfg.Profiling,
		Tasks:     tasks,
	}, nil
}

func resolveVenue(cfg VenueConfig) (VenueConfig, error) {
	if cfg.Name == "" {
		cfg.Name = venueParadex
	}
	if cfg.Name != venueParadex {
		return VenueConfig{}, errors.Wrap(exception.ErrConfiguration,
			fmt.Sprintf("unknown venue %q", cfg.Name))
	}
	if cfg.RequestsPerSecond < 0 || cfg.Burst < 0 {
		return VenueConfig{}, errors.Wrap(exception.ErrConfiguration, "venue request budget must not be negative")
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = defaultRequestsPerSecond
	}
	if cfg.Burst == 0 {
		cfg.Burst = defaultBurst
	}
	return cfg, nil
}

func resolveTrader(cfg TraderConfig) TraderSpec {
	spec := TraderSpec{
		PriceToleranceBps: cfg.PriceToleranceBps,
		RetryAttempts:     cfg.RetryAttempts,
		RetryBackoff:      time.Duration(cfg.RetryBackoffMs) * time.Millisecond,
		ShutdownTimeout:   time.Duration(cfg.ShutdownTimeoutMs) * time.Millisecond,
	}
	if spec.PriceToleranceBps <= 0 {
		spec.PriceToleranceBps = defaultPriceToleranceBps
	}
	if spec.RetryAttempts <= 0 {
		spec.RetryAttempts = defaultRetryAttempts
	}
	if spec.RetryBackoff <= 0 {
		spec.RetryBackoff = defaultRetryBackoff
	}
	if spec.ShutdownTimeout <= 0 {
		spec.ShutdownTimeout = defaultShutdownTimeout
	}
	return spec
}

func resolveTasks(tasks []TaskConfig) ([]model.Task, error) {
	if len(tasks) == 0 {
		return nil, errors.Wrap(exception.ErrConfiguration, "no tasks configured")
	}

	out := make([]model.Task, 0, len(tasks))
	for i, task := range tasks {
		if task.WalletName == "" || task.MarketSymbol == "" || task.StrategyName == "" {
			return nil, errors.Wrap(exception.ErrConfiguration,
				fmt.Sprintf("task[%d]: walletName, marketSymbol and strategyName are required", i))
		}
		if !strategy.Known(task.StrategyName) {
			return nil, errors.Wrap(exception.ErrConfigUnknownStrategy,
				fmt.Sprintf("task[%d]: %q", i, task.StrategyName))
		}

		p := task.StrategyParams
		if p.OrderValue <= 0 || p.BaseSpreadBps <= 0 || p.InventorySkewBps < 0 || p.RefreshFrequencyMs <= 0 {
			return nil, errors.Wrap(exception.ErrConfiguration,
				fmt.Sprintf("task[%d]: strategy params must be positive", i))
		}

		out = append(out, model.Task{
			WalletName:   task.WalletName,
			MarketSymbol: task.MarketSymbol,
			StrategyName: task.StrategyName,
			Params: model.StrategyParams{
				OrderValue:       p.OrderValue,
				BaseSpreadBps:    p.BaseSpreadBps,
				InventorySkewBps: p.InventorySkewBps,
				RefreshInterval:  time.Duration(p.RefreshFrequencyMs) * time.Millisecond,
			},
		})
	}
	return out, nil
}

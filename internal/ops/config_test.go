package ops

import (
	"errors"
	"testing"
	"time"

	"main/pkg/exception"
)

func validConfig() FileConfig {
	return FileConfig{
		Venue: VenueConfig{
			Name:    "paradex",
			RestURL: "https://api.example.test/v1",
			WsURL:   "wss://ws.example.test/v1",
		},
		Tasks: []TaskConfig{
			{
				WalletName:   "w1",
				MarketSymbol: "BTC-USD-PERP",
				StrategyName: "vamp",
				StrategyParams: StrategyParamsConfig{
					OrderValue:         1000,
					BaseSpreadBps:      10,
					InventorySkewBps:   4,
					RefreshFrequencyMs: 500,
				},
			},
		},
	}
}

func TestResolveAppliesDefaults(t *testing.T) {
	loaded, err := Resolve(validConfig())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if loaded.Trader.PriceToleranceBps != defaultPriceToleranceBps {
		t.Fatalf("tolerance default: got %v", loaded.Trader.PriceToleranceBps)
	}
	if loaded.Trader.RetryAttempts != defaultRetryAttempts {
		t.Fatalf("retry attempts default: got %d", loaded.Trader.RetryAttempts)
	}
	if loaded.Trader.RetryBackoff != defaultRetryBackoff {
		t.Fatalf("retry backoff default: got %v", loaded.Trader.RetryBackoff)
	}
	if loaded.Venue.RequestsPerSecond != defaultRequestsPerSecond || loaded.Venue.Burst != defaultBurst {
		t.Fatalf("request budget defaults: got %v/%d", loaded.Venue.RequestsPerSecond, loaded.Venue.Burst)
	}

	task := loaded.Tasks[0]
	if task.Params.RefreshInterval != 500*time.Millisecond {
		t.Fatalf("refresh interval: got %v", task.Params.RefreshInterval)
	}
}

func TestResolveRejectsUnknownStrategy(t *testing.T) {
	cfg := validConfig()
	cfg.Tasks[0].StrategyName = "momentum"

	if _, err := Resolve(cfg); !errors.Is(err, exception.ErrConfigUnknownStrategy) {
		t.Fatalf("expected ErrConfigUnknownStrategy, got %v", err)
	}
}

func TestResolveRejectsBadParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FileConfig)
	}{
		{"unknown venue", func(cfg *FileConfig) { cfg.Venue.Name = "deepcoin" }},
		{"no tasks", func(cfg *FileConfig) { cfg.Tasks = nil }},
		{"missing wallet", func(cfg *FileConfig) { cfg.Tasks[0].WalletName = "" }},
		{"zero order value", func(cfg *FileConfig) { cfg.Tasks[0].StrategyParams.OrderValue = 0 }},
		{"negative spread", func(cfg *FileConfig) { cfg.Tasks[0].StrategyParams.BaseSpreadBps = -1 }},
		{"negative skew", func(cfg *FileConfig) { cfg.Tasks[0].StrategyParams.InventorySkewBps = -1 }},
		{"zero refresh", func(cfg *FileConfig) { cfg.Tasks[0].StrategyParams.RefreshFrequencyMs = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if _, err := Resolve(cfg); !errors.Is(err, exception.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestResolveVenueEndpointsOptional(t *testing.T) {
	// Empty URLs defer endpoint choice to the venue client, which picks its
	// built-in testnet endpoints when devMode is set.
	cfg := validConfig()
	cfg.Venue.Name = ""
	cfg.Venue.RestURL = ""
	cfg.Venue.WsURL = ""
	cfg.Venue.DevMode = true

	loaded, err := Resolve(cfg)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if loaded.Venue.Name != venueParadex {
		t.Fatalf("venue name default: got %q", loaded.Venue.Name)
	}
	if loaded.Venue.RestURL != "" || loaded.Venue.WsURL != "" {
		t.Fatalf("urls must stay empty for the client to fill: %+v", loaded.Venue)
	}
	if !loaded.Venue.DevMode {
		t.Fatal("devMode must carry through resolve")
	}
}

func TestResolveAllowsZeroSkew(t *testing.T) {
	cfg := validConfig()
	cfg.Tasks[0].StrategyParams.InventorySkewBps = 0

	if _, err := Resolve(cfg); err != nil {
		t.Fatalf("zero skew must be valid: %v", err)
	}
}

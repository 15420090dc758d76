package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/noscan/config"
	"github.com/alejandrodnm/noscan/internal/adapters/feed"
	"github.com/alejandrodnm/noscan/internal/application/execution"
	"github.com/alejandrodnm/noscan/internal/domain"
	"github.com/alejandrodnm/noscan/internal/ports"
	"golang.org/x/time/rate"
)

// runPaper abre las señales BUY_NO en el motor de ejecución y las conduce
// contra un replay de precios sintético hasta agotar los ticks o cerrar todo.
func runPaper(ctx context.Context, cfg *config.Config, store ports.Storage, notifier ports.Notifier, runID string, now time.Time, opps []domain.Opportunity) {
	slog.Info("=== PAPER EXECUTION MODE ===",
		"capital", cfg.Analyzer.CapitalUSDC,
		"stop_loss", cfg.Execution.StopLossPct,
		"take_profit", cfg.Execution.TakeProfitPct,
		"max_concurrent", cfg.Execution.MaxConcurrent,
	)

	ecfg := execution.Config{
		InitialCapital: cfg.Analyzer.CapitalUSDC,
		StopLossPct:    cfg.Execution.StopLossPct,
		TakeProfitPct:  cfg.Execution.TakeProfitPct,
		MaxHoldTime:    time.Duration(cfg.Execution.MaxHoldMinutes) * time.Minute,
		MaxConcurrent:  cfg.Execution.MaxConcurrent,
		FeeRate:        cfg.Execution.FeeRate,
	}
	if err := ecfg.Validate(); err != nil {
		slog.Error("invalid execution config", "err", err)
		return
	}

	engine := execution.New(ecfg)

	initial := make(map[string]float64)
	for _, opp := range opps {
		if !opp.IsBuy() {
			continue
		}
		if _, rej := engine.Open(opp, now); rej != nil {
			slog.Warn("signal not executed", "market", rej.MarketID, "reason", rej.Reason)
			continue
		}
		initial[opp.Market.ID] = opp.Market.NoPrice
	}
	if len(initial) == 0 {
		slog.Warn("no positions opened — nothing to execute")
		return
	}

	replayer := feed.NewReplayer(
		initial,
		now,
		cfg.Backtest.Seed,
		rate.Inf,
		time.Duration(cfg.Execution.TickMinutes)*time.Minute,
		cfg.Execution.TickVolatility,
	)

	var lastPrices map[string]float64
	for i := 0; i < cfg.Execution.Ticks && engine.OpenPositions() > 0; i++ {
		tick, err := replayer.Next(ctx)
		if err != nil {
			slog.Warn("replay interrupted", "err", err)
			break
		}
		lastPrices = tick.Prices
		engine.Tick(tick.Prices, tick.Time)
	}

	trades := engine.Ledger()
	if err := store.SaveTrades(ctx, runID, trades); err != nil {
		slog.Warn("failed to persist trades", "err", err)
	}

	if err := notifier.PrintLedger(ctx, trades, engine.Summary(lastPrices)); err != nil {
		slog.Warn("notifier error", "err", err)
	}
}
